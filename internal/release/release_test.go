package release_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crate/internal/release"
)

func sampleInfo() release.Info {
	return release.Info{
		GUID:        "guid-1",
		Title:       "Artist - Album (2024) [FLAC]",
		Size:        400 << 20,
		Indexer:     "NZBgeek",
		IndexerID:   3,
		Protocol:    release.ProtocolUsenet,
		PublishDate: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

func TestMatchesIgnoresSizeAndProtocol(t *testing.T) {
	a := sampleInfo()
	b := sampleInfo()
	b.Size = 123
	b.Protocol = release.ProtocolTorrent
	b.GUID = "guid-2"

	assert.True(t, a.Matches(b))
}

func TestMatchesComparesPublishInstant(t *testing.T) {
	a := sampleInfo()
	b := sampleInfo()
	b.PublishDate = a.PublishDate.In(time.FixedZone("CET", 3600))
	assert.True(t, a.Matches(b), "same instant in another zone must match")

	b.PublishDate = a.PublishDate.Add(time.Second)
	assert.False(t, a.Matches(b))
}

func TestMatchesRequiresTitleAndIndexer(t *testing.T) {
	a := sampleInfo()

	otherTitle := sampleInfo()
	otherTitle.Title = "artist - album (2024) [flac]"
	assert.False(t, a.Matches(otherTitle), "titles compare exactly")

	otherIndexer := sampleInfo()
	otherIndexer.Indexer = "DrunkenSlug"
	assert.False(t, a.Matches(otherIndexer))
}

func TestParseProtocol(t *testing.T) {
	p, err := release.ParseProtocol("NZB")
	require.NoError(t, err)
	assert.Equal(t, release.ProtocolUsenet, p)

	p, err = release.ParseProtocol("")
	require.NoError(t, err)
	assert.Equal(t, release.ProtocolUnknown, p)

	_, err = release.ParseProtocol("ftp")
	require.Error(t, err)
}
