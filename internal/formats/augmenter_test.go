package formats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crate/internal/catalog"
	"crate/internal/formats"
	"crate/internal/release"
)

func TestScoreSumsMatchedTerms(t *testing.T) {
	aug := formats.NewTermAugmenter(map[string]int{
		"WEB":        10,
		"Remastered": 5,
		"Vinyl Rip":  -20,
		"  ":         100,
	})

	score, matched := aug.Score(catalog.Artist{}, release.ParsedAlbumInfo{},
		release.Info{Title: "Artist - Album (2011 Remastered) [WEB FLAC]"})
	assert.Equal(t, 15, score)
	assert.Equal(t, []string{"Remastered", "WEB"}, matched)

	score, matched = aug.Score(catalog.Artist{}, release.ParsedAlbumInfo{},
		release.Info{Title: "Artist - Album [vinyl rip] [WEBRip]"})
	assert.Equal(t, -20, score)
	assert.Equal(t, []string{"Vinyl Rip"}, matched)
}

func TestScoreIncludesReleaseGroup(t *testing.T) {
	aug := formats.NewTermAugmenter(map[string]int{"PERFECT": 3})

	score, _ := aug.Score(catalog.Artist{}, release.ParsedAlbumInfo{ReleaseGroup: "PERFECT"},
		release.Info{Title: "Artist - Album [FLAC]"})
	assert.Equal(t, 3, score)
}

func TestEmptyAugmenter(t *testing.T) {
	score, matched := formats.NewTermAugmenter(nil).Score(catalog.Artist{}, release.ParsedAlbumInfo{}, release.Info{Title: "x"})
	assert.Zero(t, score)
	assert.Nil(t, matched)
}
