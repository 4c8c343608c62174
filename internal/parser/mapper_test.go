package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crate/internal/catalog"
	"crate/internal/parser"
	"crate/internal/release"
	"crate/internal/services"
	"crate/internal/textutil"
)

type albumList []catalog.Album

func (l albumList) AlbumsByArtistID(context.Context, int64) ([]catalog.Album, error) { return l, nil }

func album(id int64, title string) catalog.Album {
	return catalog.Album{ID: id, ArtistID: 1, Title: title, CleanTitle: textutil.CleanTitle(title)}
}

var (
	artist = catalog.Artist{ID: 1, Name: "Radiohead", CleanName: "radiohead"}
	albums = albumList{
		album(10, "OK Computer"),
		album(11, "Kid A"),
		album(12, "Hail to the Thief"),
		album(13, "In Rainbows"),
		album(14, "In Rainbows Disk 2"),
	}
)

func TestMapAlbumsExactCleanTitle(t *testing.T) {
	m := parser.NewAlbumMapper(albums)

	got, err := m.MapAlbums(context.Background(), artist, release.ParsedAlbumInfo{ArtistName: "RADIOHEAD", AlbumTitle: "ok computer!"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].ID)
}

func TestMapAlbumsFuzzyTitle(t *testing.T) {
	m := parser.NewAlbumMapper(albums)

	got, err := m.MapAlbums(context.Background(), artist, release.ParsedAlbumInfo{AlbumTitle: "Hail to the Thief Deluxe"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(12), got[0].ID)
}

func TestMapAlbumsNoMatch(t *testing.T) {
	m := parser.NewAlbumMapper(albums)

	got, err := m.MapAlbums(context.Background(), artist, release.ParsedAlbumInfo{AlbumTitle: "Amnesiac"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMapAlbumsDiscography(t *testing.T) {
	m := parser.NewAlbumMapper(albums)

	got, err := m.MapAlbums(context.Background(), artist, release.ParsedAlbumInfo{Discography: true})
	require.NoError(t, err)
	assert.Len(t, got, len(albums))
}

func TestMapAlbumsRejectsOtherArtist(t *testing.T) {
	m := parser.NewAlbumMapper(albums)

	_, err := m.MapAlbums(context.Background(), artist, release.ParsedAlbumInfo{ArtistName: "Muse", AlbumTitle: "Kid A"})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestMapAlbumsRequiresTitle(t *testing.T) {
	m := parser.NewAlbumMapper(albums)

	_, err := m.MapAlbums(context.Background(), artist, release.ParsedAlbumInfo{})
	assert.ErrorIs(t, err, services.ErrValidation)
}
