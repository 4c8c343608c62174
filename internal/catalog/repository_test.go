package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crate/internal/catalog"
	"crate/internal/quality"
	"crate/internal/services"
	"crate/internal/testsupport"
)

func TestEnsureDefaultQualityProfileIsIdempotent(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	repo := testsupport.NewCatalog(t, st)
	ctx := context.Background()

	first, err := repo.EnsureDefaultQualityProfile(ctx)
	require.NoError(t, err)
	second, err := repo.EnsureDefaultQualityProfile(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	profiles, err := repo.QualityProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
	assert.Equal(t, quality.DefaultProfile("").Items, profiles[0].Items)
}

func TestGetByIDsLoadsQualityProfileAndTags(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	repo := testsupport.NewCatalog(t, st)
	ctx := context.Background()

	radiohead := testsupport.SeedArtist(t, repo, "Radiohead", 3, 1)
	portishead := testsupport.SeedArtist(t, repo, "Portishead")

	artists, err := repo.GetByIDs(ctx, []int64{portishead.ID, radiohead.ID, 999})
	require.NoError(t, err)
	require.Len(t, artists, 2)

	assert.Equal(t, radiohead.ID, artists[0].ID)
	assert.Equal(t, []int{1, 3}, artists[0].Tags)
	assert.Equal(t, "radiohead", artists[0].CleanName)
	assert.NotEmpty(t, artists[0].QualityProfile.Items)
	assert.Empty(t, artists[1].Tags)
	assert.False(t, artists[0].Added.IsZero())
}

func TestAddArtistRejectsDuplicateCleanName(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	repo := testsupport.NewCatalog(t, st)
	artist := testsupport.SeedArtist(t, repo, "The Beatles")

	_, err := repo.AddArtist(context.Background(), catalog.Artist{
		Name:             "beatles",
		QualityProfileID: artist.QualityProfileID,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestAddArtistRequiresName(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	repo := testsupport.NewCatalog(t, st)

	_, err := repo.AddArtist(context.Background(), catalog.Artist{QualityProfileID: 1})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAlbumsByArtist(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	repo := testsupport.NewCatalog(t, st)
	ctx := context.Background()

	artist := testsupport.SeedArtist(t, repo, "Björk")
	debut := testsupport.SeedAlbum(t, repo, artist.ID, "Debut")
	post := testsupport.SeedAlbum(t, repo, artist.ID, "Post")
	other := testsupport.SeedArtist(t, repo, "Massive Attack")
	testsupport.SeedAlbum(t, repo, other.ID, "Mezzanine")

	albums, err := repo.AlbumsByArtistID(ctx, artist.ID)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, debut.ID, albums[0].ID)
	assert.Equal(t, "post", albums[1].CleanTitle)

	byID, err := repo.AlbumsByIDs(ctx, []int64{post.ID})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Post", byID[0].Title)
}

func TestAddAlbumRequiresExistingArtist(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	repo := testsupport.NewCatalog(t, st)

	_, err := repo.AddAlbum(context.Background(), catalog.Album{ArtistID: 42, Title: "Ghost"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeleteArtistsRemovesAlbums(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	repo := testsupport.NewCatalog(t, st)
	ctx := context.Background()

	artist := testsupport.SeedArtist(t, repo, "Sigur Rós")
	testsupport.SeedAlbum(t, repo, artist.ID, "Ágætis byrjun")
	keep := testsupport.SeedArtist(t, repo, "Múm")

	deleted, err := repo.DeleteArtists(ctx, []int64{artist.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	albums, err := repo.AlbumsByArtistID(ctx, artist.ID)
	require.NoError(t, err)
	assert.Empty(t, albums)

	remaining, err := repo.Artists(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].ID)
}
