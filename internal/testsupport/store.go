package testsupport

import (
	"context"
	"testing"

	"crate/internal/catalog"
	"crate/internal/config"
	"crate/internal/logging"
	"crate/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// NewCatalog returns a catalog repository over st with the default quality
// profile seeded.
func NewCatalog(t testing.TB, st *store.Store) *catalog.Repository {
	t.Helper()

	repo := catalog.NewRepository(st, logging.NewNop())
	if _, err := repo.EnsureDefaultQualityProfile(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultQualityProfile: %v", err)
	}
	return repo
}

// SeedArtist creates a monitored artist on the first quality profile.
func SeedArtist(t testing.TB, repo *catalog.Repository, name string, tags ...int) catalog.Artist {
	t.Helper()

	ctx := context.Background()
	profile, err := repo.EnsureDefaultQualityProfile(ctx)
	if err != nil {
		t.Fatalf("EnsureDefaultQualityProfile: %v", err)
	}
	artist, err := repo.AddArtist(ctx, catalog.Artist{
		Name:             name,
		QualityProfileID: profile.ID,
		Tags:             tags,
		Monitored:        true,
	})
	if err != nil {
		t.Fatalf("AddArtist(%q): %v", name, err)
	}
	return artist
}

// SeedAlbum creates a monitored album for artistID.
func SeedAlbum(t testing.TB, repo *catalog.Repository, artistID int64, title string) catalog.Album {
	t.Helper()

	album, err := repo.AddAlbum(context.Background(), catalog.Album{
		ArtistID:  artistID,
		Title:     title,
		Monitored: true,
	})
	if err != nil {
		t.Fatalf("AddAlbum(%q): %v", title, err)
	}
	return album
}
