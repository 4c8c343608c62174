package parser

import (
	"context"
	"fmt"

	"crate/internal/catalog"
	"crate/internal/release"
	"crate/internal/services"
	"crate/internal/textutil"
)

// DefaultSimilarity is the minimum word similarity for a fuzzy album match.
const DefaultSimilarity = 0.8

// AlbumSource lists an artist's albums.
type AlbumSource interface {
	AlbumsByArtistID(ctx context.Context, artistID int64) ([]catalog.Album, error)
}

// AlbumMapper resolves parsed release metadata to the artist's albums.
type AlbumMapper struct {
	albums    AlbumSource
	threshold float64
}

func NewAlbumMapper(albums AlbumSource) *AlbumMapper {
	return &AlbumMapper{albums: albums, threshold: DefaultSimilarity}
}

// MapAlbums returns the albums a release covers. A discography covers every
// album. Otherwise the album title must match one album by clean title, or
// failing that by word similarity. No match yields an empty slice; a release
// naming another artist or matching several albums equally is an error.
func (m *AlbumMapper) MapAlbums(ctx context.Context, artist catalog.Artist, parsed release.ParsedAlbumInfo) ([]catalog.Album, error) {
	if parsed.ArtistName != "" && textutil.CleanTitle(parsed.ArtistName) != artist.CleanName {
		return nil, services.Wrap(services.ErrValidation, "parser", "map albums",
			fmt.Sprintf("release artist %q does not match %q", parsed.ArtistName, artist.Name), nil)
	}

	albums, err := m.albums.AlbumsByArtistID(ctx, artist.ID)
	if err != nil {
		return nil, err
	}
	if parsed.Discography {
		return albums, nil
	}
	if parsed.AlbumTitle == "" {
		return nil, services.Wrap(services.ErrValidation, "parser", "map albums", "release has no album title", nil)
	}

	clean := textutil.CleanTitle(parsed.AlbumTitle)
	for _, album := range albums {
		if album.CleanTitle == clean {
			return []catalog.Album{album}, nil
		}
	}

	var (
		best      []catalog.Album
		bestScore float64
	)
	for _, album := range albums {
		score := textutil.TitleSimilarity(parsed.AlbumTitle, album.Title)
		switch {
		case score < m.threshold:
			continue
		case score > bestScore:
			best = []catalog.Album{album}
			bestScore = score
		case score == bestScore:
			best = append(best, album)
		}
	}
	if len(best) > 1 {
		return nil, services.Wrap(services.ErrValidation, "parser", "map albums",
			fmt.Sprintf("album title %q is ambiguous", parsed.AlbumTitle), nil)
	}
	return best, nil
}
