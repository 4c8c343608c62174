package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"crate/internal/catalog"
	"crate/internal/pending"
	"crate/internal/quality"
	"crate/internal/release"
	"crate/internal/services"
)

// decisionInput is one held decision in a reconcile batch file. When
// albumIds is empty the albums are resolved from parsed.
type decisionInput struct {
	ArtistID   int64                   `json:"artistId"`
	AlbumIDs   []int64                 `json:"albumIds,omitempty"`
	Reason     pending.Reason          `json:"reason"`
	Source     string                  `json:"source,omitempty"`
	Parsed     release.ParsedAlbumInfo `json:"parsed"`
	Release    release.Info            `json:"release"`
	Rejections []pending.Rejection     `json:"rejections,omitempty"`
}

type reconcileBatch struct {
	Decisions []decisionInput `json:"decisions"`
}

type rejectBatch struct {
	Releases []release.Info `json:"releases"`
}

type grabInput struct {
	ArtistID int64        `json:"artistId"`
	AlbumIDs []int64      `json:"albumIds"`
	Quality  string       `json:"quality"`
	Release  release.Info `json:"release"`
}

// readJSONFile decodes path into v. A path of "-" reads stdin.
func readJSONFile(path string, stdin io.Reader, v any) error {
	var r io.Reader
	if strings.TrimSpace(path) == "-" {
		r = stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer file.Close()
		r = file
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return services.Wrap(services.ErrValidation, "cli", "read input", fmt.Sprintf("decode %s", path), err)
	}
	return nil
}

// resolveArtistAlbums loads the artist and the requested albums, checking
// that every album belongs to the artist.
func resolveArtistAlbums(ctx context.Context, repo *catalog.Repository, artistID int64, albumIDs []int64) (catalog.Artist, []catalog.Album, error) {
	artist, err := repo.GetByID(ctx, artistID)
	if err != nil {
		return catalog.Artist{}, nil, err
	}
	if len(albumIDs) == 0 {
		return artist, nil, nil
	}
	albums, err := repo.AlbumsByIDs(ctx, albumIDs)
	if err != nil {
		return catalog.Artist{}, nil, err
	}
	if len(albums) != len(albumIDs) {
		return catalog.Artist{}, nil, services.Wrap(services.ErrNotFound, "cli", "resolve albums",
			fmt.Sprintf("found %d of %d albums", len(albums), len(albumIDs)), nil)
	}
	for _, album := range albums {
		if album.ArtistID != artist.ID {
			return catalog.Artist{}, nil, services.Wrap(services.ErrValidation, "cli", "resolve albums",
				fmt.Sprintf("album %d belongs to artist %d, not %d", album.ID, album.ArtistID, artist.ID), nil)
		}
	}
	return artist, albums, nil
}

func (a *app) pendingDecisions(ctx context.Context, batch reconcileBatch) ([]pending.PendingDecision, error) {
	decisions := make([]pending.PendingDecision, 0, len(batch.Decisions))
	for i, in := range batch.Decisions {
		if !in.Reason.Valid() {
			return nil, services.Wrap(services.ErrValidation, "cli", "reconcile", fmt.Sprintf("decision %d has unknown reason %q", i, in.Reason), nil)
		}
		artist, albums, err := resolveArtistAlbums(ctx, a.catalog, in.ArtistID, in.AlbumIDs)
		if err != nil {
			return nil, fmt.Errorf("decision %d: %w", i, err)
		}
		if len(in.AlbumIDs) == 0 {
			if albums, err = a.mapper.MapAlbums(ctx, artist, in.Parsed); err != nil {
				return nil, fmt.Errorf("decision %d: %w", i, err)
			}
		}
		decisions = append(decisions, pending.PendingDecision{
			Decision: pending.Decision{
				RemoteAlbum: &pending.RemoteAlbum{
					Artist:          artist,
					Albums:          albums,
					ParsedAlbumInfo: in.Parsed,
					Release:         in.Release,
					ReleaseSource:   in.Source,
				},
				Rejections: in.Rejections,
			},
			Reason: in.Reason,
		})
	}
	return decisions, nil
}

func parseQuality(name string) (quality.Model, error) {
	q, err := quality.FindByName(name)
	if err != nil {
		return quality.Model{}, services.Wrap(services.ErrValidation, "cli", "parse quality", name, err)
	}
	return quality.NewModel(q), nil
}
