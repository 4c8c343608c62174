package pending

import (
	"context"

	"crate/internal/events"
	"crate/internal/logging"
	"crate/internal/metrics"
	"crate/internal/quality"
	"crate/internal/release"
	"crate/internal/services"
)

// Pending returns every pending release resolved against the catalog,
// fallback releases included.
func (s *Service) Pending(ctx context.Context) ([]Release, error) {
	ctx, logger := s.begin(ctx, "pending")
	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return s.includeRemoteAlbums(ctx, logger, stored, nil)
}

// PendingForArtist returns one artist's resolved pending releases.
func (s *Service) PendingForArtist(ctx context.Context, artistID int64) ([]Release, error) {
	ctx, logger := s.begin(ctx, "pending")
	stored, err := s.repo.AllByArtistID(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return s.includeRemoteAlbums(ctx, logger, stored, nil)
}

// OldestPending returns the artist's pending release with the earliest
// publish date among those covering any of albumIDs, resolved with its
// albums. Fallback releases count. Returns nil when none covers the albums;
// equal publish dates go to the lower id.
func (s *Service) OldestPending(ctx context.Context, artistID int64, albumIDs []int64) (*Release, error) {
	releases, err := s.PendingForArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool, len(albumIDs))
	for _, id := range albumIDs {
		wanted[id] = true
	}

	var oldest *Release
	for i := range releases {
		r := &releases[i]
		if !coversAny(r, wanted) {
			continue
		}
		if oldest == nil ||
			r.Release.PublishDate.Before(oldest.Release.PublishDate) ||
			(r.Release.PublishDate.Equal(oldest.Release.PublishDate) && r.ID < oldest.ID) {
			oldest = r
		}
	}
	return oldest, nil
}

func coversAny(r *Release, albumIDs map[int64]bool) bool {
	if r.RemoteAlbum == nil {
		return false
	}
	for _, album := range r.RemoteAlbum.Albums {
		if albumIDs[album.ID] {
			return true
		}
	}
	return false
}

// OnOwnersDeleted removes every pending release of the deleted artists.
func (s *Service) OnOwnersDeleted(ctx context.Context, artistIDs []int64) error {
	if len(artistIDs) == 0 {
		return nil
	}
	ctx, logger := s.begin(ctx, "owners_deleted")
	n, err := s.repo.DeleteByArtistIDs(ctx, artistIDs)
	if err != nil {
		return err
	}
	s.metrics.RecordDeleted(metrics.TriggerOwnerDeleted, int(n))
	s.publish(ctx, events.PendingReleasesUpdated{Deleted: int(n)})
	if n > 0 {
		logger.Info("removed pending releases of deleted artists",
			logging.Int("artists", len(artistIDs)),
			logging.Int64("count", n),
		)
	}
	return nil
}

// OnGrabbed removes the artist's pending releases made redundant by a grab:
// those covering a grabbed album at a quality the grab meets or beats under
// the artist's quality profile.
func (s *Service) OnGrabbed(ctx context.Context, grabbed *RemoteAlbum) error {
	if grabbed == nil || grabbed.Artist.ID == 0 {
		return services.Wrap(services.ErrValidation, "pending", "grabbed", "grabbed release has no artist", nil)
	}
	ctx = services.WithArtistID(ctx, grabbed.Artist.ID)
	ctx, logger := s.begin(ctx, "grabbed")

	stored, err := s.repo.AllByArtistID(ctx, grabbed.Artist.ID)
	if err != nil {
		return err
	}
	candidates, err := s.includeRemoteAlbums(ctx, logger, stored, nil)
	if err != nil {
		return err
	}

	grabbedAlbums := albumSet(grabbed.Albums)
	cmp := quality.NewComparer(grabbed.Artist.QualityProfile)
	grabbedQuality := grabbed.ParsedAlbumInfo.Quality

	var ids []int64
	for _, r := range candidates {
		covers := false
		for _, album := range r.RemoteAlbum.Albums {
			if grabbedAlbums[album.ID] {
				covers = true
				break
			}
		}
		if covers && cmp.Compare(grabbedQuality, r.ParsedAlbumInfo.Quality) >= 0 {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.repo.DeleteMany(ctx, ids); err != nil {
		return err
	}
	s.metrics.RecordDeleted(metrics.TriggerGrabbed, len(ids))
	s.publish(ctx, events.PendingReleasesUpdated{Deleted: len(ids)})
	logger.Info("removed pending releases superseded by grab",
		logging.String(logging.FieldRelease, grabbed.Release.Title),
		logging.Int("count", len(ids)),
	)
	return nil
}

// OnSyncRejected removes pending releases whose descriptor matches a release
// the last sync rejected outright, whatever their owner or reason.
func (s *Service) OnSyncRejected(ctx context.Context, rejected []release.Info) error {
	if len(rejected) == 0 {
		return nil
	}
	ctx, logger := s.begin(ctx, "sync_rejected")
	stored, err := s.repo.All(ctx)
	if err != nil {
		return err
	}

	var ids []int64
	for _, r := range stored {
		for _, info := range rejected {
			if r.Release.Matches(info) {
				ids = append(ids, r.ID)
				break
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.repo.DeleteMany(ctx, ids); err != nil {
		return err
	}
	s.metrics.RecordDeleted(metrics.TriggerRejected, len(ids))
	s.publish(ctx, events.PendingReleasesUpdated{Deleted: len(ids)})
	logger.Info("removed rejected pending releases", logging.Int("count", len(ids)))
	return nil
}

// Subscribe routes lifecycle events from bus to the service.
func (s *Service) Subscribe(bus *events.Bus) {
	events.On(bus, func(ctx context.Context, ev events.ArtistsDeleted) error {
		return s.OnOwnersDeleted(ctx, ev.ArtistIDs)
	})
	events.On(bus, func(ctx context.Context, ev events.AlbumGrabbed) error {
		return s.OnGrabbed(ctx, &RemoteAlbum{
			Artist:          ev.Artist,
			Albums:          ev.Albums,
			ParsedAlbumInfo: release.ParsedAlbumInfo{Quality: ev.Quality},
			Release:         ev.Release,
		})
	})
	events.On(bus, func(ctx context.Context, ev events.SyncRejected) error {
		return s.OnSyncRejected(ctx, ev.Releases)
	})
}
