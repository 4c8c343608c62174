package pending

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"crate/internal/catalog"
	"crate/internal/events"
	"crate/internal/logging"
	"crate/internal/metrics"
	"crate/internal/services"
)

// Options carries the indexer settings that shape queue timing.
type Options struct {
	// MinimumAge is the floor applied to every protocol delay.
	MinimumAge time.Duration
	// RSSSyncInterval is added to estimates whose delay ends after the next
	// feed sync.
	RSSSyncInterval time.Duration
}

// Dependencies wires the service to its collaborators. Repository, Artists,
// Mapper, Delays and Schedule are required.
type Dependencies struct {
	Repository Repository
	Artists    ArtistDirectory
	Mapper     AlbumMapper
	Augmenter  Augmenter
	Delays     DelayProfiles
	Schedule   Schedule
	Publisher  Publisher
	Metrics    *metrics.Pending
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Service manages pending releases: reconciliation, queue projection and
// lifecycle cleanup. It keeps no state between calls.
type Service struct {
	opts      Options
	repo      Repository
	artists   ArtistDirectory
	mapper    AlbumMapper
	augmenter Augmenter
	delays    DelayProfiles
	schedule  Schedule
	publisher Publisher
	metrics   *metrics.Pending
	logger    *slog.Logger
	now       func() time.Time
}

// NewService validates deps and builds a Service.
func NewService(opts Options, deps Dependencies) (*Service, error) {
	switch {
	case deps.Repository == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pending", "new service", "repository is required", nil)
	case deps.Artists == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pending", "new service", "artist directory is required", nil)
	case deps.Mapper == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pending", "new service", "album mapper is required", nil)
	case deps.Delays == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pending", "new service", "delay profiles are required", nil)
	case deps.Schedule == nil:
		return nil, services.Wrap(services.ErrConfiguration, "pending", "new service", "schedule is required", nil)
	}
	if opts.MinimumAge < 0 || opts.RSSSyncInterval < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pending", "new service", "durations cannot be negative", nil)
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		opts:      opts,
		repo:      deps.Repository,
		artists:   deps.Artists,
		mapper:    deps.Mapper,
		augmenter: deps.Augmenter,
		delays:    deps.Delays,
		schedule:  deps.Schedule,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    logging.NewComponentLogger(deps.Logger, "pending"),
		now:       func() time.Time { return clock().UTC() },
	}, nil
}

// begin tags ctx with the operation and a correlation id, keeping an id the
// caller already set.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, *slog.Logger) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithOperation(ctx, operation)
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	return ctx, logging.WithContext(ctx, s.logger)
}

func (s *Service) publish(ctx context.Context, event events.PendingReleasesUpdated) {
	if s.publisher == nil || event.Changes() == 0 {
		return
	}
	event.Operation, _ = services.OperationFromContext(ctx)
	event.At = s.now()
	s.publisher.Publish(ctx, event)
}

// loadArtists fetches the distinct artists referenced by releases.
func (s *Service) loadArtists(ctx context.Context, releases []Release) (map[int64]catalog.Artist, error) {
	seen := make(map[int64]bool, len(releases))
	ids := make([]int64, 0, len(releases))
	for _, r := range releases {
		if !seen[r.ArtistID] {
			seen[r.ArtistID] = true
			ids = append(ids, r.ArtistID)
		}
	}
	artists, err := s.artists.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]catalog.Artist, len(artists))
	for _, a := range artists {
		byID[a.ID] = a
	}
	return byID, nil
}

// includeRemoteAlbums resolves each release against the live catalog.
// Releases whose artist no longer exists are dropped. known supplies
// resolutions the caller already computed, keyed by release title; a mapper
// failure leaves the release with zero albums.
func (s *Service) includeRemoteAlbums(ctx context.Context, logger *slog.Logger, releases []Release, known map[string]*RemoteAlbum) ([]Release, error) {
	if len(releases) == 0 {
		return nil, nil
	}
	artists, err := s.loadArtists(ctx, releases)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pending", "resolve", "load artists", err)
	}

	resolved := make([]Release, 0, len(releases))
	for _, r := range releases {
		artist, ok := artists[r.ArtistID]
		if !ok {
			logger.Debug("skipping pending release of unknown artist",
				logging.Int64(logging.FieldPendingID, r.ID),
				logging.Int64(logging.FieldArtistID, r.ArtistID),
			)
			continue
		}

		remote := &RemoteAlbum{
			Artist:          artist,
			ParsedAlbumInfo: r.ParsedAlbumInfo,
			Release:         r.Release,
			ReleaseSource:   r.AdditionalInfo.ReleaseSource,
		}
		if prior, ok := known[r.Title]; ok && prior != nil {
			remote.Albums = prior.Albums
		} else {
			albums, err := s.mapper.MapAlbums(ctx, artist, r.ParsedAlbumInfo)
			if err != nil {
				logger.Warn("unable to resolve albums for pending release",
					logging.Int64(logging.FieldPendingID, r.ID),
					logging.String(logging.FieldRelease, r.Title),
					logging.Error(err),
				)
				albums = nil
			}
			remote.Albums = albums
		}
		if s.augmenter != nil {
			remote.CustomFormatScore, remote.CustomFormats = s.augmenter.Score(artist, r.ParsedAlbumInfo, r.Release)
		}
		r.RemoteAlbum = remote
		resolved = append(resolved, r)
	}
	return resolved, nil
}

func releaseIDs(releases []Release) []int64 {
	ids := make([]int64, 0, len(releases))
	for _, r := range releases {
		ids = append(ids, r.ID)
	}
	return ids
}
