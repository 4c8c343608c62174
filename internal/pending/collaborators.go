package pending

import (
	"context"
	"time"

	"crate/internal/catalog"
	"crate/internal/delay"
	"crate/internal/events"
	"crate/internal/release"
)

// Repository persists pending releases.
type Repository interface {
	All(ctx context.Context) ([]Release, error)
	AllByArtistID(ctx context.Context, artistID int64) ([]Release, error)
	AllExcludingReason(ctx context.Context, reason Reason) ([]Release, error)
	Insert(ctx context.Context, r *Release) error
	Update(ctx context.Context, r *Release) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) error
	DeleteByArtistIDs(ctx context.Context, artistIDs []int64) (int64, error)
}

// ArtistDirectory loads live artists with their quality profiles.
type ArtistDirectory interface {
	GetByIDs(ctx context.Context, ids []int64) ([]catalog.Artist, error)
}

// AlbumMapper resolves parsed metadata to albums. Errors mean the release
// could not be resolved on this pass.
type AlbumMapper interface {
	MapAlbums(ctx context.Context, artist catalog.Artist, parsed release.ParsedAlbumInfo) ([]catalog.Album, error)
}

// Augmenter computes a custom-format score. It must not mutate its inputs.
type Augmenter interface {
	Score(artist catalog.Artist, parsed release.ParsedAlbumInfo, info release.Info) (int, []string)
}

// DelayProfiles resolves the delay profile governing a set of tags.
type DelayProfiles interface {
	BestForTags(ctx context.Context, tags []int) (delay.Profile, error)
}

// Schedule reports when a recurring task next runs.
type Schedule interface {
	NextExecution(ctx context.Context, task string) (time.Time, error)
}

// Publisher receives change notifications. Delivery is fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}
