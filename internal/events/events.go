package events

import (
	"time"

	"crate/internal/catalog"
	"crate/internal/quality"
	"crate/internal/release"
)

// Event is anything published on the bus. Name keys subscriptions.
type Event interface {
	EventName() string
}

const (
	NamePendingReleasesUpdated = "pending.updated"
	NameArtistsDeleted         = "artist.deleted"
	NameAlbumGrabbed           = "album.grabbed"
	NameSyncRejected           = "sync.rejected"
)

// PendingReleasesUpdated fires after any mutation of the pending set.
type PendingReleasesUpdated struct {
	Operation string
	Inserted  int
	Updated   int
	Deleted   int
	At        time.Time
}

func (PendingReleasesUpdated) EventName() string { return NamePendingReleasesUpdated }

// Changes is the total number of rows touched.
func (e PendingReleasesUpdated) Changes() int {
	return e.Inserted + e.Updated + e.Deleted
}

// ArtistsDeleted fires after artists are removed from the catalog.
type ArtistsDeleted struct {
	ArtistIDs []int64
}

func (ArtistsDeleted) EventName() string { return NameArtistsDeleted }

// AlbumGrabbed fires when a release is sent to a download client.
type AlbumGrabbed struct {
	Artist  catalog.Artist
	Albums  []catalog.Album
	Quality quality.Model
	Release release.Info
}

func (AlbumGrabbed) EventName() string { return NameAlbumGrabbed }

// SyncRejected carries the releases a sync cycle rejected on re-evaluation.
type SyncRejected struct {
	Releases []release.Info
}

func (SyncRejected) EventName() string { return NameSyncRejected }
