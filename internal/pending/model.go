package pending

import (
	"time"

	"crate/internal/catalog"
	"crate/internal/quality"
	"crate/internal/release"
)

// Release is a persisted candidate: a release seen by a search or feed sync
// and held back rather than grabbed.
type Release struct {
	ID              int64
	ArtistID        int64
	Title           string
	Added           time.Time
	ParsedAlbumInfo release.ParsedAlbumInfo
	Release         release.Info
	Reason          Reason
	AdditionalInfo  AdditionalInfo

	// RemoteAlbum is resolved per pass and never persisted.
	RemoteAlbum *RemoteAlbum
}

// AdditionalInfo carries provenance that plays no part in matching.
type AdditionalInfo struct {
	ReleaseSource string `json:"releaseSource,omitempty"`
}

// RemoteAlbum is a release resolved against the live catalog.
type RemoteAlbum struct {
	Artist            catalog.Artist
	Albums            []catalog.Album
	ParsedAlbumInfo   release.ParsedAlbumInfo
	Release           release.Info
	CustomFormatScore int
	CustomFormats     []string
	ReleaseSource     string
}

// AlbumIDs lists the ids of the resolved albums.
func (r *RemoteAlbum) AlbumIDs() []int64 {
	if r == nil {
		return nil
	}
	ids := make([]int64, 0, len(r.Albums))
	for _, album := range r.Albums {
		ids = append(ids, album.ID)
	}
	return ids
}

// RejectionType tells whether a rejection can clear on a later evaluation.
type RejectionType string

const (
	RejectionTemporary RejectionType = "temporary"
	RejectionPermanent RejectionType = "permanent"
)

// Rejection is one reason a decision was not approved outright.
type Rejection struct {
	Reason string        `json:"reason"`
	Type   RejectionType `json:"type"`
}

// Decision is the outcome of evaluating one release during a search or sync.
type Decision struct {
	RemoteAlbum *RemoteAlbum
	Rejections  []Rejection
}

// Holdable reports whether d may be kept pending: only temporary rejections
// (a delay, a busy download client) clear on their own. An unknown type
// counts as permanent.
func (d Decision) Holdable() bool {
	for _, r := range d.Rejections {
		if r.Type != RejectionTemporary {
			return false
		}
	}
	return true
}

// PendingDecision pairs a decision with the reason it is held.
type PendingDecision struct {
	Decision Decision
	Reason   Reason
}

// QueueItem is one row of the projected download queue.
type QueueItem struct {
	ID                      int64
	CandidateID             int64
	Artist                  catalog.Artist
	Album                   *catalog.Album
	Quality                 quality.Model
	Title                   string
	Size                    int64
	Sizeleft                int64
	Timeleft                time.Duration
	EstimatedCompletionTime time.Time
	Added                   time.Time
	Status                  string
	Reason                  Reason
	Protocol                release.Protocol
	Indexer                 string
	CustomFormatScore       int
	ErrorMessage            string
}

// AlbumID is the target album id, zero for unresolved items.
func (q QueueItem) AlbumID() int64 {
	if q.Album == nil {
		return 0
	}
	return q.Album.ID
}
