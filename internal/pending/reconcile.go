package pending

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"crate/internal/events"
	"crate/internal/logging"
	"crate/internal/services"
)

// Reconcile merges a batch of held decisions into the pending set.
//
// Decisions are grouped by artist. Each group is matched against one snapshot
// of that artist's pending releases: a matching release has its reason
// updated (never away from download_client_unavailable) and any extra matches
// deleted, otherwise the decision is inserted. Two decisions in one batch that
// both introduce the same release are both inserted; the next pass removes the
// duplicate.
func (s *Service) Reconcile(ctx context.Context, decisions []PendingDecision) error {
	ctx, logger := s.begin(ctx, "reconcile")
	started := time.Now()
	defer func() { s.metrics.ObserveReconcile(time.Since(started).Seconds()) }()

	groups, order, err := groupByArtist(decisions)
	if err != nil {
		return err
	}

	var summary events.PendingReleasesUpdated
	defer func() { s.publish(ctx, summary) }()

	for _, artistID := range order {
		group := groups[artistID]
		artistLogger := logger.With(logging.Int64(logging.FieldArtistID, artistID))
		if err := s.reconcileArtist(ctx, artistLogger, artistID, group, &summary); err != nil {
			return err
		}
	}

	logger.Info("reconciled pending releases",
		logging.Int("decisions", len(decisions)),
		logging.Int("inserted", summary.Inserted),
		logging.Int("updated", summary.Updated),
		logging.Int("deleted", summary.Deleted),
	)
	return nil
}

func groupByArtist(decisions []PendingDecision) (map[int64][]PendingDecision, []int64, error) {
	groups := make(map[int64][]PendingDecision)
	var order []int64
	for i, d := range decisions {
		remote := d.Decision.RemoteAlbum
		switch {
		case remote == nil:
			return nil, nil, services.Wrap(services.ErrValidation, "pending", "reconcile", fmt.Sprintf("decision %d has no remote album", i), nil)
		case remote.Artist.ID == 0:
			return nil, nil, services.Wrap(services.ErrValidation, "pending", "reconcile", fmt.Sprintf("decision %d has no artist", i), nil)
		case !d.Reason.Valid():
			return nil, nil, services.Wrap(services.ErrValidation, "pending", "reconcile", fmt.Sprintf("decision %d has unknown reason %q", i, d.Reason), nil)
		case !d.Decision.Holdable():
			return nil, nil, services.Wrap(services.ErrValidation, "pending", "reconcile", fmt.Sprintf("decision %d carries a permanent rejection", i), nil)
		}
		id := remote.Artist.ID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], d)
	}
	return groups, order, nil
}

func (s *Service) reconcileArtist(ctx context.Context, logger *slog.Logger, artistID int64, group []PendingDecision, summary *events.PendingReleasesUpdated) error {
	existing, err := s.repo.AllByArtistID(ctx, artistID)
	if err != nil {
		return err
	}

	known := make(map[string]*RemoteAlbum, len(group))
	for _, d := range group {
		title := d.Decision.RemoteAlbum.Release.Title
		if _, ok := known[title]; !ok {
			known[title] = d.Decision.RemoteAlbum
		}
	}
	pending, err := s.includeRemoteAlbums(ctx, logger, existing, known)
	if err != nil {
		return err
	}
	index := newCandidateIndex(pending)

	for _, d := range group {
		remote := d.Decision.RemoteAlbum
		matches := index.matching(remote)

		if len(matches) == 0 {
			if err := s.insert(ctx, remote, d.Reason); err != nil {
				return err
			}
			summary.Inserted++
			s.metrics.RecordInserted()
			logger.Debug("added pending release",
				logging.String(logging.FieldRelease, remote.Release.Title),
				logging.String(logging.FieldReason, d.Reason.String()),
				logging.Int("rejections", len(d.Decision.Rejections)),
			)
			continue
		}

		canonical := matches[0]
		if canonical.Reason != d.Reason {
			if canonical.Reason.Reclassifiable() {
				canonical.Reason = d.Reason
				if err := s.repo.Update(ctx, canonical); err != nil {
					return err
				}
				summary.Updated++
				s.metrics.RecordReasonUpdated(d.Reason.String())
				logger.Debug("updated pending release reason",
					logging.Int64(logging.FieldPendingID, canonical.ID),
					logging.String(logging.FieldReason, d.Reason.String()),
				)
			} else {
				logger.Debug("keeping pending release reason",
					logging.Int64(logging.FieldPendingID, canonical.ID),
					logging.String(logging.FieldReason, canonical.Reason.String()),
					logging.String("requested", d.Reason.String()),
				)
			}
		}

		if len(matches) > 1 {
			extra := make([]int64, 0, len(matches)-1)
			for _, m := range matches[1:] {
				extra = append(extra, m.ID)
			}
			if err := s.repo.DeleteMany(ctx, extra); err != nil {
				return err
			}
			summary.Deleted += len(extra)
			s.metrics.RecordDuplicatesRemoved(len(extra))
			logger.Info("removed duplicate pending releases",
				logging.String(logging.FieldRelease, remote.Release.Title),
				logging.Int("count", len(extra)),
			)
			pending = withoutIDs(pending, extra)
			index = newCandidateIndex(pending)
		}
	}
	return nil
}

func (s *Service) insert(ctx context.Context, remote *RemoteAlbum, reason Reason) error {
	r := &Release{
		ArtistID:        remote.Artist.ID,
		Title:           remote.Release.Title,
		Added:           s.now(),
		ParsedAlbumInfo: remote.ParsedAlbumInfo,
		Release:         remote.Release,
		Reason:          reason,
		AdditionalInfo:  AdditionalInfo{ReleaseSource: remote.ReleaseSource},
	}
	return s.repo.Insert(ctx, r)
}

// candidateIndex looks up an artist's pending releases by the albums they
// cover. Releases that resolve to no album are kept aside so a decision can
// still match them by descriptor.
type candidateIndex struct {
	byAlbum    map[int64][]*Release
	unresolved []*Release
	all        []*Release
}

func newCandidateIndex(releases []Release) candidateIndex {
	index := candidateIndex{byAlbum: make(map[int64][]*Release)}
	for i := range releases {
		r := &releases[i]
		index.all = append(index.all, r)
		if r.RemoteAlbum == nil || len(r.RemoteAlbum.Albums) == 0 {
			index.unresolved = append(index.unresolved, r)
			continue
		}
		for _, album := range r.RemoteAlbum.Albums {
			index.byAlbum[album.ID] = append(index.byAlbum[album.ID], r)
		}
	}
	return index
}

// matching returns the distinct releases whose descriptor matches remote's,
// earliest id first. Candidates are those covering any of remote's albums plus
// the unresolved ones; a remote without albums is checked against every
// release of the artist.
func (x candidateIndex) matching(remote *RemoteAlbum) []*Release {
	var pool []*Release
	if len(remote.Albums) == 0 {
		pool = x.all
	} else {
		for _, album := range remote.Albums {
			pool = append(pool, x.byAlbum[album.ID]...)
		}
		pool = append(pool, x.unresolved...)
	}

	seen := make(map[int64]bool, len(pool))
	var matches []*Release
	for _, candidate := range pool {
		if seen[candidate.ID] {
			continue
		}
		seen[candidate.ID] = true
		if candidate.Release.Matches(remote.Release) {
			matches = append(matches, candidate)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches
}

func withoutIDs(releases []Release, ids []int64) []Release {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]Release, 0, len(releases))
	for _, r := range releases {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	return kept
}
