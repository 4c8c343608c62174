package pending

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"crate/internal/catalog"
	"crate/internal/delay"
	"crate/internal/events"
	"crate/internal/logging"
	"crate/internal/metrics"
	"crate/internal/quality"
	"crate/internal/release"
	"crate/internal/schedule"
	"crate/internal/services"
)

// QueueIDVersion identifies the hash behind QueueID. Changing the hash
// invalidates queue ids held by clients.
const QueueIDVersion = 1

// NoMatchMessage annotates queue items whose release resolved to no album.
const NoMatchMessage = "Unable to find matching album(s)"

// QueueID derives the queue id of a pending release's row for one album:
// SHA-1 of "pending-{candidateID}-target{albumID}", first four bytes read
// little-endian, masked to 31 bits. Unresolved rows use albumID 0.
func QueueID(candidateID, albumID int64) int64 {
	sum := sha1.Sum([]byte(fmt.Sprintf("pending-%d-target%d", candidateID, albumID)))
	return int64(binary.LittleEndian.Uint32(sum[:4]) & 0x7fffffff)
}

// projection caches per-pass lookups so each artist's delay profile is read
// once.
type projection struct {
	svc      *Service
	now      time.Time
	nextSync time.Time
	profiles map[int64]delay.Profile
}

// Project builds the visible queue from every non-fallback pending release,
// keeping at most one item per album.
func (s *Service) Project(ctx context.Context) ([]QueueItem, error) {
	ctx, logger := s.begin(ctx, "project")

	releases, err := s.visibleReleases(ctx, logger)
	if err != nil {
		return nil, err
	}
	nextSync, err := s.schedule.NextExecution(ctx, schedule.RSSSync)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pending", "project", "read next feed sync", err)
	}

	p := &projection{svc: s, now: s.now(), nextSync: nextSync, profiles: map[int64]delay.Profile{}}
	var items []QueueItem
	for i := range releases {
		r := &releases[i]
		if len(r.RemoteAlbum.Albums) == 0 {
			item, err := p.item(ctx, r, nil)
			if err != nil {
				return nil, err
			}
			item.ErrorMessage = NoMatchMessage
			items = append(items, item)
			continue
		}
		for j := range r.RemoteAlbum.Albums {
			item, err := p.item(ctx, r, &r.RemoteAlbum.Albums[j])
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	collapsed, err := p.bestPerAlbum(ctx, items)
	if err != nil {
		return nil, err
	}
	s.metrics.SetQueueItems(len(collapsed))
	logger.Debug("projected pending queue", logging.Int("releases", len(releases)), logging.Int("items", len(collapsed)))
	return collapsed, nil
}

func (s *Service) visibleReleases(ctx context.Context, logger *slog.Logger) ([]Release, error) {
	stored, err := s.repo.AllExcludingReason(ctx, ReasonFallback)
	if err != nil {
		return nil, err
	}
	return s.includeRemoteAlbums(ctx, logger, stored, nil)
}

func (p *projection) profile(ctx context.Context, artist catalog.Artist) (delay.Profile, error) {
	if profile, ok := p.profiles[artist.ID]; ok {
		return profile, nil
	}
	profile, err := p.svc.delays.BestForTags(ctx, artist.Tags)
	if err != nil {
		return delay.Profile{}, err
	}
	p.profiles[artist.ID] = profile
	return profile, nil
}

// releaseDelay is the protocol delay of the artist's profile, floored at the
// configured minimum age.
func (p *projection) releaseDelay(ctx context.Context, artist catalog.Artist, protocol release.Protocol) (time.Duration, error) {
	profile, err := p.profile(ctx, artist)
	if err != nil {
		return 0, err
	}
	return max(profile.Delay(protocol), p.svc.opts.MinimumAge), nil
}

// estimate is when the release will be grabbed: when its delay ends, pulled
// forward to the next sync if that comes later, otherwise pushed one sync
// interval out since the grab waits for a sync.
func (p *projection) estimate(publish time.Time, wait time.Duration) time.Time {
	ect := publish.Add(wait)
	if ect.Before(p.nextSync) {
		return p.nextSync
	}
	return ect.Add(p.svc.opts.RSSSyncInterval)
}

func (p *projection) item(ctx context.Context, r *Release, album *catalog.Album) (QueueItem, error) {
	remote := r.RemoteAlbum
	wait, err := p.releaseDelay(ctx, remote.Artist, r.Release.Protocol)
	if err != nil {
		return QueueItem{}, err
	}
	ect := p.estimate(r.Release.PublishDate, wait)

	var albumID int64
	if album != nil {
		albumID = album.ID
	}
	return QueueItem{
		ID:                      QueueID(r.ID, albumID),
		CandidateID:             r.ID,
		Artist:                  remote.Artist,
		Album:                   album,
		Quality:                 r.ParsedAlbumInfo.Quality,
		Title:                   r.Title,
		Size:                    r.Release.Size,
		Sizeleft:                r.Release.Size,
		Timeleft:                max(ect.Sub(p.now), 0),
		EstimatedCompletionTime: ect,
		Added:                   r.Added,
		Status:                  r.Reason.Label(),
		Reason:                  r.Reason,
		Protocol:                r.Release.Protocol,
		Indexer:                 r.Release.Indexer,
		CustomFormatScore:       remote.CustomFormatScore,
	}, nil
}

// bestPerAlbum keeps the highest-quality item per album, ranked by the
// artist's quality profile with the preferred protocol breaking ties. Groups
// keep the order of their first item. Unresolved items are never merged.
func (p *projection) bestPerAlbum(ctx context.Context, items []QueueItem) ([]QueueItem, error) {
	groups := make(map[int64][]QueueItem)
	var order []int64
	var result []QueueItem
	slots := make(map[int64]int)

	for _, item := range items {
		if item.Album == nil {
			result = append(result, item)
			continue
		}
		id := item.Album.ID
		if _, ok := groups[id]; !ok {
			order = append(order, id)
			slots[id] = len(result)
			result = append(result, QueueItem{})
		}
		groups[id] = append(groups[id], item)
	}

	for _, id := range order {
		group := groups[id]
		best := group[0]
		for _, candidate := range group[1:] {
			better, err := p.outranks(ctx, candidate, best)
			if err != nil {
				return nil, err
			}
			if better {
				best = candidate
			}
		}
		result[slots[id]] = best
	}
	return result, nil
}

// outranks reports whether a sorts strictly before b.
func (p *projection) outranks(ctx context.Context, a, b QueueItem) (bool, error) {
	cmp := quality.NewComparer(a.Artist.QualityProfile)
	if c := cmp.Compare(a.Quality, b.Quality); c != 0 {
		return c > 0, nil
	}
	profile, err := p.profile(ctx, a.Artist)
	if err != nil {
		return false, err
	}
	aPreferred := a.Protocol == profile.PreferredProtocol
	bPreferred := b.Protocol == profile.PreferredProtocol
	return aPreferred && !bPreferred, nil
}

// FindByQueueID returns the pending release behind a projected queue id, or
// nil when no visible release produces it.
func (s *Service) FindByQueueID(ctx context.Context, queueID int64) (*Release, error) {
	ctx, logger := s.begin(ctx, "find")
	releases, err := s.visibleReleases(ctx, logger)
	if err != nil {
		return nil, err
	}
	for i := range releases {
		r := &releases[i]
		if matchesQueueID(r, queueID) {
			return r, nil
		}
	}
	return nil, nil
}

func matchesQueueID(r *Release, queueID int64) bool {
	if len(r.RemoteAlbum.Albums) == 0 {
		return QueueID(r.ID, 0) == queueID
	}
	for _, album := range r.RemoteAlbum.Albums {
		if QueueID(r.ID, album.ID) == queueID {
			return true
		}
	}
	return false
}

// RemoveQueueItems deletes the release behind queueID together with every
// release of the same artist that resolves to exactly the same albums. An
// unresolved release is removed on its own. Unknown ids are a no-op.
func (s *Service) RemoveQueueItems(ctx context.Context, queueID int64) error {
	ctx, logger := s.begin(ctx, "remove")
	target, err := s.FindByQueueID(ctx, queueID)
	if err != nil {
		return err
	}
	if target == nil {
		logger.Debug("queue item not found", logging.Int64("queue_id", queueID))
		return nil
	}

	ids := []int64{target.ID}
	if len(target.RemoteAlbum.Albums) > 0 {
		stored, err := s.repo.AllByArtistID(ctx, target.ArtistID)
		if err != nil {
			return err
		}
		siblings, err := s.includeRemoteAlbums(ctx, logger, stored, nil)
		if err != nil {
			return err
		}
		want := albumSet(target.RemoteAlbum.Albums)
		for _, r := range siblings {
			if r.ID != target.ID && sameAlbums(want, r.RemoteAlbum.Albums) {
				ids = append(ids, r.ID)
			}
		}
	}

	if err := s.repo.DeleteMany(ctx, ids); err != nil {
		return err
	}
	s.metrics.RecordDeleted(metrics.TriggerRemoved, len(ids))
	s.publish(ctx, events.PendingReleasesUpdated{Deleted: len(ids)})
	logger.Info("removed pending releases from queue",
		logging.Int64("queue_id", queueID),
		logging.Int64(logging.FieldArtistID, target.ArtistID),
		logging.Int("count", len(ids)),
	)
	return nil
}

func albumSet(albums []catalog.Album) map[int64]bool {
	set := make(map[int64]bool, len(albums))
	for _, a := range albums {
		set[a.ID] = true
	}
	return set
}

func sameAlbums(want map[int64]bool, albums []catalog.Album) bool {
	got := albumSet(albums)
	if len(got) != len(want) || len(got) == 0 {
		return false
	}
	for id := range got {
		if !want[id] {
			return false
		}
	}
	return true
}
