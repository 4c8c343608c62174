package pending_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"crate/internal/catalog"
	"crate/internal/delay"
	"crate/internal/events"
	"crate/internal/formats"
	"crate/internal/logging"
	"crate/internal/metrics"
	"crate/internal/parser"
	"crate/internal/pending"
	"crate/internal/quality"
	"crate/internal/release"
	"crate/internal/testsupport"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeSchedule struct {
	next time.Time
	err  error
}

func (f *fakeSchedule) NextExecution(context.Context, string) (time.Time, error) {
	return f.next, f.err
}

type recorder struct {
	mu     sync.Mutex
	events []events.PendingReleasesUpdated
}

func (r *recorder) Publish(_ context.Context, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if updated, ok := ev.(events.PendingReleasesUpdated); ok {
		r.events = append(r.events, updated)
	}
}

func (r *recorder) snapshot() []events.PendingReleasesUpdated {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.PendingReleasesUpdated(nil), r.events...)
}

// flakyMapper fails for one release title and defers to the real mapper
// otherwise.
type flakyMapper struct {
	inner  pending.AlbumMapper
	failOn string
}

func (m *flakyMapper) MapAlbums(ctx context.Context, artist catalog.Artist, parsed release.ParsedAlbumInfo) ([]catalog.Album, error) {
	if parsed.AlbumTitle == m.failOn {
		return nil, errors.New("ambiguous parse")
	}
	return m.inner.MapAlbums(ctx, artist, parsed)
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	svc      *pending.Service
	repo     *pending.SQLRepository
	catalog  *catalog.Repository
	delays   *delay.Repository
	schedule *fakeSchedule
	events   *recorder
	registry *prometheus.Registry
	now      time.Time
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	opts   pending.Options
	failOn string
	terms  map[string]int
}

func withMinimumAge(d time.Duration) harnessOption {
	return func(c *harnessConfig) { c.opts.MinimumAge = d }
}

func withFailingTitle(title string) harnessOption {
	return func(c *harnessConfig) { c.failOn = title }
}

func withTerms(terms map[string]int) harnessOption {
	return func(c *harnessConfig) { c.terms = terms }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := harnessConfig{opts: pending.Options{RSSSyncInterval: 15 * time.Minute}}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	catalogRepo := testsupport.NewCatalog(t, st)
	delayRepo := delay.NewRepository(st)
	repo := pending.NewSQLRepository(st)

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		repo:     repo,
		catalog:  catalogRepo,
		delays:   delayRepo,
		schedule: &fakeSchedule{next: baseTime.Add(30 * time.Minute)},
		events:   &recorder{},
		registry: prometheus.NewRegistry(),
		now:      baseTime.Add(10 * time.Minute),
	}

	var mapper pending.AlbumMapper = parser.NewAlbumMapper(catalogRepo)
	if cfg.failOn != "" {
		mapper = &flakyMapper{inner: mapper, failOn: cfg.failOn}
	}

	svc, err := pending.NewService(cfg.opts, pending.Dependencies{
		Repository: repo,
		Artists:    catalogRepo,
		Mapper:     mapper,
		Augmenter:  formats.NewTermAugmenter(cfg.terms),
		Delays:     delay.NewService(delayRepo),
		Schedule:   h.schedule,
		Publisher:  h.events,
		Metrics:    metrics.NewPending(h.registry),
		Logger:     logging.NewNop(),
		Clock:      func() time.Time { return h.now },
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) artist(name string, tags ...int) catalog.Artist {
	h.t.Helper()
	artist := testsupport.SeedArtist(h.t, h.catalog, name, tags...)
	loaded, err := h.catalog.GetByID(h.ctx, artist.ID)
	require.NoError(h.t, err)
	return loaded
}

func (h *harness) album(artist catalog.Artist, title string) catalog.Album {
	h.t.Helper()
	return testsupport.SeedAlbum(h.t, h.catalog, artist.ID, title)
}

func (h *harness) setDefaultDelay(usenetMinutes, torrentMinutes int, preferred release.Protocol) {
	h.t.Helper()
	require.NoError(h.t, h.delays.UpdateDefault(h.ctx, delay.Profile{
		EnableUsenet:      true,
		EnableTorrent:     true,
		PreferredProtocol: preferred,
		UsenetDelay:       usenetMinutes,
		TorrentDelay:      torrentMinutes,
	}))
}

func (h *harness) reconcile(decisions ...pending.PendingDecision) {
	h.t.Helper()
	require.NoError(h.t, h.svc.Reconcile(h.ctx, decisions))
}

func (h *harness) stored() []pending.Release {
	h.t.Helper()
	all, err := h.repo.All(h.ctx)
	require.NoError(h.t, err)
	return all
}

type releaseSpec struct {
	title     string
	indexer   string
	protocol  release.Protocol
	quality   quality.Quality
	published time.Time
	size      int64
}

func (s releaseSpec) withDefaults() releaseSpec {
	if s.indexer == "" {
		s.indexer = "Redacted"
	}
	if s.protocol == "" {
		s.protocol = release.ProtocolUsenet
	}
	if s.quality.ID == 0 && s.quality.Name == "" {
		s.quality = quality.FLAC
	}
	if s.published.IsZero() {
		s.published = baseTime
	}
	if s.size == 0 {
		s.size = 350 << 20
	}
	return s
}

// remote builds a resolved release covering albums.
func remote(artist catalog.Artist, spec releaseSpec, albums ...catalog.Album) *pending.RemoteAlbum {
	spec = spec.withDefaults()
	albumTitle := ""
	if len(albums) > 0 {
		albumTitle = albums[0].Title
	}
	return &pending.RemoteAlbum{
		Artist: artist,
		Albums: albums,
		ParsedAlbumInfo: release.ParsedAlbumInfo{
			ArtistName: artist.Name,
			AlbumTitle: albumTitle,
			Quality:    quality.NewModel(spec.quality),
		},
		Release: release.Info{
			GUID:        spec.indexer + "-" + spec.title,
			Title:       spec.title,
			Size:        spec.size,
			Indexer:     spec.indexer,
			Protocol:    spec.protocol,
			PublishDate: spec.published,
		},
	}
}

func held(r *pending.RemoteAlbum, reason pending.Reason) pending.PendingDecision {
	return pending.PendingDecision{Decision: pending.Decision{RemoteAlbum: r}, Reason: reason}
}

// insertRaw stores a release directly, bypassing reconciliation.
func (h *harness) insertRaw(r *pending.RemoteAlbum, reason pending.Reason) pending.Release {
	h.t.Helper()
	row := &pending.Release{
		ArtistID:        r.Artist.ID,
		Title:           r.Release.Title,
		Added:           h.now,
		ParsedAlbumInfo: r.ParsedAlbumInfo,
		Release:         r.Release,
		Reason:          reason,
	}
	require.NoError(h.t, h.repo.Insert(h.ctx, row))
	return *row
}

// metric sums every series of the named counter or gauge whose labels
// include the given name/value pairs.
func (h *harness) metric(name string, labels ...string) float64 {
	h.t.Helper()
	families, err := h.registry.Gather()
	require.NoError(h.t, err)

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	series:
		for _, m := range family.GetMetric() {
			for i := 0; i+1 < len(labels); i += 2 {
				found := false
				for _, pair := range m.GetLabel() {
					if pair.GetName() == labels[i] && pair.GetValue() == labels[i+1] {
						found = true
					}
				}
				if !found {
					continue series
				}
			}
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
	}
	return total
}
