package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crate/internal/pending"
	"crate/internal/store"
)

func seedCatalog(t *testing.T, env *cliTestEnv) {
	t.Helper()
	requireContains(t, env.run(t, "artist", "add", "Radiohead"), "Added artist 1: Radiohead")
	requireContains(t, env.run(t, "album", "add", "1", "OK Computer"), "Added album 1: OK Computer")
	requireContains(t, env.run(t, "album", "add", "1", "Kid A"), "Added album 2: Kid A")
}

func releaseJSON(title string, published time.Time) map[string]any {
	return map[string]any{
		"guid":        "guid-" + title,
		"title":       title,
		"size":        350 << 20,
		"indexer":     "Redacted",
		"protocol":    "usenet",
		"publishDate": published.Format(time.RFC3339),
	}
}

func reconcileFile(t *testing.T, env *cliTestEnv, published time.Time) string {
	t.Helper()
	return env.writeJSON(t, "batch.json", map[string]any{
		"decisions": []map[string]any{
			{
				"artistId": 1,
				"albumIds": []int{1},
				"reason":   "delay",
				"source":   "rss",
				"parsed": map[string]any{
					"artistName": "Radiohead",
					"albumTitle": "OK Computer",
					"quality":    map[string]any{"quality": map[string]any{"id": 6, "name": "FLAC"}, "revision": map[string]any{"version": 1}},
				},
				"release": releaseJSON("Radiohead - OK Computer [FLAC]", published),
			},
			{
				"artistId": 1,
				"reason":   "fallback",
				"parsed": map[string]any{
					"artistName": "Radiohead",
					"albumTitle": "Kid A",
					"quality":    map[string]any{"quality": map[string]any{"id": 4, "name": "MP3-320"}, "revision": map[string]any{"version": 1}},
				},
				"release": releaseJSON("Radiohead - Kid A [MP3]", published),
			},
		},
	})
}

func TestPendingReconcileAndQueue(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)
	published := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	batch := reconcileFile(t, env, published)

	requireContains(t, env.run(t, "pending", "reconcile", batch), "Reconciled 2 decision(s)")
	requireContains(t, env.run(t, "pending", "reconcile", batch), "Reconciled 2 decision(s)")

	list := env.run(t, "pending", "list")
	requireContains(t, list, "Radiohead - OK Computer [FLAC]")
	requireContains(t, list, "Radiohead - Kid A [MP3]")
	requireContains(t, list, "Fallback")

	queue := env.run(t, "queue", "list")
	requireContains(t, queue, "OK Computer")
	requireNotContains(t, queue, "Kid A")

	var items []queueItemView
	if err := json.Unmarshal([]byte(env.run(t, "queue", "list", "--json")), &items); err != nil {
		t.Fatalf("decode queue json: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one queue item, got %d", len(items))
	}
	if items[0].ID != pending.QueueID(items[0].PendingID, 1) {
		t.Fatalf("unexpected queue id %d", items[0].ID)
	}
	if items[0].Status != "Delay" || items[0].Quality != "FLAC" {
		t.Fatalf("unexpected queue item %+v", items[0])
	}

	oldest := env.run(t, "pending", "oldest", "--artist", "1", "--album", "1")
	requireContains(t, oldest, published.Format(time.RFC3339))
	requireContains(t, oldest, "== Radiohead - OK Computer [FLAC] ==")
	requireContains(t, oldest, "[HELD] Delay")

	show := env.run(t, "queue", "show", itoa(items[0].ID))
	requireContains(t, show, "Radiohead - OK Computer [FLAC]")
	requireContains(t, show, "OK Computer")

	requireContains(t, env.run(t, "queue", "remove", itoa(items[0].ID)), "Removed 1 pending release(s)")
	requireContains(t, env.run(t, "queue", "list"), "Queue is empty")
	requireContains(t, env.run(t, "queue", "remove", itoa(items[0].ID)), "not found")
}

func TestPendingGrabbedAndRejected(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)
	published := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	env.run(t, "pending", "reconcile", reconcileFile(t, env, published))

	grab := env.writeJSON(t, "grab.json", map[string]any{
		"artistId": 1,
		"albumIds": []int{1},
		"quality":  "FLAC",
		"release":  releaseJSON("Radiohead - OK Computer [FLAC] WEB", published),
	})
	requireContains(t, env.run(t, "pending", "grabbed", grab), "Processed grab")
	requireNotContains(t, env.run(t, "pending", "list"), "OK Computer [FLAC]")

	reject := env.writeJSON(t, "reject.json", map[string]any{
		"releases": []map[string]any{releaseJSON("Radiohead - Kid A [MP3]", published)},
	})
	requireContains(t, env.run(t, "pending", "reject", reject), "Processed 1 rejected release(s)")
	requireContains(t, env.run(t, "pending", "list"), "No pending releases")
}

func TestArtistDeleteDropsPendingReleases(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)
	env.run(t, "pending", "reconcile", reconcileFile(t, env, time.Now().UTC().Add(-time.Hour)))

	requireContains(t, env.run(t, "artist", "delete", "1"), "Deleted 1 artist(s)")
	requireContains(t, env.run(t, "pending", "list"), "No pending releases")
	requireContains(t, env.run(t, "artist", "list"), "No artists")
}

func TestPendingReconcileRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)

	bad := env.writeJSON(t, "bad.json", map[string]any{
		"decisions": []map[string]any{{"artistId": 1, "reason": "later"}},
	})
	if _, _, err := runCLI(t, []string{"pending", "reconcile", bad}, env.configPath); err == nil {
		t.Fatal("expected error for unknown reason")
	}

	unknown := filepath.Join(env.baseDir, "unknown.json")
	if err := os.WriteFile(unknown, []byte(`{"decisions": [], "extra": true}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := runCLI(t, []string{"pending", "reconcile", unknown}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestPendingReconcileRespectsSyncLock(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)
	batch := reconcileFile(t, env, time.Now().UTC())

	lock := newHeldLock(t, filepath.Join(env.dataDir, "sync.lock"))
	defer lock()

	_, _, err := runCLI(t, []string{"pending", "reconcile", batch}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "another sync cycle") {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}

func TestMetricsFileWritten(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)
	metricsPath := filepath.Join(env.baseDir, "crate.prom")

	env.run(t, "--metrics-file", metricsPath, "pending", "reconcile", reconcileFile(t, env, time.Now().UTC()))

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(data), "crate_pending_inserted_total 2")
}

func TestPendingReconcileRefusesPermanentRejections(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)

	batch := env.writeJSON(t, "rejected.json", map[string]any{
		"decisions": []map[string]any{{
			"artistId":   1,
			"albumIds":   []int{1},
			"reason":     "delay",
			"release":    releaseJSON("Radiohead - OK Computer [FLAC]", time.Now().UTC()),
			"rejections": []map[string]any{{"reason": "Release is blocklisted", "type": "permanent"}},
		}},
	})
	_, _, err := runCLI(t, []string{"pending", "reconcile", batch}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "permanent rejection") {
		t.Fatalf("expected permanent rejection error, got %v", err)
	}
	requireContains(t, env.run(t, "pending", "list"), "No pending releases")
}

func TestPendingReconcileUnmatchedReleaseTwice(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)

	batch := env.writeJSON(t, "unmatched.json", map[string]any{
		"decisions": []map[string]any{{
			"artistId": 1,
			"reason":   "delay",
			"parsed": map[string]any{
				"artistName": "Radiohead",
				"albumTitle": "Hail to the Thief",
				"quality":    map[string]any{"quality": map[string]any{"id": 6, "name": "FLAC"}, "revision": map[string]any{"version": 1}},
			},
			"release": releaseJSON("Radiohead - Hail to the Thief [FLAC]", time.Now().UTC().Truncate(time.Second)),
		}},
	})
	env.run(t, "pending", "reconcile", batch)
	env.run(t, "pending", "reconcile", batch)

	list := env.run(t, "pending", "list")
	if n := strings.Count(list, "Hail to the Thief"); n != 1 {
		t.Fatalf("expected one pending row, found %d in %q", n, list)
	}
	requireContains(t, env.run(t, "queue", "list"), "Unable to find matching album(s)")
}

func TestPendingRejectSurfacesStoreFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	seedCatalog(t, env)

	st, err := store.OpenPath(filepath.Join(env.dataDir, "crate.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := st.DB().Exec("DROP TABLE pending_releases"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	_ = st.Close()

	reject := env.writeJSON(t, "reject.json", map[string]any{
		"releases": []map[string]any{releaseJSON("Radiohead - Kid A [MP3]", time.Now().UTC())},
	})
	out, _, err := runCLI(t, []string{"pending", "reject", reject}, env.configPath)
	if err == nil {
		t.Fatalf("expected reject to fail, got output %q", out)
	}
	requireNotContains(t, out, "Processed")
}
