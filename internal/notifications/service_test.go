package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"crate/internal/config"
	"crate/internal/events"
	"crate/internal/logging"
	"crate/internal/notifications"
)

type captured struct {
	mu       sync.Mutex
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, c *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		_ = r.Body.Close()

		c.mu.Lock()
		c.calls++
		c.title = r.Header.Get("Title")
		c.tags = r.Header.Get("Tags")
		c.priority = r.Header.Get("Priority")
		c.body = string(body)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPendingChanged(context.Background(), events.PendingReleasesUpdated{Inserted: 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "pending changed",
			send: func(svc notifications.Service) error {
				return svc.NotifyPendingChanged(context.Background(), events.PendingReleasesUpdated{
					Operation: "reconcile",
					Inserted:  2,
					Deleted:   1,
				})
			},
			expectTitle:    "Crate - Pending Updated",
			expectMessage:  "Pending releases: 2 added, 1 removed (reconcile)",
			expectTags:     "crate,pending,updated",
			expectPriority: "low",
		},
		{
			name: "error",
			send: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("database is locked"), "reconcile")
			},
			expectTitle:    "Crate - Error",
			expectMessage:  "❌ Error with reconcile: database is locked",
			expectTags:     "crate,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(svc notifications.Service) error { return svc.TestNotification(context.Background()) },
			expectTitle:    "Crate - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "crate,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			server := newServer(t, &got)

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestSubscribeForwardsPendingChanges(t *testing.T) {
	var got captured
	server := newServer(t, &got)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.PendingChanges = true

	bus := events.NewBus(logging.NewNop())
	notifications.Subscribe(bus, &cfg, notifications.NewService(&cfg))

	bus.Publish(context.Background(), events.PendingReleasesUpdated{Operation: "grabbed", Deleted: 3})
	bus.Publish(context.Background(), events.PendingReleasesUpdated{Operation: "grabbed"})
	bus.Publish(context.Background(), events.ArtistsDeleted{ArtistIDs: []int64{1}})

	if got.calls != 1 {
		t.Fatalf("expected one notification, got %d", got.calls)
	}
	if got.body != "Pending releases: 3 removed (grabbed)" {
		t.Fatalf("unexpected message %q", got.body)
	}
}

func TestSubscribeHonorsOptOut(t *testing.T) {
	var got captured
	server := newServer(t, &got)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.PendingChanges = false

	bus := events.NewBus(logging.NewNop())
	notifications.Subscribe(bus, &cfg, notifications.NewService(&cfg))
	bus.Publish(context.Background(), events.PendingReleasesUpdated{Inserted: 1})

	if got.calls != 0 {
		t.Fatalf("expected no notifications, got %d", got.calls)
	}
}
