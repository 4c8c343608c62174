package notifications

import (
	"context"

	"crate/internal/config"
	"crate/internal/events"
)

// Subscribe forwards pending-set changes to svc when the config opts in.
// Delivery failures surface through the bus's error logging.
func Subscribe(bus *events.Bus, cfg *config.Config, svc Service) {
	if bus == nil || svc == nil || cfg == nil || !cfg.Notifications.PendingChanges {
		return
	}
	events.On(bus, func(ctx context.Context, ev events.PendingReleasesUpdated) error {
		return svc.NotifyPendingChanged(ctx, ev)
	})
}
