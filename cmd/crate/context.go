package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"crate/internal/catalog"
	"crate/internal/config"
	"crate/internal/delay"
	"crate/internal/events"
	"crate/internal/formats"
	"crate/internal/logging"
	"crate/internal/metrics"
	"crate/internal/notifications"
	"crate/internal/parser"
	"crate/internal/pending"
	"crate/internal/schedule"
	"crate/internal/store"
)

type commandContext struct {
	configFlag  *string
	metricsFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, metricsFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		metricsFlag: metricsFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) metricsPath() string {
	if c.metricsFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.metricsFlag)
}

// app is the wired object graph one command runs against.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	catalog  *catalog.Repository
	delays   *delay.Repository
	mapper   *parser.AlbumMapper
	schedule *schedule.Service
	pending  *pending.Service
	bus      *events.Bus
	notifier notifications.Service
	registry *prometheus.Registry
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		catalog:  catalog.NewRepository(st, logger),
		delays:   delay.NewRepository(st),
		schedule: schedule.NewService(st),
		bus:      events.NewBus(logger),
		notifier: notifications.NewService(cfg),
		registry: prometheus.NewRegistry(),
	}

	a.mapper = parser.NewAlbumMapper(a.catalog)

	if _, err := a.catalog.EnsureDefaultQualityProfile(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	interval := time.Duration(cfg.Indexers.RSSSyncInterval) * time.Minute
	if err := a.schedule.Register(ctx, schedule.RSSSync, interval); err != nil {
		_ = st.Close()
		return nil, err
	}

	svc, err := pending.NewService(pending.Options{
		MinimumAge:      time.Duration(cfg.Indexers.MinimumAge) * time.Minute,
		RSSSyncInterval: interval,
	}, pending.Dependencies{
		Repository: pending.NewSQLRepository(st),
		Artists:    a.catalog,
		Mapper:     a.mapper,
		Augmenter:  formats.NewTermAugmenter(cfg.Formats.PreferredTerms),
		Delays:     delay.NewService(a.delays),
		Schedule:   a.schedule,
		Publisher:  a.bus,
		Metrics:    metrics.NewPending(a.registry),
		Logger:     logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a.pending = svc
	svc.Subscribe(a.bus)
	notifications.Subscribe(a.bus, cfg, a.notifier)
	return a, nil
}

func (a *app) close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

// withApp wires the app, runs fn and tears everything down. Failures are
// pushed to ntfy when error notifications are enabled, and metrics are
// written when --metrics-file is set.
func (c *commandContext) withApp(cmd *cobra.Command, fn func(*app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	runErr := fn(a)
	if runErr != nil && cfg.Notifications.Errors {
		if notifyErr := a.notifier.NotifyError(ctx, runErr, cmd.CommandPath()); notifyErr != nil {
			logging.WithContext(ctx, a.logger).Warn("error notification failed", logging.Error(notifyErr))
		}
	}

	if path := c.metricsPath(); path != "" {
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil && runErr == nil {
			runErr = fmt.Errorf("write metrics: %w", err)
		}
	}
	return runErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
