package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Health captures database diagnostics for the health command.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	MissingTables    []string
	PendingReleases  int
	IntegrityCheck   bool
	Error            string
}

// CheckHealth returns diagnostic information about the crate database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	var present []string
	if err := s.db.SelectContext(connCtx, &present, "SELECT name FROM sqlite_master WHERE type = 'table'"); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("list tables: %w", err)
	}
	missing := make(map[string]struct{}, len(Tables))
	for _, name := range Tables {
		missing[name] = struct{}{}
	}
	for _, name := range present {
		delete(missing, name)
	}
	for name := range missing {
		health.MissingTables = append(health.MissingTables, name)
	}
	sort.Strings(health.MissingTables)

	if _, ok := missing["schema_version"]; !ok {
		if err := s.db.GetContext(connCtx, &health.SchemaVersion, "SELECT version FROM schema_version LIMIT 1"); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("read schema version: %w", err)
		}
	}
	if _, ok := missing["pending_releases"]; !ok {
		if err := s.db.GetContext(connCtx, &health.PendingReleases, "SELECT COUNT(*) FROM pending_releases"); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count pending releases: %w", err)
		}
	}

	var integrityResult string
	if err := s.db.GetContext(connCtx, &integrityResult, "PRAGMA integrity_check"); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

// Healthy reports whether the diagnostics found nothing wrong.
func (h Health) Healthy() bool {
	return h.DatabaseExists && h.DatabaseReadable && h.IntegrityCheck &&
		len(h.MissingTables) == 0 && h.SchemaVersion == SchemaVersion && h.Error == ""
}
