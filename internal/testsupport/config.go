package testsupport

import (
	"path/filepath"
	"testing"

	"crate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMinimumAge sets the global minimum release age in minutes.
func WithMinimumAge(minutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Indexers.MinimumAge = minutes
	}
}

// WithRSSSyncInterval sets the feed sync interval in minutes.
func WithRSSSyncInterval(minutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Indexers.RSSSyncInterval = minutes
	}
}

// WithPreferredTerm adds a preferred-word score.
func WithPreferredTerm(term string, score int) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Formats.PreferredTerms == nil {
			b.cfg.Formats.PreferredTerms = map[string]int{}
		}
		b.cfg.Formats.PreferredTerms[term] = score
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
