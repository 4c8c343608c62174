// Package logging assembles structured slog loggers and formatting helpers used
// across crate components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so pending-release code can tag log lines with
// artist IDs, operation names, and correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
