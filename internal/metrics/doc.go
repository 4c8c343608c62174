// Package metrics defines the Prometheus collectors for pending-release
// reconciliation and queue projection. Collectors register on a caller-supplied
// registry so the CLI and tests each get their own.
package metrics
