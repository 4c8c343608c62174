// Package services defines shared utilities consumed by the pending release
// core and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp artist IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failures
//     classifiable (validation vs not found vs transient storage errors).
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform.
package services
