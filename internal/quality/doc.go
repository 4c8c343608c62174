// Package quality models audio quality tiers, their revisions and the
// per-artist profiles that rank them.
package quality
