// Package delay stores tag-scoped delay profiles and picks the one that
// governs an artist: the applicable profile with the lowest order, falling
// back to the untagged default.
package delay
