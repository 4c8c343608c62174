// Package pending holds releases that were accepted but not grabbed yet.
//
// Every held release carries a Reason. The Service reconciles each batch of
// held decisions against the stored set and projects the non-fallback
// releases into a per-album queue with estimated grab times. Lifecycle
// handlers drop releases once their artist is gone or a grab or sync makes
// them moot.
//
// Stored rows keep only the artist id and the parsed release. Albums, artist
// profiles and custom-format scores are resolved against the live catalog on
// every read, so a row never goes stale when the catalog changes.
package pending
