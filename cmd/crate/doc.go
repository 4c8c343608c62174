// Command crate manages pending music releases: the releases a search or feed
// sync accepted but held back, and the download queue projected from them.
//
// Every command opens the SQLite database named by the config, runs one
// operation and exits. Feed-sync batches arrive as JSON files; `pending
// reconcile` serializes them with a lock file so only one sync cycle runs at a
// time.
package main
