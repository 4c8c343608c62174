// Package release holds indexer release descriptors and the parsed metadata
// attached to them, plus the matching rule that decides whether two
// descriptors name the same release.
package release
