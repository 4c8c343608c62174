// Package formats computes a custom-format score for releases from the
// preferred terms configured under [formats].
package formats
