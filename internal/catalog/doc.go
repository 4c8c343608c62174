// Package catalog persists the artists, albums and quality profiles that
// pending releases resolve against.
package catalog
