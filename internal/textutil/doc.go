// Package textutil normalizes artist and album titles for comparison.
//
// Titles are folded with golang.org/x/text (case folding plus diacritic
// removal) before being reduced to clean keys or word fingerprints. The
// fingerprints feed a cosine similarity used when an exact clean-title match
// is not available.
package textutil
