// Package parser maps parsed release metadata onto catalog albums.
//
// Titles are compared through textutil's folded clean keys first and a word
// similarity second. Raw release-title parsing happens upstream; this package
// only resolves already-parsed artist and album names.
package parser
