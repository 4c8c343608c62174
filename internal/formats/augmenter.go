package formats

import (
	"sort"
	"strings"

	"crate/internal/catalog"
	"crate/internal/release"
	"crate/internal/textutil"
)

// TermAugmenter scores releases by the preferred terms their titles contain.
// Terms match whole words after folding, so "WEB" matches "[WEB]" but not
// "WEBRip".
type TermAugmenter struct {
	terms []term
}

type term struct {
	name  string
	words []string
	score int
}

// NewTermAugmenter builds an augmenter from term -> score pairs.
func NewTermAugmenter(preferred map[string]int) *TermAugmenter {
	terms := make([]term, 0, len(preferred))
	for name, score := range preferred {
		words := textutil.Words(name)
		if len(words) == 0 {
			continue
		}
		terms = append(terms, term{name: strings.TrimSpace(name), words: words, score: score})
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].name < terms[j].name })
	return &TermAugmenter{terms: terms}
}

// Score returns the summed score of matched terms and their names in order.
func (a *TermAugmenter) Score(_ catalog.Artist, parsed release.ParsedAlbumInfo, info release.Info) (int, []string) {
	if a == nil || len(a.terms) == 0 {
		return 0, nil
	}
	titleWords := textutil.Words(info.Title)
	if parsed.ReleaseGroup != "" {
		titleWords = append(titleWords, textutil.Words(parsed.ReleaseGroup)...)
	}

	total := 0
	var matched []string
	for _, t := range a.terms {
		if containsSequence(titleWords, t.words) {
			total += t.score
			matched = append(matched, t.name)
		}
	}
	return total, matched
}

func containsSequence(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, word := range needle {
			if haystack[i+j] != word {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
