package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var leadingArticles = []string{"the ", "a ", "an "}

// Fold lowercases text with Unicode case folding and strips diacritics, so
// "Beyoncé" and "BEYONCE" fold to the same value.
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	return cases.Fold().String(stripped)
}

// Words folds text and splits it on anything that is not a letter or digit.
// "&" is read as "and".
func Words(text string) []string {
	folded := Fold(strings.ReplaceAll(text, "&", " and "))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CleanTitle reduces an artist or album title to a comparison key: folded,
// punctuation and spacing removed, a leading article dropped.
func CleanTitle(title string) string {
	joined := strings.Join(Words(title), " ")
	for _, article := range leadingArticles {
		if trimmed, ok := strings.CutPrefix(joined, article); ok && trimmed != "" {
			joined = trimmed
			break
		}
	}
	return strings.ReplaceAll(joined, " ", "")
}

// Humanize turns a snake_case identifier into title-cased words.
func Humanize(identifier string) string {
	spaced := strings.ReplaceAll(strings.TrimSpace(identifier), "_", " ")
	return cases.Title(language.English).String(spaced)
}
