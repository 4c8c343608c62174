package textutil

import (
	"math"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"case and punctuation", "OK Computer!", "okcomputer"},
		{"diacritics", "Beyoncé", "beyonce"},
		{"leading article", "The Dark Side of the Moon", "darksideofthemoon"},
		{"ampersand", "Simon & Garfunkel", "simonandgarfunkel"},
		{"only article", "The", "the"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.in); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHumanize(t *testing.T) {
	if got := Humanize("download_client_unavailable"); got != "Download Client Unavailable" {
		t.Errorf("Humanize() = %q", got)
	}
}

func TestTitleSimilarity(t *testing.T) {
	if got := TitleSimilarity("In Rainbows", "in rainbows"); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical titles = %v, want 1", got)
	}
	if got := TitleSimilarity("In Rainbows", "Kid A"); got != 0 {
		t.Errorf("disjoint titles = %v, want 0", got)
	}
	got := TitleSimilarity("In Rainbows (Disk 2)", "In Rainbows")
	if got <= 0.5 || got >= 1 {
		t.Errorf("partial overlap = %v, want between 0.5 and 1", got)
	}
	if got := TitleSimilarity("", "In Rainbows"); got != 0 {
		t.Errorf("empty title = %v, want 0", got)
	}
}
