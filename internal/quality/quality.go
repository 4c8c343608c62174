package quality

import (
	"fmt"
	"strings"
)

// Quality identifies an audio format tier. IDs are stable and persisted.
type Quality struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var (
	Unknown  = Quality{ID: 0, Name: "Unknown"}
	MP3192   = Quality{ID: 1, Name: "MP3-192"}
	MP3VBR   = Quality{ID: 2, Name: "MP3-VBR-V0"}
	MP3256   = Quality{ID: 3, Name: "MP3-256"}
	MP3320   = Quality{ID: 4, Name: "MP3-320"}
	MP3160   = Quality{ID: 5, Name: "MP3-160"}
	FLAC     = Quality{ID: 6, Name: "FLAC"}
	ALAC     = Quality{ID: 7, Name: "ALAC"}
	MP3VBRV2 = Quality{ID: 8, Name: "MP3-VBR-V2"}
	AAC192   = Quality{ID: 9, Name: "AAC-192"}
	AAC256   = Quality{ID: 10, Name: "AAC-256"}
	AAC320   = Quality{ID: 11, Name: "AAC-320"}
	AACVBR   = Quality{ID: 12, Name: "AAC-VBR"}
	WAV      = Quality{ID: 13, Name: "WAV"}
	FLAC24   = Quality{ID: 21, Name: "FLAC 24bit"}
	ALAC24   = Quality{ID: 37, Name: "ALAC 24bit"}
)

var allKnown = []Quality{
	Unknown, MP3160, MP3192, AAC192, MP3VBRV2, MP3256, AAC256, MP3VBR,
	AACVBR, MP3320, AAC320, FLAC, ALAC, WAV, FLAC24, ALAC24,
}

// All returns every known quality, lowest tier first.
func All() []Quality {
	out := make([]Quality, len(allKnown))
	copy(out, allKnown)
	return out
}

// FindByID returns the known quality with the given id.
func FindByID(id int) (Quality, bool) {
	for _, q := range allKnown {
		if q.ID == id {
			return q, true
		}
	}
	return Unknown, false
}

// FindByName matches a quality name case-insensitively.
func FindByName(name string) (Quality, error) {
	trimmed := strings.TrimSpace(name)
	for _, q := range allKnown {
		if strings.EqualFold(q.Name, trimmed) {
			return q, nil
		}
	}
	return Unknown, fmt.Errorf("unknown quality %q", name)
}

func (q Quality) String() string {
	if q.Name == "" {
		return fmt.Sprintf("quality(%d)", q.ID)
	}
	return q.Name
}

// Revision distinguishes re-releases of the same quality.
type Revision struct {
	Version  int  `json:"version"`
	Real     int  `json:"real"`
	IsRepack bool `json:"isRepack,omitempty"`
}

// Compare orders revisions by version, then by real count.
func (r Revision) Compare(other Revision) int {
	switch {
	case r.Version != other.Version:
		return compareInt(r.Version, other.Version)
	default:
		return compareInt(r.Real, other.Real)
	}
}

// Model is a quality plus its revision, as parsed from a release title.
type Model struct {
	Quality  Quality  `json:"quality"`
	Revision Revision `json:"revision"`
}

// NewModel returns a first-version model for q.
func NewModel(q Quality) Model {
	return Model{Quality: q, Revision: Revision{Version: 1}}
}

func (m Model) String() string {
	if m.Revision.Version > 1 {
		return fmt.Sprintf("%s v%d", m.Quality, m.Revision.Version)
	}
	return m.Quality.String()
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
