package quality

import "fmt"

// ProfileItem is either a single quality or a named group of qualities that
// rank equally.
type ProfileItem struct {
	ID      int           `json:"id,omitempty"`
	Name    string        `json:"name,omitempty"`
	Quality *Quality      `json:"quality,omitempty"`
	Items   []ProfileItem `json:"items,omitempty"`
	Allowed bool          `json:"allowed"`
}

// Profile ranks qualities for an artist. Items are ordered lowest to highest.
type Profile struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Cutoff         int           `json:"cutoff"`
	UpgradeAllowed bool          `json:"upgradeAllowed"`
	Items          []ProfileItem `json:"items"`
}

// Index locates a quality within a profile. GroupIndex is the position inside
// a group and is ignored when ranking.
type Index struct {
	Index      int
	GroupIndex int
}

// Compare orders two indexes by top-level position only.
func (i Index) Compare(other Index) int {
	return compareInt(i.Index, other.Index)
}

// IndexOf returns the position of q. Qualities missing from the profile rank
// below everything, at index -1.
func (p Profile) IndexOf(q Quality) Index {
	for i, item := range p.Items {
		if item.Quality != nil {
			if item.Quality.ID == q.ID {
				return Index{Index: i}
			}
			continue
		}
		for g, member := range item.Items {
			if member.Quality != nil && member.Quality.ID == q.ID {
				return Index{Index: i, GroupIndex: g}
			}
		}
	}
	return Index{Index: -1}
}

// Allowed reports whether q may be grabbed under this profile.
func (p Profile) Allowed(q Quality) bool {
	for _, item := range p.Items {
		if item.Quality != nil {
			if item.Quality.ID == q.ID {
				return item.Allowed
			}
			continue
		}
		for _, member := range item.Items {
			if member.Quality != nil && member.Quality.ID == q.ID {
				return item.Allowed && member.Allowed
			}
		}
	}
	return false
}

// Validate checks that every quality appears at most once.
func (p Profile) Validate() error {
	if len(p.Items) == 0 {
		return fmt.Errorf("quality profile %q has no items", p.Name)
	}
	seen := map[int]bool{}
	check := func(q *Quality) error {
		if q == nil {
			return nil
		}
		if seen[q.ID] {
			return fmt.Errorf("quality profile %q lists %s more than once", p.Name, q.Name)
		}
		seen[q.ID] = true
		return nil
	}
	for _, item := range p.Items {
		if err := check(item.Quality); err != nil {
			return err
		}
		if item.Quality == nil && len(item.Items) == 0 {
			return fmt.Errorf("quality profile %q has an empty group %q", p.Name, item.Name)
		}
		for _, member := range item.Items {
			if err := check(member.Quality); err != nil {
				return err
			}
		}
	}
	return nil
}

func single(q Quality, allowed bool) ProfileItem {
	return ProfileItem{Quality: &q, Allowed: allowed}
}

func group(id int, name string, members ...Quality) ProfileItem {
	item := ProfileItem{ID: id, Name: name, Allowed: true}
	for _, q := range members {
		item.Items = append(item.Items, single(q, true))
	}
	return item
}

// DefaultProfile is the profile seeded for new libraries: lossy tiers grouped
// by bitrate, then lossless, then hi-res lossless.
func DefaultProfile(name string) Profile {
	if name == "" {
		name = "Standard"
	}
	return Profile{
		Name:           name,
		Cutoff:         FLAC.ID,
		UpgradeAllowed: true,
		Items: []ProfileItem{
			single(Unknown, false),
			group(1000, "Low Quality Lossy", MP3160, MP3192, AAC192),
			group(1001, "Mid Quality Lossy", MP3VBRV2, MP3256, AAC256),
			group(1002, "High Quality Lossy", MP3VBR, AACVBR, MP3320, AAC320),
			group(1003, "Lossless", FLAC, ALAC, WAV),
			group(1004, "Hi-Res Lossless", FLAC24, ALAC24),
		},
	}
}
