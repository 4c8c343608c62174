package quality

// Comparer ranks quality models against one profile. Qualities in the same
// group rank equally; revisions break the remaining ties.
type Comparer struct {
	profile Profile
}

func NewComparer(profile Profile) Comparer {
	return Comparer{profile: profile}
}

// CompareQuality returns -1, 0 or 1 as a ranks below, equal to or above b.
func (c Comparer) CompareQuality(a, b Quality) int {
	return c.profile.IndexOf(a).Compare(c.profile.IndexOf(b))
}

// Compare ranks full models.
func (c Comparer) Compare(a, b Model) int {
	if r := c.CompareQuality(a.Quality, b.Quality); r != 0 {
		return r
	}
	return a.Revision.Compare(b.Revision)
}

// AtLeast reports whether a ranks equal to or above b.
func (c Comparer) AtLeast(a, b Model) bool {
	return c.Compare(a, b) >= 0
}
