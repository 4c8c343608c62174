package catalog

import (
	"time"

	"crate/internal/quality"
)

// Artist is the owning entity of pending releases. QualityProfile is loaded
// alongside the row so callers can rank qualities without another query.
type Artist struct {
	ID               int64
	Name             string
	CleanName        string
	QualityProfileID int64
	QualityProfile   quality.Profile
	Tags             []int
	Monitored        bool
	Added            time.Time
}

// Album is a release target that belongs to one artist.
type Album struct {
	ID          int64
	ArtistID    int64
	Title       string
	CleanTitle  string
	ReleaseDate string
	Monitored   bool
}

type artistRow struct {
	ID               int64  `db:"id"`
	Name             string `db:"name"`
	CleanName        string `db:"clean_name"`
	QualityProfileID int64  `db:"quality_profile_id"`
	TagsJSON         string `db:"tags_json"`
	Monitored        int    `db:"monitored"`
	AddedAt          string `db:"added_at"`
}

type albumRow struct {
	ID          int64   `db:"id"`
	ArtistID    int64   `db:"artist_id"`
	Title       string  `db:"title"`
	CleanTitle  string  `db:"clean_title"`
	ReleaseDate *string `db:"release_date"`
	Monitored   int     `db:"monitored"`
}

type profileRow struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	Cutoff         int    `db:"cutoff"`
	UpgradeAllowed int    `db:"upgrade_allowed"`
	ItemsJSON      string `db:"items_json"`
}

var (
	artistColumns  = []string{"id", "name", "clean_name", "quality_profile_id", "tags_json", "monitored", "added_at"}
	albumColumns   = []string{"id", "artist_id", "title", "clean_title", "release_date", "monitored"}
	profileColumns = []string{"id", "name", "cutoff", "upgrade_allowed", "items_json"}
)
