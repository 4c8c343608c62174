package release

import (
	"fmt"
	"strings"
	"time"

	"crate/internal/quality"
)

// Protocol is the transport a release is downloaded over.
type Protocol string

const (
	ProtocolUnknown Protocol = "unknown"
	ProtocolUsenet  Protocol = "usenet"
	ProtocolTorrent Protocol = "torrent"
)

// ParseProtocol normalizes a protocol name. Empty input maps to unknown.
func ParseProtocol(value string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "unknown":
		return ProtocolUnknown, nil
	case "usenet", "nzb":
		return ProtocolUsenet, nil
	case "torrent":
		return ProtocolTorrent, nil
	default:
		return ProtocolUnknown, fmt.Errorf("unknown protocol %q", value)
	}
}

// Info is the indexer-native descriptor of one release.
type Info struct {
	GUID            string    `json:"guid"`
	Title           string    `json:"title"`
	Size            int64     `json:"size"`
	DownloadURL     string    `json:"downloadUrl,omitempty"`
	InfoURL         string    `json:"infoUrl,omitempty"`
	Indexer         string    `json:"indexer"`
	IndexerID       int       `json:"indexerId"`
	IndexerPriority int       `json:"indexerPriority,omitempty"`
	Protocol        Protocol  `json:"protocol"`
	PublishDate     time.Time `json:"publishDate"`
}

// Matches reports whether two descriptors refer to the same physical release:
// same title, same publish instant, same indexer. Size and protocol are ignored
// so an indexer republishing identical metadata stays one release.
func (i Info) Matches(other Info) bool {
	return i.Title == other.Title &&
		i.PublishDate.Equal(other.PublishDate) &&
		i.Indexer == other.Indexer
}

// Age is how long ago the release was published.
func (i Info) Age(now time.Time) time.Duration {
	if i.PublishDate.IsZero() {
		return 0
	}
	return now.Sub(i.PublishDate)
}

func (i Info) String() string {
	return fmt.Sprintf("[%s] %s", i.Indexer, i.Title)
}

// ParsedAlbumInfo is the structured metadata extracted from a release title.
type ParsedAlbumInfo struct {
	ArtistName   string        `json:"artistName"`
	AlbumTitle   string        `json:"albumTitle"`
	ReleaseGroup string        `json:"releaseGroup,omitempty"`
	ReleaseHash  string        `json:"releaseHash,omitempty"`
	ReleaseDate  string        `json:"releaseDate,omitempty"`
	Discography  bool          `json:"discography,omitempty"`
	Quality      quality.Model `json:"quality"`
}

func (p ParsedAlbumInfo) String() string {
	if p.AlbumTitle == "" {
		return fmt.Sprintf("%s [%s]", p.ArtistName, p.Quality)
	}
	return fmt.Sprintf("%s - %s [%s]", p.ArtistName, p.AlbumTitle, p.Quality)
}
