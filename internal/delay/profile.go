package delay

import (
	"math"
	"time"

	"crate/internal/release"
)

// DefaultOrder is the order of the seeded catch-all profile. It always sorts
// last so any tagged profile wins over it.
const DefaultOrder = math.MaxInt32

// Profile is a tag-scoped delay rule. Delays are in minutes.
type Profile struct {
	ID                int64
	EnableUsenet      bool
	EnableTorrent     bool
	PreferredProtocol release.Protocol
	UsenetDelay       int
	TorrentDelay      int
	Order             int
	Tags              []int
}

// IsDefault reports whether p is the catch-all profile.
func (p Profile) IsDefault() bool {
	return p.Order == DefaultOrder
}

// ProtocolDelay returns the wait for protocol in minutes.
func (p Profile) ProtocolDelay(protocol release.Protocol) int {
	switch protocol {
	case release.ProtocolUsenet:
		return p.UsenetDelay
	case release.ProtocolTorrent:
		return p.TorrentDelay
	default:
		return 0
	}
}

// Delay is ProtocolDelay as a duration.
func (p Profile) Delay(protocol release.Protocol) time.Duration {
	return time.Duration(p.ProtocolDelay(protocol)) * time.Minute
}

// AppliesTo reports whether p covers an artist with the given tags. Untagged
// profiles cover everyone.
func (p Profile) AppliesTo(tags []int) bool {
	if len(p.Tags) == 0 {
		return true
	}
	for _, want := range p.Tags {
		for _, have := range tags {
			if want == have {
				return true
			}
		}
	}
	return false
}
