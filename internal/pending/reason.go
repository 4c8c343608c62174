package pending

import (
	"fmt"
	"strings"
)

// Reason explains why a release is held instead of grabbed. The set is
// closed: adding a variant means deciding its reclassification rule below.
type Reason string

const (
	ReasonDelay                     Reason = "delay"
	ReasonDownloadClientUnavailable Reason = "download_client_unavailable"
	ReasonFallback                  Reason = "fallback"
)

// Reasons lists every variant.
var Reasons = []Reason{ReasonDelay, ReasonDownloadClientUnavailable, ReasonFallback}

// ParseReason accepts the stored form or the status label, case-insensitively.
func ParseReason(value string) (Reason, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, r := range Reasons {
		if normalized == string(r) || normalized == strings.ToLower(r.Label()) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown pending reason %q", value)
}

// Valid reports whether r is one of the known variants.
func (r Reason) Valid() bool {
	switch r {
	case ReasonDelay, ReasonDownloadClientUnavailable, ReasonFallback:
		return true
	default:
		return false
	}
}

// Label is the queue status shown for r.
func (r Reason) Label() string {
	switch r {
	case ReasonDelay:
		return "Delay"
	case ReasonDownloadClientUnavailable:
		return "DownloadClientUnavailable"
	case ReasonFallback:
		return "Fallback"
	default:
		return string(r)
	}
}

// Reclassifiable reports whether a reconcile pass may replace r with another
// reason. A client-unavailable hold stays until a lifecycle event removes it.
func (r Reason) Reclassifiable() bool {
	switch r {
	case ReasonDelay, ReasonFallback:
		return true
	case ReasonDownloadClientUnavailable:
		return false
	default:
		return false
	}
}

// Visible reports whether releases held for r appear in the queue. Fallback
// holds are background retries.
func (r Reason) Visible() bool {
	switch r {
	case ReasonDelay, ReasonDownloadClientUnavailable:
		return true
	case ReasonFallback:
		return false
	default:
		return false
	}
}

func (r Reason) String() string { return string(r) }

func (r Reason) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown pending reason %q", string(r))
	}
	return []byte(r), nil
}

func (r *Reason) UnmarshalText(text []byte) error {
	parsed, err := ParseReason(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
