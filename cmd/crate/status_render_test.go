package main

import (
	"strings"
	"testing"
	"time"

	"crate/internal/pending"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Integrity", statusOK, "yes", false)
	if !strings.Contains(line, "Integrity:") || !strings.HasSuffix(line, "[OK] yes") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Integrity", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[string]string{
		"Delay":                     "Delay",
		"DownloadClientUnavailable": "Download Client Unavailable",
		"Fallback":                  "Fallback",
	}
	for input, want := range cases {
		if got := statusLabel(input); got != want {
			t.Fatalf("statusLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatTimeleft(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "now"},
		{-time.Minute, "now"},
		{20 * time.Second, "<1m"},
		{45 * time.Minute, "45m"},
		{75 * time.Minute, "1h15m"},
		{26*time.Hour + 5*time.Minute, "26h05m"},
	}
	for _, tc := range cases {
		if got := formatTimeleft(tc.in); got != tc.want {
			t.Fatalf("formatTimeleft(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestReasonKind(t *testing.T) {
	cases := map[pending.Reason]statusKind{
		pending.ReasonDelay:                     statusHeld,
		pending.ReasonDownloadClientUnavailable: statusWarn,
		pending.ReasonFallback:                  statusInfo,
	}
	for reason, want := range cases {
		if got := reasonKind(reason); got != want {
			t.Fatalf("reasonKind(%s) = %d, want %d", reason, got, want)
		}
	}
}

func TestRenderStatusLineHeld(t *testing.T) {
	line := renderStatusLine("Reason", statusHeld, "Delay", false)
	if !strings.HasSuffix(line, "[HELD] Delay") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Reason", statusHeld, "Delay", true)
	if !strings.HasPrefix(colored, ansiCyan) {
		t.Fatalf("expected cyan line, got %q", colored)
	}
}
