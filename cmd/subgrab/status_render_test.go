package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"subgrab/internal/api"
)

func TestStatusLineNoColor(t *testing.T) {
	got := statusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("statusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestStatusLineWithColor(t *testing.T) {
	got := statusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestShouldColorizeNonTerminal(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("io.Discard is not a terminal")
	}
}

func TestStatusLines(t *testing.T) {
	lines := statusLines(api.DaemonStatus{
		Running:      true,
		PID:          42,
		ProxyAddress: "127.0.0.1:8788",
		APIAddress:   "127.0.0.1:7488",
		Upstream:     "https://www.netflix.com",
		KnownItems:   2,
		CachedBlobs:  1,
		LogPath:      "/tmp/subgrab.log",
		Checks: []api.CheckResult{
			{Name: "Output dir", Passed: true, Detail: "/tmp/out"},
			{Name: "Page source", Passed: false, Detail: "not configured"},
		},
	}, false)
	joined := strings.Join(lines, "\n")
	requireContains(t, joined, "[OK] Running (pid 42)")
	requireContains(t, joined, "127.0.0.1:8788 -> https://www.netflix.com")
	requireContains(t, joined, "[WARN] nothing detected")
	requireContains(t, joined, "2 items, 1 cached files")
	requireContains(t, joined, "[WARN] disabled")
	requireContains(t, joined, "[ERROR] not configured")
	if strings.Contains(joined, "Selected track") {
		t.Fatal("selected track shown without a selection")
	}
}
