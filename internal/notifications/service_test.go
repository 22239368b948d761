package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"subgrab/internal/config"
	"subgrab/internal/events"
	"subgrab/internal/manifest"
	"subgrab/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T) (*httptest.Server, <-chan captured) {
	t.Helper()
	ch := make(chan captured, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		ch <- captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, ch
}

func serviceFor(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeoutSeconds = 5
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected noop service")
	}
	if err := svc.NotifyDownloadFailed(context.Background(), "boom", ""); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "download succeeded",
			send: func(s notifications.Service) error {
				return s.NotifyDownloadSucceeded(context.Background(), "80100172", "T:1", "netflix_subtitle_80100172_en.srt", true)
			},
			expectTitle:   "subgrab - Subtitle Saved",
			expectMessage: "Saved netflix_subtitle_80100172_en.srt\nItem 80100172, track T:1",
			expectTags:    "subgrab,download,completed,cached",
		},
		{
			name: "download failed",
			send: func(s notifications.Service) error {
				return s.NotifyDownloadFailed(context.Background(), "track not found", "track_not_found")
			},
			expectTitle:    "subgrab - Download Failed",
			expectMessage:  "Download failed: track not found",
			expectTags:     "subgrab,download,error,track_not_found",
			expectPriority: "high",
		},
		{
			name: "tracks available",
			send: func(s notifications.Service) error {
				return s.NotifyTracksAvailable(context.Background(), "7", 1)
			},
			expectTitle:    "subgrab - Tracks Available",
			expectMessage:  "1 subtitle track for item 7",
			expectTags:     "subgrab,tracks",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, ch := newNtfyServer(t)
			if err := tc.send(serviceFor(server.URL)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			got := <-ch
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic reserved", http.StatusForbidden)
	}))
	defer server.Close()

	if err := serviceFor(server.URL).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestForwardRelaysHubMessages(t *testing.T) {
	server, ch := newNtfyServer(t)
	hub := events.NewHub(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		notifications.Forward(ctx, hub, serviceFor(server.URL), notifications.ForwardOptions{}, nil)
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("forwarder never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(events.MustNew(events.TypeTracksAvailable, "", events.TracksAvailable{
		ItemID: "1",
		Tracks: []manifest.Track{{ID: "T:1", Language: "en"}},
	}))
	hub.Publish(events.MustNew(events.TypeDownloadSuccess, "r1", events.DownloadSuccess{
		Filename: "a.srt",
		ItemID:   "1",
		TrackID:  "T:1",
	}))

	select {
	case got := <-ch:
		if got.title != "subgrab - Subtitle Saved" {
			t.Fatalf("tracks listing should be skipped by default, got %q", got.title)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forwarder did not stop")
	}
	if hub.Subscribers() != 0 {
		t.Fatal("forwarder left its subscription open")
	}
}
