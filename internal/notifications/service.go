package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subgrab/internal/config"
)

const userAgent = "subgrab/0.1.0"

// Service defines the notification surface used by the daemon.
type Service interface {
	NotifyDownloadSucceeded(ctx context.Context, itemID, trackID, filename string, cacheHit bool) error
	NotifyDownloadFailed(ctx context.Context, reason, kind string) error
	NotifyTracksAvailable(ctx context.Context, itemID string, count int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyDownloadSucceeded(ctx context.Context, itemID, trackID, filename string, cacheHit bool) error {
	message := fmt.Sprintf("Saved %s", strings.TrimSpace(filename))
	if itemID = strings.TrimSpace(itemID); itemID != "" {
		message += fmt.Sprintf("\nItem %s, track %s", itemID, strings.TrimSpace(trackID))
	}
	tags := []string{"subgrab", "download", "completed"}
	if cacheHit {
		tags = append(tags, "cached")
	}
	return n.send(ctx, payload{
		title:   "subgrab - Subtitle Saved",
		message: message,
		tags:    tags,
	})
}

func (n *ntfyService) NotifyDownloadFailed(ctx context.Context, reason, kind string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	tags := []string{"subgrab", "download", "error"}
	if kind = strings.TrimSpace(kind); kind != "" {
		tags = append(tags, kind)
	}
	return n.send(ctx, payload{
		title:    "subgrab - Download Failed",
		message:  "Download failed: " + reason,
		tags:     tags,
		priority: "high",
	})
}

func (n *ntfyService) NotifyTracksAvailable(ctx context.Context, itemID string, count int) error {
	noun := "tracks"
	if count == 1 {
		noun = "track"
	}
	return n.send(ctx, payload{
		title:    "subgrab - Tracks Available",
		message:  fmt.Sprintf("%d subtitle %s for item %s", count, noun, strings.TrimSpace(itemID)),
		tags:     []string{"subgrab", "tracks"},
		priority: "low",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "subgrab - Test",
		message:  "Notification system test",
		tags:     []string{"subgrab", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDownloadSucceeded(context.Context, string, string, string, bool) error {
	return nil
}
func (noopService) NotifyDownloadFailed(context.Context, string, string) error { return nil }
func (noopService) NotifyTracksAvailable(context.Context, string, int) error  { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
