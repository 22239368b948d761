package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"subgrab/internal/api"
)

// ErrAPIUnavailable reports that the daemon API could not be reached.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// defaultTimeout applies to every call except log follow requests.
const defaultTimeout = 30 * time.Second

// Client talks to the daemon's HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
	// stream has no timeout; follow requests block until events arrive.
	stream *http.Client
}

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Status int
	Kind   string
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%s, status %d)", e.Msg, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Msg, e.Status)
}

// New builds a client for bind, adding an http:// scheme when none is given.
func New(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path, base.RawQuery, base.Fragment = "", "", ""
	return &Client{
		base:   base,
		token:  strings.TrimSpace(token),
		http:   &http.Client{Timeout: defaultTimeout},
		stream: &http.Client{},
	}, nil
}

// Status returns the daemon status.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(ctx, c.http, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// Tracks returns the tracks of the playing item.
func (c *Client) Tracks(ctx context.Context) (api.TracksResponse, error) {
	var out api.TracksResponse
	err := c.do(ctx, c.http, http.MethodGet, "/api/tracks", nil, nil, &out)
	return out, err
}

// Download asks the daemon to convert and save trackID.
func (c *Client) Download(ctx context.Context, trackID string) (api.DownloadResponse, error) {
	var out api.DownloadResponse
	err := c.do(ctx, c.http, http.MethodPost, "/api/download", nil, api.DownloadRequest{TrackID: trackID}, &out)
	return out, err
}

// History returns up to limit recent download attempts.
func (c *Client) History(ctx context.Context, limit int) (api.HistoryResponse, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out api.HistoryResponse
	err := c.do(ctx, c.http, http.MethodGet, "/api/history", values, nil, &out)
	return out, err
}

// LogQuery selects a page of the daemon's log stream.
type LogQuery struct {
	Since  uint64
	Limit  int
	Follow bool
	Tail   bool
	Item   string
}

// Logs fetches log events. Follow requests block until events arrive or the
// daemon's wait window ends.
func (c *Client) Logs(ctx context.Context, q LogQuery) (api.LogStreamResponse, error) {
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if item := strings.TrimSpace(q.Item); item != "" {
		values.Set("item", item)
	}
	var out api.LogStreamResponse
	err := c.do(ctx, c.stream, http.MethodGet, "/api/logs", values, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Status: resp.StatusCode, Kind: apiErr.Kind, Msg: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsAPIUnavailable reports whether err means the daemon is not listening.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAPIUnavailable) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// KindOf returns the error kind reported by the daemon, if any.
func KindOf(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
