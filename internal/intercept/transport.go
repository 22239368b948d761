package intercept

import (
	"bytes"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"subgrab/internal/logging"
	"subgrab/internal/metrics"
)

// DefaultMaxBodyBytes caps how much of a body is buffered for inspection.
const DefaultMaxBodyBytes = 16 << 20

// Transport is an http.RoundTripper that runs an Interceptor over JSON
// request and response bodies. Bodies that cannot be inspected are streamed
// through untouched.
type Transport struct {
	Base         http.RoundTripper
	Interceptor  *Interceptor
	MaxBodyBytes int64
	// Paths restricts interception to URL paths with one of these prefixes.
	// Empty means every request is inspected.
	Paths   []string
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) limit() int64 {
	if t.MaxBodyBytes > 0 {
		return t.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Interceptor == nil || !t.intercepts(req) {
		return t.base().RoundTrip(req)
	}

	resp, err := t.base().RoundTrip(t.rewriteRequest(req))
	if err != nil {
		return nil, err
	}
	t.observeResponse(resp)
	return resp, nil
}

func (t *Transport) intercepts(req *http.Request) bool {
	if len(t.Paths) == 0 {
		return true
	}
	for _, prefix := range t.Paths {
		if strings.HasPrefix(req.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func (t *Transport) rewriteRequest(req *http.Request) *http.Request {
	if req.Body == nil || req.Body == http.NoBody {
		return req
	}
	if req.Header.Get("Content-Encoding") != "" {
		t.Metrics.BodySkipped("request_encoded")
		return req
	}
	if req.ContentLength > t.limit() {
		t.Metrics.BodySkipped("too_large")
		return req
	}

	buf, complete := t.buffer(req.Body)
	out := req.Clone(req.Context())
	if !complete {
		out.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(buf), req.Body), Closer: req.Body}
		return out
	}
	_ = req.Body.Close()

	body, changed := t.Interceptor.RewriteRequest(buf)
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	if changed {
		out.ContentLength = int64(len(body))
		out.Header.Set("Content-Length", strconv.Itoa(len(body)))
		logging.WithContext(req.Context(), t.logger()).Debug("request rewritten",
			logging.String("method", req.Method),
			logging.String("path", req.URL.Path),
			logging.Int("size_bytes", len(body)),
		)
	}
	return out
}

func (t *Transport) observeResponse(resp *http.Response) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return
	}
	if !inspectableType(resp.Header.Get("Content-Type")) {
		return
	}
	if resp.ContentLength > t.limit() {
		t.Metrics.BodySkipped("too_large")
		return
	}

	original := resp.Body
	buf, complete := t.buffer(original)
	if !complete {
		resp.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(buf), original), Closer: original}
		return
	}
	_ = original.Close()
	resp.Body = io.NopCloser(bytes.NewReader(buf))

	matched := t.Interceptor.ObserveResponse(buf, resp.Header.Get("Content-Encoding"), t.limit())
	if matched > 0 && resp.Request != nil {
		t.logger().Debug("response observed",
			logging.String("path", resp.Request.URL.Path),
			logging.Int("status", resp.StatusCode),
			logging.Int("record_count", matched),
		)
	}
}

// buffer reads up to the body limit. It reports false when the body was
// larger than the limit or failed mid-read; the bytes read so far are
// returned so the caller can replay them ahead of the remainder.
func (t *Transport) buffer(body io.Reader) ([]byte, bool) {
	limit := t.limit()
	buf, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		t.Metrics.BodySkipped("read_error")
		return buf, false
	}
	if int64(len(buf)) > limit {
		t.Metrics.BodySkipped("too_large")
		return buf, false
	}
	return buf, true
}

func (t *Transport) logger() *slog.Logger {
	return logging.NewComponentLogger(t.Logger, "proxy")
}

func inspectableType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.Contains(mediaType, "json") ||
		strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/javascript"
}

type replayBody struct {
	io.Reader
	io.Closer
}
