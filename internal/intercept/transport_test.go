package intercept

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type upstreamCapture struct {
	mu            sync.Mutex
	body          string
	contentLength int64
	host          string
}

func newUpstream(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *upstreamCapture) {
	t.Helper()
	capture := &upstreamCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		capture.mu.Lock()
		capture.body = string(body)
		capture.contentLength = r.ContentLength
		capture.host = r.Host
		capture.mu.Unlock()
		respond(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, capture
}

func newProxy(t *testing.T, upstream string, transport *Transport) *httptest.Server {
	t.Helper()
	target, err := url.Parse(upstream)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewReverseProxy(target, transport, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyRewritesRequestAndObservesResponse(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte(manifestResponse))
	_ = zw.Close()
	compressed := gz.Bytes()

	upstream, capture := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(compressed)
	})

	sink := &recordingSink{}
	proxy := newProxy(t, upstream.URL, &Transport{Interceptor: New(Options{Sink: sink})})

	req, _ := http.NewRequest(http.MethodPost, proxy.URL+"/playapi/cadmium/manifest?reqAttempt=1", strings.NewReader(`{"profiles":["heaac-2-dash"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("proxy request: %v", err)
	}
	defer resp.Body.Close()
	got, _ := io.ReadAll(resp.Body)

	if !bytes.Equal(got, compressed) {
		t.Fatal("client did not receive the original response bytes")
	}
	want := `{"profiles":["webvtt-lssdh-ios8","heaac-2-dash"]}`
	capture.mu.Lock()
	defer capture.mu.Unlock()
	if capture.body != want {
		t.Fatalf("upstream got %s want %s", capture.body, want)
	}
	if capture.contentLength != int64(len(want)) {
		t.Fatalf("upstream content length %d, want %d", capture.contentLength, len(want))
	}
	upstreamURL, _ := url.Parse(upstream.URL)
	if capture.host != upstreamURL.Host {
		t.Fatalf("expected host rewritten to %s, got %s", upstreamURL.Host, capture.host)
	}
	if _, ok := sink.get("80100172"); !ok {
		t.Fatal("tracks not published")
	}
}

func TestTransportPassesOversizedBodiesThrough(t *testing.T) {
	body := `{"profiles":["heaac-2-dash"],"padding":"` + strings.Repeat("x", 64) + `"}`
	upstream, capture := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, manifestResponse)
	})

	sink := &recordingSink{}
	client := &http.Client{Transport: &Transport{Interceptor: New(Options{Sink: sink}), MaxBodyBytes: 32}}
	req, _ := http.NewRequest(http.MethodPost, upstream.URL+"/manifest", io.NopCloser(strings.NewReader(body)))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	got, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if capture.body != body {
		t.Fatalf("oversized request altered: %s", capture.body)
	}
	if string(got) != manifestResponse {
		t.Fatal("oversized response altered")
	}
	if _, ok := sink.get("80100172"); ok {
		t.Fatal("oversized response should not be observed")
	}
}

func TestTransportPathFilter(t *testing.T) {
	upstream, capture := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, manifestResponse)
	})

	sink := &recordingSink{}
	client := &http.Client{Transport: &Transport{
		Interceptor: New(Options{Sink: sink}),
		Paths:       []string{"/playapi"},
	}}
	in := `{"profiles":["heaac-2-dash"]}`
	resp, err := client.Post(upstream.URL+"/ichnaea/log", "application/json", strings.NewReader(in))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if capture.body != in {
		t.Fatalf("filtered path was rewritten: %s", capture.body)
	}
	if _, ok := sink.get("80100172"); ok {
		t.Fatal("filtered path was observed")
	}
}

func TestTransportSkipsBinaryResponses(t *testing.T) {
	upstream, _ := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", strconv.Itoa(len(manifestResponse)))
		_, _ = io.WriteString(w, manifestResponse)
	})
	sink := &recordingSink{}
	client := &http.Client{Transport: &Transport{Interceptor: New(Options{Sink: sink})}}
	resp, err := client.Get(upstream.URL + "/segment")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if _, ok := sink.get("80100172"); ok {
		t.Fatal("binary response should not be observed")
	}
}

func TestProxyReturnsBadGatewayWhenUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	proxy := newProxy(t, addr, &Transport{Interceptor: New(Options{})})
	resp, err := http.Get(proxy.URL + "/anything")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}
