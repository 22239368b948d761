package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"subgrab/internal/api"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(api.DaemonStatus{Running: true, CurrentItem: "42"})
		case "/api/download":
			var req api.DownloadRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if r.Method != http.MethodPost || req.TrackID != "T:1" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(api.DownloadResponse{Filename: "a.srt", TrackID: req.TrackID})
		case "/api/history":
			if r.URL.Query().Get("limit") != "5" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(api.HistoryResponse{Entries: []api.HistoryEntry{{ID: 1}}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := New(strings.TrimPrefix(srv.URL, "http://"), "secret")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	status, err := client.Status(ctx)
	if err != nil || !status.Running || status.CurrentItem != "42" {
		t.Fatalf("Status = %+v, %v", status, err)
	}
	dl, err := client.Download(ctx, "T:1")
	if err != nil || dl.Filename != "a.srt" {
		t.Fatalf("Download = %+v, %v", dl, err)
	}
	hist, err := client.History(ctx, 5)
	if err != nil || len(hist.Entries) != 1 {
		t.Fatalf("History = %+v, %v", hist, err)
	}
}

func TestClientReportsErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "No tracks available", Kind: "no_tracks_available"})
	}))
	defer srv.Close()

	client, err := New(srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Tracks(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		t.Fatalf("expected status error, got %v", err)
	}
	if KindOf(err) != "no_tracks_available" {
		t.Fatalf("KindOf = %q", KindOf(err))
	}
	if IsAPIUnavailable(err) {
		t.Fatal("a reachable daemon is not unavailable")
	}
}

func TestIsAPIUnavailableOnRefusedConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	client, err := New(addr, "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Status(context.Background())
	if !IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if IsAPIUnavailable(nil) {
		t.Fatal("nil error is not unavailable")
	}
}

func TestNewRejectsEmptyBind(t *testing.T) {
	if _, err := New("  ", ""); err == nil {
		t.Fatal("expected error")
	}
}
