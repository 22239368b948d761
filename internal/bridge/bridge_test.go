package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"subgrab/internal/download"
	"subgrab/internal/events"
	"subgrab/internal/logging"
	"subgrab/internal/manifest"
	"subgrab/internal/session"
)

type stubDownloader struct {
	requestID string
	result    download.Result
	err       error
}

func (s *stubDownloader) RequestDownload(ctx context.Context, trackID string) (download.Result, error) {
	s.requestID, _ = logging.RequestIDFromContext(ctx)
	if s.err != nil {
		return download.Result{}, s.err
	}
	res := s.result
	res.TrackID = trackID
	return res, nil
}

func request(t *testing.T, typ events.Type, requestID string, payload any) events.Message {
	t.Helper()
	msg, err := events.New(typ, requestID, payload)
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestPublishTracksStoresAndNotifies(t *testing.T) {
	store := session.NewStore()
	hub := events.NewHub(nil, nil)
	sub := hub.Subscribe(4)
	defer sub.Close()
	b := New(store, &stubDownloader{}, hub, nil)

	b.PublishTracks("42", []manifest.Track{{ID: "T:1", Language: "en"}})

	if tracks, ok := store.Tracks("42"); !ok || len(tracks) != 1 {
		t.Fatalf("tracks not stored: %v %v", tracks, ok)
	}
	msg := <-sub.C()
	if msg.Type != events.TypeTracksAvailable {
		t.Fatalf("unexpected notification %s", msg.Type)
	}
	var payload events.TracksAvailable
	if err := msg.Decode(&payload); err != nil || payload.ItemID != "42" {
		t.Fatalf("unexpected payload %+v %v", payload, err)
	}
}

func TestHandleGetTracks(t *testing.T) {
	store := session.NewStore()
	b := New(store, &stubDownloader{}, nil, nil)

	reply := b.Handle(context.Background(), request(t, events.TypeGetTracks, "r1", nil))
	if reply.Type != events.TypeNoTracks || reply.RequestID != "r1" {
		t.Fatalf("expected NO_TRACKS, got %+v", reply)
	}
	var none events.NoTracks
	if err := reply.Decode(&none); err != nil || none.Message != "No tracks available" {
		t.Fatalf("unexpected NO_TRACKS payload %+v %v", none, err)
	}

	store.SetCurrentItem("7")
	store.SetTracks("8", []manifest.Track{{ID: "T:1"}})
	if reply := b.Handle(context.Background(), request(t, events.TypeGetTracks, "", nil)); reply.Type != events.TypeNoTracks {
		t.Fatalf("tracks of another item must not be returned: %s", reply.Type)
	}

	store.SetTracks("7", []manifest.Track{{ID: "T:3", Language: "de"}})
	reply = b.Handle(context.Background(), request(t, events.TypeGetTracks, "", nil))
	if reply.Type != events.TypeTracksAvailable || reply.RequestID == "" {
		t.Fatalf("expected TRACKS_AVAILABLE with generated id, got %+v", reply)
	}
}

func TestHandleDownload(t *testing.T) {
	dl := &stubDownloader{result: download.Result{Filename: "netflix_subtitle_7_de.srt", ItemID: "7"}}
	hub := events.NewHub(nil, nil)
	sub := hub.Subscribe(4)
	defer sub.Close()
	b := New(session.NewStore(), dl, hub, nil)

	reply := b.Handle(context.Background(), request(t, events.TypeDownloadSubtitle, "req-1", events.DownloadRequest{TrackID: "T:3"}))
	if reply.Type != events.TypeDownloadSuccess {
		t.Fatalf("expected DOWNLOAD_SUCCESS, got %s", reply.Type)
	}
	var ok events.DownloadSuccess
	if err := reply.Decode(&ok); err != nil || ok.Filename != "netflix_subtitle_7_de.srt" || ok.TrackID != "T:3" {
		t.Fatalf("unexpected success payload %+v %v", ok, err)
	}
	if dl.requestID != "req-1" {
		t.Fatalf("request id not propagated: %q", dl.requestID)
	}
	if published := <-sub.C(); published.RequestID != "req-1" {
		t.Fatalf("reply not published: %+v", published)
	}
}

func TestHandleDownloadErrors(t *testing.T) {
	dl := &stubDownloader{err: download.ErrNoActiveItem}
	b := New(session.NewStore(), dl, nil, nil)

	reply := b.Handle(context.Background(), request(t, events.TypeDownloadSubtitle, "", events.DownloadRequest{TrackID: "T:1"}))
	if reply.Type != events.TypeDownloadError {
		t.Fatalf("expected DOWNLOAD_ERROR, got %s", reply.Type)
	}
	var failed events.DownloadError
	if err := reply.Decode(&failed); err != nil {
		t.Fatal(err)
	}
	if failed.Error != "no current item" || failed.Kind != download.KindNoActiveItem {
		t.Fatalf("unexpected error payload %+v", failed)
	}

	missing := events.Message{Type: events.TypeDownloadSubtitle, Payload: json.RawMessage(`{}`)}
	if reply := b.Handle(context.Background(), missing); reply.Type != events.TypeDownloadError {
		t.Fatalf("missing trackId should fail, got %s", reply.Type)
	}

	dl.err = errors.New("boom")
	if reply := b.Handle(context.Background(), events.Message{Type: "PLAY"}); reply.Type != events.TypeError {
		t.Fatalf("unknown request should yield ERROR, got %s", reply.Type)
	}
}

func TestSavePublishesAndReturnsResult(t *testing.T) {
	hub := events.NewHub(nil, nil)
	sub := hub.Subscribe(4)
	defer sub.Close()
	stub := &stubDownloader{result: download.Result{Filename: "f.srt", Cues: 3}}
	b := New(session.NewStore(), stub, hub, nil)

	res, err := b.Save(context.Background(), "req-1", "T:1")
	if err != nil || res.Cues != 3 || res.TrackID != "T:1" {
		t.Fatalf("Save = %+v, %v", res, err)
	}
	if stub.requestID != "req-1" {
		t.Fatalf("request id not propagated: %q", stub.requestID)
	}
	msg := <-sub.C()
	if msg.Type != events.TypeDownloadSuccess || msg.RequestID != "req-1" {
		t.Fatalf("unexpected notification %+v", msg)
	}
}
