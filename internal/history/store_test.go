package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{RequestID: "r1", ItemID: "100", TrackID: "T:1", Language: "en", Filename: "a.srt", Bytes: 120, Cues: 3, CreatedAt: base},
		{ItemID: "100", TrackID: "T:9", Outcome: OutcomeFailure, Error: "track not found", CreatedAt: base.Add(time.Minute)},
		{ItemID: "200", TrackID: "T:2", Language: "fr", Filename: "b.srt", CacheHit: true, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if _, err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ItemID != "200" || !got[0].CacheHit || got[0].Outcome != OutcomeSuccess {
		t.Fatalf("unexpected newest entry %+v", got[0])
	}
	if got[1].Outcome != OutcomeFailure || got[1].Error != "track not found" || got[1].Filename != "" {
		t.Fatalf("unexpected failure entry %+v", got[1])
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("created_at not round-tripped: %v", got[0].CreatedAt)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestPruneRemovesOldEntries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)
	if _, err := store.Append(ctx, Entry{ItemID: "1", TrackID: "T:1", CreatedAt: old}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(ctx, Entry{ItemID: "1", TrackID: "T:2"}); err != nil {
		t.Fatal(err)
	}
	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("Prune = %d, %v", removed, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	_, err = Open(context.Background(), path)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(ctx, Entry{ItemID: "5", TrackID: "T:5"}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Recent(ctx, 0)
	if err != nil || len(got) != 1 || got[0].ItemID != "5" {
		t.Fatalf("unexpected entries after reopen: %+v %v", got, err)
	}
}
