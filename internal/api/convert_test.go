package api

import (
	"testing"
	"time"

	"subgrab/internal/history"
	"subgrab/internal/logging"
	"subgrab/internal/manifest"
)

func TestFromTracks(t *testing.T) {
	tracks := []manifest.Track{
		{ID: "T:1", Language: "en", LanguageDescription: "English [CC]", IsClosedCaptions: true},
		{ID: "T:2", Language: "fr"},
	}
	resp := FromTracks("42", tracks, "T:2", func(id string) bool { return id == "T:1" })

	if resp.ItemID != "42" || len(resp.Tracks) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Tracks[0].LanguageName != "English [CC]" || !resp.Tracks[0].Downloaded || resp.Tracks[0].SelectedForReply {
		t.Fatalf("unexpected first track %+v", resp.Tracks[0])
	}
	if resp.Tracks[1].LanguageName != "French" || resp.Tracks[1].Downloaded || !resp.Tracks[1].SelectedForReply {
		t.Fatalf("unexpected second track %+v", resp.Tracks[1])
	}

	if empty := FromTracks("1", nil, "", nil); empty.Tracks == nil {
		t.Fatal("tracks should encode as an empty list")
	}
}

func TestFromHistoryFormatsTimestamps(t *testing.T) {
	created := time.Date(2026, 5, 4, 3, 2, 1, 500_000_000, time.UTC)
	resp := FromHistory([]history.Entry{{ID: 1, ItemID: "9", TrackID: "T:1", Outcome: history.OutcomeSuccess, CreatedAt: created}})
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp.Entries))
	}
	if got := resp.Entries[0].CreatedAt; got != "2026-05-04T03:02:01.500Z" {
		t.Fatalf("unexpected timestamp %q", got)
	}
	if FormatTime(time.Time{}) != "" {
		t.Fatal("zero time should format as empty")
	}
}

func TestFromLogEvents(t *testing.T) {
	if FromLogEvents(nil) != nil {
		t.Fatal("expected nil for no events")
	}
	out := FromLogEvents([]logging.LogEvent{{Sequence: 3, Level: "info", Message: "hi", ItemID: "7"}})
	if len(out) != 1 || out[0].Sequence != 3 || out[0].ItemID != "7" {
		t.Fatalf("unexpected events %+v", out)
	}
}
