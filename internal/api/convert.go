package api

import (
	"time"

	"subgrab/internal/history"
	"subgrab/internal/language"
	"subgrab/internal/logging"
	"subgrab/internal/manifest"
)

// BlobLookup reports whether a track's raw bytes are cached.
type BlobLookup func(trackID string) bool

// FromTracks converts tracks of itemID. downloaded may be nil.
func FromTracks(itemID string, tracks []manifest.Track, selected string, downloaded BlobLookup) TracksResponse {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, Track{
			ID:               t.ID,
			Language:         t.Language,
			LanguageName:     language.Label(t.Language, t.LanguageDescription),
			Description:      t.LanguageDescription,
			ClosedCaptions:   t.IsClosedCaptions,
			URL:              t.URL,
			Downloaded:       downloaded != nil && downloaded(t.ID),
			SelectedForReply: selected != "" && selected == t.ID,
		})
	}
	return TracksResponse{ItemID: itemID, Tracks: out}
}

// FromHistory converts stored entries.
func FromHistory(entries []history.Entry) HistoryResponse {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:        e.ID,
			RequestID: e.RequestID,
			ItemID:    e.ItemID,
			TrackID:   e.TrackID,
			Language:  e.Language,
			Filename:  e.Filename,
			Outcome:   e.Outcome,
			Error:     e.Error,
			Bytes:     e.Bytes,
			Cues:      e.Cues,
			CacheHit:  e.CacheHit,
			CreatedAt: FormatTime(e.CreatedAt),
		})
	}
	return HistoryResponse{Entries: out}
}

// FromLogEvents converts hub events.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     evt.Timestamp,
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			ItemID:        evt.ItemID,
			TrackID:       evt.TrackID,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
		})
	}
	return out
}

// FormatTime renders t in API timestamp format, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
