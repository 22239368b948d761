package manifest

import (
	"strings"

	"subgrab/internal/jsontree"
)

// DeliveryFormat is the WebVTT variant requested from the platform.
const DeliveryFormat = "webvtt-lssdh-ios8"

const closedCaptionsType = "closedcaptions"

// Track is one downloadable subtitle stream for an item.
type Track struct {
	ID                  string `json:"id"`
	Language            string `json:"language"`
	LanguageDescription string `json:"languageDescription"`
	URL                 string `json:"bestUrl"`
	IsClosedCaptions    bool   `json:"isClosedCaptions"`
}

// ExtractTracks projects the raw entries of rec into usable tracks for the
// given delivery format. Forced-narrative and "none" entries are skipped, as
// are entries without a URL for format. An empty result is valid.
func ExtractTracks(rec Record, format string) []Track {
	if format == "" {
		format = DeliveryFormat
	}
	tracks := make([]Track, 0, len(rec.RawTracks))
	for _, raw := range rec.RawTracks {
		track, ok := extractTrack(raw, format)
		if !ok {
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks
}

func extractTrack(raw *jsontree.Value, format string) (Track, bool) {
	if !raw.IsObject() {
		return Track{}, false
	}
	if flag(raw, "isForcedNarrative") || flag(raw, "isNoneTrack") {
		return Track{}, false
	}
	urls, ok := raw.Path("ttDownloadables", format, "urls")
	if !ok {
		return Track{}, false
	}
	items := urls.Items()
	if len(items) == 0 {
		return Track{}, false
	}
	bestURL := firstURL(items[0])
	if bestURL == "" {
		return Track{}, false
	}
	trackType := text(raw, "rawTrackType")
	return Track{
		ID:                  text(raw, "new_track_id"),
		Language:            text(raw, "language"),
		LanguageDescription: text(raw, "languageDescription"),
		URL:                 bestURL,
		IsClosedCaptions:    trackType == closedCaptionsType,
	}, true
}

// firstURL accepts both {"url": "..."} entries and bare strings.
func firstURL(entry *jsontree.Value) string {
	if s, ok := entry.Str(); ok {
		return strings.TrimSpace(s)
	}
	if u, ok := entry.Get("url"); ok {
		if s, ok := u.Str(); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func flag(obj *jsontree.Value, key string) bool {
	v, ok := obj.Get(key)
	return ok && v.Truthy()
}

func text(obj *jsontree.Value, key string) string {
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.Scalar()
	return s
}
