package api

import (
	"time"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Track describes a downloadable subtitle track in a transport-friendly format.
type Track struct {
	ID               string `json:"id"`
	Language         string `json:"language"`
	LanguageName     string `json:"languageName"`
	Description      string `json:"languageDescription,omitempty"`
	ClosedCaptions   bool   `json:"isClosedCaptions"`
	URL              string `json:"bestUrl,omitempty"`
	Downloaded       bool   `json:"downloaded"`
	SelectedForReply bool   `json:"selected,omitempty"`
}

// TracksResponse lists the tracks of the playing item.
type TracksResponse struct {
	ItemID string  `json:"itemId"`
	Tracks []Track `json:"tracks"`
}

// DownloadRequest asks the daemon to save a track.
type DownloadRequest struct {
	TrackID string `json:"trackId"`
}

// DownloadResponse reports a saved track.
type DownloadResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Filename  string `json:"filename"`
	Path      string `json:"path,omitempty"`
	ItemID    string `json:"itemId"`
	TrackID   string `json:"trackId"`
	Language  string `json:"language,omitempty"`
	Bytes     int    `json:"bytes"`
	Cues      int    `json:"cues"`
	CacheHit  bool   `json:"cacheHit"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool          `json:"running"`
	PID           int           `json:"pid"`
	StartedAt     string        `json:"startedAt,omitempty"`
	ProxyAddress  string        `json:"proxyAddress"`
	APIAddress    string        `json:"apiAddress"`
	Upstream      string        `json:"upstream"`
	CurrentItem   string        `json:"currentItem,omitempty"`
	SelectedTrack string        `json:"selectedTrack,omitempty"`
	KnownItems    int           `json:"knownItems"`
	CachedBlobs   int           `json:"cachedBlobs"`
	Subscribers   int           `json:"subscribers"`
	HistoryDBPath string        `json:"historyDbPath,omitempty"`
	LockFilePath  string        `json:"lockFilePath"`
	LogPath       string        `json:"logPath"`
	Checks        []CheckResult `json:"checks,omitempty"`
}

// HistoryEntry describes one download attempt.
type HistoryEntry struct {
	ID        int64  `json:"id"`
	RequestID string `json:"requestId,omitempty"`
	ItemID    string `json:"itemId"`
	TrackID   string `json:"trackId"`
	Language  string `json:"language,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
	Bytes     int    `json:"bytes"`
	Cues      int    `json:"cues"`
	CacheHit  bool   `json:"cacheHit"`
	CreatedAt string `json:"createdAt"`
}

// HistoryResponse wraps recent download attempts, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// LogEvent is a structured log line for live tailing.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	ItemID        string            `json:"itemId,omitempty"`
	TrackID       string            `json:"trackId,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse carries a batch of log events and the cursor for the next fetch.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}
