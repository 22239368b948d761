package events

import (
	"encoding/json"
	"fmt"
	"time"

	"subgrab/internal/manifest"
)

// Type names a message on the request/notification channel.
type Type string

// Notifications.
const (
	TypeTracksAvailable Type = "TRACKS_AVAILABLE"
	TypeNoTracks        Type = "NO_TRACKS"
	TypeDownloadSuccess Type = "DOWNLOAD_SUCCESS"
	TypeDownloadError   Type = "DOWNLOAD_ERROR"
	TypeItemChanged     Type = "ITEM_CHANGED"
	TypeError           Type = "ERROR"
)

// Requests.
const (
	TypeGetTracks        Type = "GET_TRACKS"
	TypeDownloadSubtitle Type = "DOWNLOAD_SUBTITLE"
)

// TypeHealth is used for heartbeat pings and their pongs.
const TypeHealth Type = "health"

// NoTracksMessage is the NO_TRACKS text.
const NoTracksMessage = "No tracks available"

// Message is the envelope for every notification and request.
type Message struct {
	Type      Type            `json:"type"`
	Time      time.Time       `json:"time"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type TracksAvailable struct {
	ItemID string           `json:"itemId"`
	Tracks []manifest.Track `json:"tracks"`
}

type NoTracks struct {
	Message string `json:"message"`
}

type DownloadSuccess struct {
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	ItemID   string `json:"itemId,omitempty"`
	TrackID  string `json:"trackId,omitempty"`
	CacheHit bool   `json:"cacheHit,omitempty"`
}

type DownloadError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type ItemChanged struct {
	ItemID string `json:"itemId,omitempty"`
}

// DownloadRequest is the DOWNLOAD_SUBTITLE payload.
type DownloadRequest struct {
	TrackID string `json:"trackId"`
}

// New builds a message with payload encoded as JSON. A nil payload is omitted.
func New(typ Type, requestID string, payload any) (Message, error) {
	msg := Message{Type: typ, Time: time.Now().UTC(), RequestID: requestID}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	msg.Payload = raw
	return msg, nil
}

// MustNew is New for payload types that always encode.
func MustNew(typ Type, requestID string, payload any) Message {
	msg, err := New(typ, requestID, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Decode unmarshals the payload into dst.
func (m Message) Decode(dst any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// IsRequest reports whether the type is one clients may send.
func (t Type) IsRequest() bool {
	return t == TypeGetTracks || t == TypeDownloadSubtitle
}
