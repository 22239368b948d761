package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"subgrab/internal/download"
	"subgrab/internal/events"
	"subgrab/internal/logging"
	"subgrab/internal/manifest"
	"subgrab/internal/session"
)

// Downloader is the download entry point the bridge drives.
type Downloader interface {
	RequestDownload(ctx context.Context, trackID string) (download.Result, error)
}

// Bridge connects the interceptor, the session store, the download service,
// and the notification hub. It is the interceptor's track sink and the
// handler for client requests.
type Bridge struct {
	store      *session.Store
	downloader Downloader
	hub        *events.Hub
	logger     *slog.Logger
}

// New builds a Bridge. hub may be nil when nobody listens for notifications.
func New(store *session.Store, downloader Downloader, hub *events.Hub, logger *slog.Logger) *Bridge {
	return &Bridge{
		store:      store,
		downloader: downloader,
		hub:        hub,
		logger:     logging.NewComponentLogger(logger, "bridge"),
	}
}

// PublishTracks replaces the item's track set and announces it.
func (b *Bridge) PublishTracks(itemID string, tracks []manifest.Track) {
	b.store.SetTracks(itemID, tracks)
	b.publish(events.MustNew(events.TypeTracksAvailable, "", events.TracksAvailable{
		ItemID: itemID,
		Tracks: nonNil(tracks),
	}))
}

// ItemChanged announces a change of the playing item.
func (b *Bridge) ItemChanged(itemID string) {
	b.publish(events.MustNew(events.TypeItemChanged, "", events.ItemChanged{ItemID: itemID}))
}

// Tracks answers a GET_TRACKS request.
func (b *Bridge) Tracks(requestID string) events.Message {
	if itemID, ok := b.store.CurrentItem(); ok {
		if tracks, ok := b.store.Tracks(itemID); ok {
			return events.MustNew(events.TypeTracksAvailable, requestID, events.TracksAvailable{
				ItemID: itemID,
				Tracks: nonNil(tracks),
			})
		}
	}
	return events.MustNew(events.TypeNoTracks, requestID, events.NoTracks{Message: events.NoTracksMessage})
}

// Download answers a DOWNLOAD_SUBTITLE request.
func (b *Bridge) Download(ctx context.Context, requestID, trackID string) events.Message {
	result, err := b.downloader.RequestDownload(logging.WithRequestID(ctx, requestID), trackID)
	return downloadReply(requestID, result, err)
}

// Save runs a download for a direct API caller, announces the outcome, and
// returns the full result.
func (b *Bridge) Save(ctx context.Context, requestID, trackID string) (download.Result, error) {
	result, err := b.downloader.RequestDownload(logging.WithRequestID(ctx, requestID), trackID)
	b.publish(downloadReply(requestID, result, err))
	return result, err
}

func downloadReply(requestID string, result download.Result, err error) events.Message {
	if err != nil {
		return events.MustNew(events.TypeDownloadError, requestID, events.DownloadError{
			Error: err.Error(),
			Kind:  download.Kind(err),
		})
	}
	return events.MustNew(events.TypeDownloadSuccess, requestID, events.DownloadSuccess{
		Filename: result.Filename,
		Path:     result.Path,
		ItemID:   result.ItemID,
		TrackID:  result.TrackID,
		CacheHit: result.CacheHit,
	})
}

// Handle dispatches a client request, publishes the reply to the hub, and
// returns it. Requests without an ID get a fresh one.
func (b *Bridge) Handle(ctx context.Context, req events.Message) events.Message {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := b.logger.With(
		logging.String(logging.FieldCorrelationID, requestID),
		logging.String("message_type", string(req.Type)),
	)
	logger.Debug("client request received")

	var reply events.Message
	switch req.Type {
	case events.TypeGetTracks:
		reply = b.Tracks(requestID)
	case events.TypeDownloadSubtitle:
		var payload events.DownloadRequest
		if err := req.Decode(&payload); err != nil || payload.TrackID == "" {
			reply = events.MustNew(events.TypeDownloadError, requestID, events.DownloadError{
				Error: "trackId is required",
				Kind:  "invalid_request",
			})
			break
		}
		reply = b.Download(ctx, requestID, payload.TrackID)
	default:
		reply = events.MustNew(events.TypeError, requestID, events.DownloadError{
			Error: fmt.Sprintf("unsupported request type %q", req.Type),
			Kind:  "invalid_request",
		})
	}

	b.publish(reply)
	return reply
}

func (b *Bridge) publish(msg events.Message) {
	if b.hub != nil {
		b.hub.Publish(msg)
	}
}

func nonNil(tracks []manifest.Track) []manifest.Track {
	if tracks == nil {
		return []manifest.Track{}
	}
	return tracks
}
