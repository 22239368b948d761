package notifications

import (
	"context"
	"log/slog"

	"subgrab/internal/events"
	"subgrab/internal/logging"
)

// ForwardOptions selects which hub messages become notifications.
type ForwardOptions struct {
	TracksAvailable bool
}

// Forward relays download outcomes (and optionally new track listings) from
// hub to svc until ctx ends. Delivery failures are logged and dropped.
func Forward(ctx context.Context, hub *events.Hub, svc Service, opts ForwardOptions, logger *slog.Logger) {
	logger = logging.NewComponentLogger(logger, "notifications")
	sub := hub.Subscribe(events.DefaultBuffer)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if err := dispatch(ctx, svc, msg, opts); err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.WarnWithContext(logger, "notification delivery failed", "notification_failed",
					logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
					logging.String(logging.FieldImpact, "the notification was dropped"),
					logging.String("message_type", string(msg.Type)),
					logging.Error(err),
				)
			}
		}
	}
}

func dispatch(ctx context.Context, svc Service, msg events.Message, opts ForwardOptions) error {
	switch msg.Type {
	case events.TypeDownloadSuccess:
		var p events.DownloadSuccess
		if err := msg.Decode(&p); err != nil {
			return err
		}
		return svc.NotifyDownloadSucceeded(ctx, p.ItemID, p.TrackID, p.Filename, p.CacheHit)
	case events.TypeDownloadError:
		var p events.DownloadError
		if err := msg.Decode(&p); err != nil {
			return err
		}
		return svc.NotifyDownloadFailed(ctx, p.Error, p.Kind)
	case events.TypeTracksAvailable:
		if !opts.TracksAvailable {
			return nil
		}
		var p events.TracksAvailable
		if err := msg.Decode(&p); err != nil {
			return err
		}
		return svc.NotifyTracksAvailable(ctx, p.ItemID, len(p.Tracks))
	default:
		return nil
	}
}
