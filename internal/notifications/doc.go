// Package notifications pushes download outcomes to ntfy.
//
// NewService returns an ntfy-backed Service when notifications.ntfy_topic is
// set and a no-op otherwise. Forward subscribes to the daemon's event hub and
// turns DOWNLOAD_SUCCESS, DOWNLOAD_ERROR and (optionally) TRACKS_AVAILABLE
// messages into notifications.
package notifications
