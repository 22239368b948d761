package download

import "errors"

var (
	ErrNoActiveItem      = errors.New("no current item")
	ErrNoTracksAvailable = errors.New("no track list found for current item")
	ErrTrackNotFound     = errors.New("track not found")
	ErrFetchFailed       = errors.New("failed to fetch subtitle file")
)

// Error kinds reported to clients.
const (
	KindNoActiveItem      = "no_active_item"
	KindNoTracksAvailable = "no_tracks_available"
	KindTrackNotFound     = "track_not_found"
	KindFetchFailed       = "fetch_failed"
	KindInternal          = "internal"
)

// Kind classifies a RequestDownload error for clients and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoActiveItem):
		return KindNoActiveItem
	case errors.Is(err, ErrNoTracksAvailable):
		return KindNoTracksAvailable
	case errors.Is(err, ErrTrackNotFound):
		return KindTrackNotFound
	case errors.Is(err, ErrFetchFailed):
		return KindFetchFailed
	default:
		return KindInternal
	}
}
