package download

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"subgrab/internal/history"
	"subgrab/internal/logging"
	"subgrab/internal/manifest"
	"subgrab/internal/metrics"
	"subgrab/internal/session"
	"subgrab/internal/subtitles"
	"subgrab/internal/textutil"
)

// DefaultFilenamePrefix starts every saved file name.
const DefaultFilenamePrefix = "netflix_subtitle"

// Recorder stores download history.
type Recorder interface {
	Append(ctx context.Context, entry history.Entry) (int64, error)
}

// Options configures a Service.
type Options struct {
	Store          *session.Store
	Fetcher        Fetcher
	Saver          Saver
	History        Recorder
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	FilenamePrefix string
	Convert        subtitles.Options
}

// Result describes a finished download.
type Result struct {
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	ItemID   string `json:"itemId"`
	TrackID  string `json:"trackId"`
	Language string `json:"language"`
	Bytes    int    `json:"bytes"`
	Cues     int    `json:"cues"`
	CacheHit bool   `json:"cacheHit"`
}

// Service resolves a track against the session, fetches or reuses its raw
// bytes, converts them, and hands the result to the saver.
type Service struct {
	store   *session.Store
	fetcher Fetcher
	saver   Saver
	history Recorder
	metrics *metrics.Metrics
	logger  *slog.Logger
	prefix  string
	convert subtitles.Options
}

// NewService builds a Service. Store, Fetcher and Saver are required.
func NewService(opts Options) *Service {
	prefix := strings.TrimSpace(opts.FilenamePrefix)
	if prefix == "" {
		prefix = DefaultFilenamePrefix
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = HTTPFetcher{}
	}
	return &Service{
		store:   opts.Store,
		fetcher: fetcher,
		saver:   opts.Saver,
		history: opts.History,
		metrics: opts.Metrics,
		logger:  logging.NewComponentLogger(opts.Logger, "download"),
		prefix:  prefix,
		convert: opts.Convert,
	}
}

// RequestDownload produces an SRT file for trackID of the current item.
func (s *Service) RequestDownload(ctx context.Context, trackID string) (Result, error) {
	started := time.Now()
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldTrackID, trackID))

	result, err := s.download(ctx, logger, trackID)
	s.metrics.DownloadFinished(outcomeLabel(err))
	s.record(ctx, logger, trackID, result, err)

	if err != nil {
		logging.WarnWithContext(logger, "subtitle download failed", "download_failed",
			logging.String(logging.FieldItemID, result.ItemID),
			logging.String(logging.FieldErrorHint, errorHint(err)),
			logging.String(logging.FieldImpact, "no file was saved"),
			logging.String("kind", Kind(err)),
			logging.Error(err),
		)
		return Result{}, err
	}

	logger.Info("subtitle downloaded",
		logging.String(logging.FieldEventType, "download_succeeded"),
		logging.String(logging.FieldItemID, result.ItemID),
		logging.String("filename", result.Filename),
		logging.String("language", result.Language),
		logging.Int("cue_count", result.Cues),
		logging.Int("size_bytes", result.Bytes),
		logging.Bool("cache_hit", result.CacheHit),
		logging.Duration("duration", time.Since(started)),
	)
	return result, nil
}

func (s *Service) download(ctx context.Context, logger *slog.Logger, trackID string) (Result, error) {
	itemID, ok := s.store.CurrentItem()
	if !ok {
		return Result{}, ErrNoActiveItem
	}
	result := Result{ItemID: itemID, TrackID: trackID}

	tracks, ok := s.store.Tracks(itemID)
	if !ok {
		return result, ErrNoTracksAvailable
	}
	track, ok := findTrack(tracks, trackID)
	if !ok {
		return result, fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	result.Language = track.Language

	raw, hit := s.store.Blob(itemID, trackID)
	s.metrics.BlobLookup(hit)
	if !hit {
		logger.Debug("fetching subtitle file", logging.String("url", track.URL))
		fetched, err := s.fetcher.Fetch(ctx, track.URL)
		if err != nil {
			return result, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		s.store.PutBlob(itemID, trackID, fetched)
		raw = fetched
	}
	result.CacheHit = hit

	srt := subtitles.ConvertWithOptions(decodeText(raw), s.convert)
	result.Filename = s.filename(itemID, track.Language)
	result.Bytes = len(srt)
	result.Cues = subtitles.CountCues(srt)

	if s.saver != nil {
		path, err := s.saver.Save(ctx, []byte(srt), result.Filename, SRTMediaType)
		if err != nil {
			logging.ErrorWithContext(logger, "saving subtitle file failed", "save_failed",
				logging.String("filename", result.Filename),
				logging.String(logging.FieldErrorHint, "check output_dir permissions and free space"),
				logging.Error(err),
			)
		} else {
			result.Path = path
		}
	}

	s.store.SetSelectedTrack(trackID)
	return result, nil
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, trackID string, result Result, err error) {
	if s.history == nil {
		return
	}
	entry := history.Entry{
		ItemID:   result.ItemID,
		TrackID:  trackID,
		Language: result.Language,
		Filename: result.Filename,
		Outcome:  history.OutcomeSuccess,
		Bytes:    result.Bytes,
		Cues:     result.Cues,
		CacheHit: result.CacheHit,
	}
	if requestID, ok := logging.RequestIDFromContext(ctx); ok {
		entry.RequestID = requestID
	}
	if err != nil {
		entry.Outcome = history.OutcomeFailure
		entry.Error = err.Error()
		entry.Filename = ""
	}
	if _, appendErr := s.history.Append(context.WithoutCancel(ctx), entry); appendErr != nil {
		logger.Debug("history append failed", logging.Error(appendErr))
	}
}

func (s *Service) filename(itemID, lang string) string {
	return textutil.SubtitleFileName(s.prefix, itemID, lang)
}

func findTrack(tracks []manifest.Track, trackID string) (manifest.Track, bool) {
	for _, t := range tracks {
		if t.ID == trackID {
			return t, true
		}
	}
	return manifest.Track{}, false
}

// decodeText reads raw bytes as UTF-8, dropping a leading byte order mark and
// replacing invalid sequences.
func decodeText(raw []byte) string {
	decoded, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return Kind(err)
}

func errorHint(err error) string {
	switch Kind(err) {
	case KindNoActiveItem:
		return "start playback so the player page reports an item"
	case KindNoTracksAvailable:
		return "reload the player so the manifest passes through the proxy"
	case KindTrackNotFound:
		return "list tracks again; the item may have changed"
	case KindFetchFailed:
		return "the delivery URL may have expired; reload the player"
	default:
		return "check logs for details"
	}
}
