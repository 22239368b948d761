package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"subgrab/internal/api"
	"subgrab/internal/config"
	"subgrab/internal/download"
	"subgrab/internal/events"
	"subgrab/internal/history"
	"subgrab/internal/logging"
)

const (
	defaultLogLimit   = 200
	logFollowWait     = 20 * time.Second
	heartbeatInterval = 15 * time.Second
	wsWriteTimeout    = 2 * time.Second
	maxRequestBytes   = 64 << 10
	requestIDHeader   = "X-Request-ID"
	kindInvalid       = "invalid_request"
	kindHistoryOff    = "history_disabled"
	kindMethod        = "method_not_allowed"
)

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	heartbeat time.Duration

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	done     chan struct{}
	// inflight tracks websocket requests dispatched off the read loop.
	inflight sync.WaitGroup
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	s := &apiServer{
		bind:      strings.TrimSpace(cfg.API.Bind),
		logger:    logging.NewComponentLogger(logger, "api-server"),
		daemon:    d,
		heartbeat: heartbeatInterval,
	}
	s.server = &http.Server{
		Handler:           s.routes(cfg.API.Token),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(token, false, h))
	}
	handle("/api/status", s.handleStatus)
	handle("/api/tracks", s.handleTracks)
	handle("/api/download", s.handleDownload)
	handle("/api/history", s.handleHistory)
	handle("/api/logs", s.handleLogs)
	mux.Handle("/metrics", authMiddleware(token, false, s.daemon.metrics.Handler()))
	mux.Handle("/ws", authMiddleware(token, true, websocket.Server{Handler: s.handleWebsocket}))
	return mux
}

func (s *apiServer) start() error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed",
				logging.String(logging.FieldErrorHint, "check api.bind"),
				logging.Error(err),
			)
		}
	}()
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return
	}
	close(s.done)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.server.Shutdown(ctx)
	s.listener = nil

	drained := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		s.logger.Debug("websocket requests still running at shutdown")
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *apiServer) closed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	status := s.daemon.Status()
	checks := make([]api.CheckResult, 0, len(status.Checks))
	for _, c := range status.Checks {
		checks = append(checks, api.CheckResult{Name: c.Name, Passed: c.Passed, Detail: c.Detail})
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		StartedAt:     api.FormatTime(status.StartedAt),
		ProxyAddress:  status.ProxyAddress,
		APIAddress:    status.APIAddress,
		Upstream:      status.Upstream,
		CurrentItem:   status.Session.CurrentItem,
		SelectedTrack: status.Session.SelectedTrack,
		KnownItems:    status.Session.KnownItems,
		CachedBlobs:   status.Session.CachedBlobs,
		Subscribers:   status.Subscribers,
		HistoryDBPath: status.HistoryDBPath,
		LockFilePath:  status.LockFilePath,
		LogPath:       status.LogPath,
		Checks:        checks,
	})
}

func (s *apiServer) handleTracks(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	store := s.daemon.store
	itemID, ok := store.CurrentItem()
	if !ok {
		s.writeError(w, http.StatusNotFound, events.NoTracksMessage, download.KindNoActiveItem)
		return
	}
	tracks, ok := store.Tracks(itemID)
	if !ok {
		s.writeError(w, http.StatusNotFound, events.NoTracksMessage, download.KindNoTracksAvailable)
		return
	}
	selected, _ := store.SelectedTrack()
	s.writeJSON(w, http.StatusOK, api.FromTracks(itemID, tracks, selected, func(trackID string) bool {
		_, hit := store.Blob(itemID, trackID)
		return hit
	}))
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req api.DownloadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", kindInvalid)
		return
	}
	req.TrackID = strings.TrimSpace(req.TrackID)
	if req.TrackID == "" {
		s.writeError(w, http.StatusBadRequest, "trackId is required", kindInvalid)
		return
	}
	requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	// A started fetch runs to completion even if the caller hangs up.
	result, err := s.daemon.bridge.Save(context.WithoutCancel(r.Context()), requestID, req.TrackID)
	if err != nil {
		s.writeError(w, downloadStatus(err), err.Error(), download.Kind(err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.DownloadResponse{
		RequestID: requestID,
		Filename:  result.Filename,
		Path:      result.Path,
		ItemID:    result.ItemID,
		TrackID:   result.TrackID,
		Language:  result.Language,
		Bytes:     result.Bytes,
		Cues:      result.Cues,
		CacheHit:  result.CacheHit,
	})
}

func downloadStatus(err error) int {
	switch download.Kind(err) {
	case download.KindNoActiveItem:
		return http.StatusConflict
	case download.KindNoTracksAvailable, download.KindTrackNotFound:
		return http.StatusNotFound
	case download.KindFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	if s.daemon.history == nil {
		s.writeError(w, http.StatusNotFound, "download history is disabled", kindHistoryOff)
		return
	}
	limit := history.DefaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer", kindInvalid)
			return
		}
		limit = parsed
	}
	entries, err := s.daemon.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), download.KindInternal)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromHistory(entries))
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	hub := s.daemon.LogStream()
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogStreamResponse{})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = defaultLogLimit
	}
	follow := flag(query.Get("follow"))
	item := strings.TrimSpace(query.Get("item"))

	var (
		raw  []logging.LogEvent
		next uint64
	)
	if flag(query.Get("tail")) && since == 0 && !follow {
		raw, next = hub.Tail(limit)
	} else {
		ctx := r.Context()
		if follow {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, logFollowWait)
			defer cancel()
		}
		var err error
		raw, next, err = hub.Fetch(ctx, since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, err.Error(), download.KindInternal)
			return
		}
	}

	converted := api.FromLogEvents(raw)
	filtered := converted[:0]
	for _, evt := range converted {
		if item != "" && evt.ItemID != item {
			continue
		}
		filtered = append(filtered, evt)
	}
	s.writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: filtered, Next: next})
}

func flag(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}

// wsConn serializes writes from the forwarder and the heartbeat.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) send(msg events.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return websocket.JSON.Send(c.ws, msg)
}

// handleWebsocket forwards hub notifications to the client and dispatches
// the client's requests through the bridge. Replies reach the client via
// the hub like every other notification.
func (s *apiServer) handleWebsocket(ws *websocket.Conn) {
	defer ws.Close()
	_ = ws.SetDeadline(time.Time{})

	sub := s.daemon.hub.Subscribe(events.DefaultBuffer)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn := &wsConn{ws: ws}
	pongs := make(chan struct{}, 1)
	readErr := make(chan error, 1)
	go s.wsReadLoop(ctx, ws, pongs, readErr)

	logger := s.logger.With(logging.String("remote", ws.Request().RemoteAddr))
	logger.Debug("websocket client connected")
	defer logger.Debug("websocket client disconnected")

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	awaitingPong := false
	for {
		select {
		case <-s.closed():
			return
		case <-readErr:
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.send(msg); err != nil {
				logger.Debug("websocket send failed", logging.Error(err))
				return
			}
		case <-pongs:
			awaitingPong = false
		case <-ticker.C:
			if awaitingPong {
				logger.Debug("websocket heartbeat timed out")
				return
			}
			if err := conn.send(events.MustNew(events.TypeHealth, "", nil)); err != nil {
				return
			}
			awaitingPong = true
		}
	}
}

func (s *apiServer) wsReadLoop(ctx context.Context, ws *websocket.Conn, pongs chan<- struct{}, readErr chan<- error) {
	for {
		var msg events.Message
		if err := websocket.JSON.Receive(ws, &msg); err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.Debug("websocket receive failed", logging.Error(err))
			}
			readErr <- err
			return
		}
		if msg.Type == events.TypeHealth {
			select {
			case pongs <- struct{}{}:
			default:
			}
			continue
		}
		// Requests run off the read loop so pongs keep flowing during a
		// slow fetch, and outlive the connection once started.
		s.inflight.Add(1)
		go func(msg events.Message) {
			defer s.inflight.Done()
			s.daemon.bridge.Handle(context.WithoutCancel(ctx), msg)
		}(msg)
	}
}

func (s *apiServer) allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", kindMethod)
	return false
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Debug("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message, kind string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Kind: kind})
}
