package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"subgrab/internal/bridge"
	"subgrab/internal/config"
	"subgrab/internal/download"
	"subgrab/internal/events"
	"subgrab/internal/history"
	"subgrab/internal/intercept"
	"subgrab/internal/logging"
	"subgrab/internal/metrics"
	"subgrab/internal/notifications"
	"subgrab/internal/preflight"
	"subgrab/internal/session"
	"subgrab/internal/subtitles"
)

const shutdownTimeout = 5 * time.Second

// Options carries the daemon's collaborators. Only Config is required.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	LogHub  *logging.StreamHub
	History *history.Store
	Metrics *metrics.Metrics
	// Source overrides the configured page source.
	Source session.ItemSource
	// Fetcher and Saver override the HTTP fetcher and output directory saver.
	Fetcher download.Fetcher
	Saver   download.Saver
	// UpstreamTransport is the proxy's base round tripper.
	UpstreamTransport http.RoundTripper
	// Notifier overrides the ntfy service built from config.
	Notifier notifications.Service
	// Heartbeat overrides the websocket ping interval.
	Heartbeat time.Duration
}

// Daemon runs the intercepting proxy, the item poller, and the API server
// under a single-instance lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	logHub   *logging.StreamHub
	history  *history.Store
	metrics  *metrics.Metrics
	store    *session.Store
	hub      *events.Hub
	bridge   *bridge.Bridge
	poller   *session.Poller
	notifier notifications.Service
	proxy    http.Handler
	upstream *url.URL

	lock *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	proxySrv  *http.Server
	proxyAddr string
	api       *apiServer

	checksMu sync.RWMutex
	checks   []preflight.Result
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	ProxyAddress  string
	APIAddress    string
	Upstream      string
	Session       session.Snapshot
	Subscribers   int
	HistoryDBPath string
	LockFilePath  string
	LogPath       string
	Checks        []preflight.Result
}

// New wires the daemon's components from opts.
func New(opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	upstream, err := url.Parse(cfg.Proxy.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		logHub:   opts.LogHub,
		history:  opts.History,
		metrics:  opts.Metrics,
		store:    session.NewStore(),
		upstream: upstream,
		lock:     flock.New(cfg.LockPath()),
	}
	d.hub = events.NewHub(logger, opts.Metrics)
	d.notifier = opts.Notifier
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}

	saver := opts.Saver
	if saver == nil {
		saver = download.DirSaver{Dir: cfg.Paths.OutputDir}
	}
	svcOpts := download.Options{
		Store:          d.store,
		Fetcher:        opts.Fetcher,
		Saver:          saver,
		Metrics:        opts.Metrics,
		Logger:         logger,
		FilenamePrefix: cfg.Download.FilenamePrefix,
		Convert: subtitles.Options{
			BidiFix:         cfg.Download.BidiFix,
			NormalizeTiming: cfg.Download.NormalizeTiming,
		},
	}
	if opts.History != nil {
		svcOpts.History = opts.History
	}
	d.bridge = bridge.New(d.store, download.NewService(svcOpts), d.hub, logger)

	source := opts.Source
	if source == nil {
		source = session.NewPageSource(cfg.Session.PageSource, cfg.Session.Attribute)
	}
	d.poller = session.NewPoller(d.store, source, cfg.PollInterval(), logger)
	d.poller.OnChange(d.bridge.ItemChanged)

	interceptor := intercept.New(intercept.Options{
		Format:  cfg.Proxy.DeliveryFormat,
		Sink:    d.bridge,
		Logger:  logger,
		Metrics: opts.Metrics,
	})
	transport := &intercept.Transport{
		Base:         opts.UpstreamTransport,
		Interceptor:  interceptor,
		MaxBodyBytes: cfg.Proxy.MaxBodyBytes,
		Paths:        cfg.Proxy.InterceptPaths,
		Logger:       logger,
		Metrics:      opts.Metrics,
	}
	d.proxy = intercept.NewReverseProxy(upstream, transport, logger)
	d.api = newAPIServer(cfg, d, logger)
	if opts.Heartbeat > 0 {
		d.api.heartbeat = opts.Heartbeat
	}
	return d, nil
}

// Start acquires the lock and launches the proxy, the poller, and the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subgrab daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.startProxy(); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	if err := d.api.start(); err != nil {
		cancel()
		d.shutdownProxy()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.poller.Run(runCtx)
	}()
	if d.cfg.Session.Watch && d.cfg.Session.PageSource != "" && !d.cfg.IsPageURL() {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := session.WatchFile(runCtx, d.cfg.Session.PageSource, d.poller.Nudge, d.logger); err != nil && !errors.Is(err, context.Canceled) {
				logging.WarnWithContext(d.logger, "page watcher stopped", "watcher_stopped",
					logging.String(logging.FieldErrorHint, "check session.page_source"),
					logging.String(logging.FieldImpact, "item changes are picked up on the next poll"),
					logging.Error(err),
				)
			}
		}()
	}

	if notifications.Enabled(d.notifier) {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			notifications.Forward(runCtx, d.hub, d.notifier, notifications.ForwardOptions{
				TracksAvailable: d.cfg.Notifications.TracksAvailable,
			}, d.logger)
		}()
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("subgrab daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("proxy", d.proxyAddr),
		logging.String("api", d.api.address()),
		logging.String("upstream", d.upstream.String()),
		logging.String("lock", d.cfg.LockPath()),
	)
	return nil
}

func (d *Daemon) startProxy() error {
	listener, err := net.Listen("tcp", d.cfg.Proxy.Listen)
	if err != nil {
		return fmt.Errorf("proxy listen: %w", err)
	}
	d.proxyAddr = listener.Addr().String()
	d.proxySrv = &http.Server{
		Handler:           d.proxy,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := d.proxySrv
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(d.logger, "proxy server error", "proxy_serve_failed",
				logging.String(logging.FieldErrorHint, "check proxy.listen"),
				logging.Error(err),
			)
		}
	}()
	return nil
}

func (d *Daemon) shutdownProxy() {
	if d.proxySrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = d.proxySrv.Shutdown(ctx)
	d.proxySrv = nil
}

// Stop shuts down the servers, waits for background loops, and releases
// the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.shutdownProxy()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.String(logging.FieldErrorHint, "remove "+d.cfg.LockPath()+" if no daemon is running"),
			logging.String(logging.FieldImpact, "the next start may report a running instance"),
			logging.Error(err),
		)
	}
	d.running.Store(false)
	d.logger.Info("subgrab daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and closes the history store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// SetChecks records preflight results for status reporting.
func (d *Daemon) SetChecks(results []preflight.Result) {
	d.checksMu.Lock()
	d.checks = results
	d.checksMu.Unlock()
}

// ProxyAddress returns the bound proxy address once started.
func (d *Daemon) ProxyAddress() string { return d.proxyAddr }

// APIAddress returns the bound API address once started.
func (d *Daemon) APIAddress() string { return d.api.address() }

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.checksMu.RLock()
	checks := d.checks
	d.checksMu.RUnlock()

	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		ProxyAddress: d.proxyAddr,
		APIAddress:   d.api.address(),
		Upstream:     d.upstream.String(),
		Session:      d.store.Snapshot(),
		Subscribers:  d.hub.Subscribers(),
		LockFilePath: d.cfg.LockPath(),
		LogPath:      logging.LogFilePath(d.cfg),
		Checks:       checks,
	}
	if d.history != nil {
		status.HistoryDBPath = d.history.Path()
	}
	return status
}

// Bridge exposes the request handler for in-process callers.
func (d *Daemon) Bridge() *bridge.Bridge { return d.bridge }

// Store exposes the session store.
func (d *Daemon) Store() *session.Store { return d.store }

// Events exposes the notification hub.
func (d *Daemon) Events() *events.Hub { return d.hub }

// LogStream returns the in-memory log hub, if any.
func (d *Daemon) LogStream() *logging.StreamHub { return d.logHub }
