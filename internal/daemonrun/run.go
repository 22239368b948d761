package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"subgrab/internal/config"
	"subgrab/internal/daemon"
	"subgrab/internal/history"
	"subgrab/internal/logging"
	"subgrab/internal/metrics"
	"subgrab/internal/preflight"
)

// logHubCapacity bounds the in-memory log buffer served by /api/logs.
const logHubCapacity = 4096

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
}

// Run starts the subgrab daemon and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logHub := logging.NewStreamHub(logHubCapacity)
	logger, err := logging.NewFromConfig(cfg, logHub)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	checks := preflight.RunAll(signalCtx, cfg)
	logPreflight(logger, checks)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = openHistory(signalCtx, cfg, logger)
		if err != nil {
			return err
		}
	}

	d, err := daemon.New(daemon.Options{
		Config:  cfg,
		Logger:  logger,
		LogHub:  logHub,
		History: store,
		Metrics: metrics.New(),
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()
	d.SetChecks(checks)

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.String(logging.FieldErrorHint, "check proxy.listen, api.bind, and for another running instance"),
			logging.String(logging.FieldImpact, "no traffic is intercepted"),
			logging.Error(err),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("subgrab daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*history.Store, error) {
	store, err := history.Open(ctx, cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if cfg.History.RetentionDays <= 0 {
		return store, nil
	}
	cutoff := time.Now().AddDate(0, 0, -cfg.History.RetentionDays)
	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(logger, "history prune failed", "history_prune_failed",
			logging.String(logging.FieldErrorHint, "check the history database at "+cfg.HistoryPath()),
			logging.String(logging.FieldImpact, "old entries are kept"),
			logging.Error(err),
		)
	} else if removed > 0 {
		logger.Info("history pruned",
			logging.String(logging.FieldEventType, "history_pruned"),
			logging.Int64("removed", removed),
			logging.Int("retention_days", cfg.History.RetentionDays),
		)
	}
	return store, nil
}

func logPreflight(logger *slog.Logger, results []preflight.Result) {
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String(logging.FieldEventType, "preflight_passed"),
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run `subgrab status` after fixing the reported path or address"),
			logging.String(logging.FieldImpact, "downloads or interception may fail"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
