// Package logging assembles structured slog loggers and formatting helpers used
// across subgrab.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so proxy and download code can
// tag log lines with item IDs, track IDs, and correlation IDs. A StreamHub
// keeps recent records in memory for the daemon's log API. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
