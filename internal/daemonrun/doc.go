// Package daemonrun bootstraps the daemon process: logger, preflight
// checks, PID file, history store, and signal-driven shutdown.
package daemonrun
