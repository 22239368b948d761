// Package daemon runs the long-lived subgrab process.
//
// A Daemon holds a flock-based single-instance lock and owns three loops:
// the intercepting reverse proxy in front of the streaming site, the poller
// that tracks the playing item, and the local API server. The API serves
// REST endpoints for the CLI and a websocket that carries the same
// request/notification messages a page script would exchange.
//
// Keep orchestration here. Interception, session state, and downloads live
// in their own packages.
package daemon
