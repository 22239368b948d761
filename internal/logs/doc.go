// Package logs reads daemon logs for the CLI.
//
// Stream prefers the daemon's /api/logs feed and falls back to tailing the
// log file directly when the API is unreachable. Tail works in complete
// lines with resumable byte offsets, so follow mode never emits half a
// JSON record.
package logs
