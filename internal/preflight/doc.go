// Package preflight provides readiness checks for the directories, the
// upstream host, and the page snapshot that subgrab depends on.
//
// The daemon runs RunAll at startup and logs failures without refusing to
// start; "subgrab status" shows the same results. Listen addresses are
// checked separately with CheckListenAddress before the daemon binds them.
package preflight
