// Package manifest recognizes subtitle track listings inside platform API
// responses and projects them into downloadable tracks.
//
// Three response layouts are known: a direct manifest result, a nested
// result, and a movies collection keyed by item. Anything else is ordinary
// traffic and yields no records.
package manifest
