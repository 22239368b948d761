// Package api defines wire-format types for the daemon's HTTP API and the
// converters that build them from internal models.
//
// DTOs use camelCase JSON tags. Tracks carry a display language name and
// whether their raw bytes are already cached. Timestamps use RFC3339 with
// milliseconds. The CLI decodes the same types through apiclient.
package api
