// Package download turns a track request into a saved SRT file.
//
// Service.RequestDownload resolves the track against the session store,
// reuses cached raw bytes or fetches them once, converts them with the
// subtitles package, and hands the file to a Saver. Persistence failures are
// logged but do not fail the request. Every attempt is counted and, when a
// Recorder is configured, appended to the download history.
package download
