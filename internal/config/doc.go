// Package config loads, normalizes, and validates subgrab configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUBGRAB_UPSTREAM and SUBGRAB_API_TOKEN. The Config type centralizes every
// knob the daemon and CLI need: proxy listener and upstream, playing-item
// detection, output naming, and the control API.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
