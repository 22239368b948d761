// Package apiclient is the CLI's HTTP client for the daemon API.
package apiclient
