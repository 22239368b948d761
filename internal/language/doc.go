// Package language turns platform language codes into display names for
// track listings and log output.
package language
