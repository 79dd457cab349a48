// Package logging assembles the structured slog loggers used across docsort.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so pipeline code tags log lines
// with run IDs and component names consistently. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
