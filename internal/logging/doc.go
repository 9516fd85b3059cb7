// Package logging assembles the structured slog loggers used by the unf
// commands, the report store daemon and the packages that do I/O.
//
// It owns the console and JSON handlers, level and output plumbing, the
// standard field keys, and a no-op logger for tests and library callers that
// do not want output. The fingerprint core never logs.
package logging
