// Package logging assembles structured slog loggers for the symphonia CLI.
//
// It owns the console and JSON handlers, level and output plumbing, a tee
// handler that mirrors console output into a JSON log file, and helpers that
// tag log lines with the component and run id. NewNop provides a silent
// logger for tests and wiring code that cannot fail.
package logging
