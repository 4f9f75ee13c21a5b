// Package logging assembles structured slog loggers and formatting helpers used
// across mbtagger.
//
// It owns the configurable console/JSON handlers, the rotated JSON log file,
// and context-aware helpers so workflow code can automatically tag log lines
// with run IDs, stages, and the album directory. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the tool.
package logging
