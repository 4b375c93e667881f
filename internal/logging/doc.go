// Package logging assembles structured slog loggers and formatting helpers used
// across the vinyasa pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with session IDs, pose labels, and frame
// sources. The package also provides a no-op logger for tests and wiring code
// that cannot fail, plus per-session log files that tee into the main stream.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
