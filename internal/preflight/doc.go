// Package preflight provides readiness checks for the filesystem paths and
// external commands a coaching session depends on.
//
// The coach command calls RunAll after loading the configuration and refuses
// to start while any check fails, so a doomed session is caught before the
// pose source connects. Each check is gated by its config toggle -- disabled
// features are skipped.
package preflight
