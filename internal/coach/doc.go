// Package coach defines shared vocabulary consumed across the pose
// evaluation pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, pose labels, and frame source
//     names for logging and tracing.
//   - Structured error markers plus the Wrap helper that tag failures with
//     the pipeline's recovery semantics (skip one computation, treat the
//     frame as undetected, warn and continue, fall back to text).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, degradation) stays uniform across the
// evaluation cycle.
package coach
