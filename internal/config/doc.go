// Package config loads, normalizes, and validates vinyasa configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the coach and CLI need, from detection thresholds to the speech command,
// so session wiring discovers everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
