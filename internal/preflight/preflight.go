package preflight

import (
	"strings"

	"vinyasa/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	// Data directory and its filesystem (always checked)
	results := []Result{
		CheckDataDir("Data directory", cfg.Paths.DataDir),
		CheckFreeSpace("Free space", cfg.Paths.DataDir),
		CheckLibrary("Pose library", cfg),
	}

	// Angle catalog (only when a custom one is configured; the built-in
	// catalog needs no check)
	if strings.TrimSpace(cfg.Paths.AnglesPath) != "" {
		results = append(results, CheckAngleCatalog("Angle catalog", cfg.Paths.AnglesPath))
	}

	// Speech command
	if cfg.Narrator.Enabled {
		results = append(results, CheckSpeechCommand("Speech command", cfg.Narrator.Command))
	}

	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
