package main

import (
	"testing"

	"vinyasa/internal/pose"
	"vinyasa/internal/testsupport"
)

// Under go test, stdin reads end immediately, so a stdin-sourced coach run
// exercises the full start/preflight/close path without any frames.
func TestCoachEmptySession(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteLibrary(t, env.library, map[string][]map[string]pose.Point{
		"tree_pose": {testsupport.StandingLandmarks()},
	})

	out, _, err := runCLI(t, env, "coach", "--no-speech", "--skip-preflight")
	if err != nil {
		t.Fatalf("coach: %v", err)
	}
	requireContains(t, out, "started. Press Ctrl-C to finish.")
	requireContains(t, out, "Session summary")
	requireContains(t, out, "Frames")
}

func TestCoachPreflightFailsWithoutLibrary(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "coach", "--no-speech")
	if err == nil {
		t.Fatal("expected preflight failure without a pose library")
	}
	requireContains(t, out, "Preflight")
	requireContains(t, err.Error(), "preflight check")
}
