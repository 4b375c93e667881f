package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vinyasa/internal/logging"
	"vinyasa/internal/perfstore"
	"vinyasa/internal/tracker"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	dataDir    string
	library    string
	archive    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		dataDir:    filepath.Join(base, "data"),
		library:    filepath.Join(base, "data", "poses.json"),
		archive:    filepath.Join(base, "data", "practice.db"),
	}

	content := fmt.Sprintf(`[paths]
data_dir = %q
library_path = %q
log_dir = %q

[source]
kind = "stdin"

[narrator]
enabled = false
speak_summary = false
command = ["true"]

[archive]
enabled = true
path = %q

[logging]
format = "json"
level = "error"
`, env.dataDir, env.library, filepath.Join(base, "logs"), env.archive)

	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}

// seedEvents appends measurement events to the journal so the read-side
// commands have something to show.
func seedEvents(t *testing.T, env *cliTestEnv, events []tracker.Event) {
	t.Helper()

	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	store := perfstore.New(env.dataDir, logging.NewNop())
	for _, event := range events {
		if err := store.AppendEvent(event); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}
}

func treeEvent(value float64, at time.Time) tracker.Event {
	return tracker.Event{
		Pose:      "tree_pose",
		Angle:     "standing_leg",
		Value:     value,
		Timestamp: at,
		SessionID: "20240101T080000_testsess",
	}
}
