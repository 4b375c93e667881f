package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Pose library", statusOK, "/tmp/poses.json (3 poses)", false)
	if !strings.Contains(line, "Pose library:") {
		t.Fatalf("missing label: %q", line)
	}
	if !strings.Contains(line, "[OK] /tmp/poses.json (3 poses)") {
		t.Fatalf("missing status text: %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("unexpected color codes without colorize: %q", line)
	}

	colored := renderStatusLine("Free space", statusError, "full", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red wrapping: %q", colored)
	}
}

func TestRenderStatusLineWithoutMessage(t *testing.T) {
	line := renderStatusLine("Session", statusInfo, "", false)
	if !strings.HasSuffix(strings.TrimRight(line, " "), "[INFO]") {
		t.Fatalf("expected bare status: %q", line)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Session summary", false)
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %d lines", len(lines))
	}
	if lines[0] != "== Session summary ==" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if len(lines[1]) != len(lines[0]) {
		t.Fatalf("rule length %d does not match header %d", len(lines[1]), len(lines[0]))
	}
}

func TestShouldColorizeBuffer(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("a plain buffer is not a terminal")
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"POSE", "VALUE"},
		[][]string{{"tree_pose", "178.3°"}, {"warrior_2"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "tree_pose") || !strings.Contains(out, "178.3°") {
		t.Fatalf("missing cells:\n%s", out)
	}
	if !strings.Contains(out, "warrior_2") {
		t.Fatalf("ragged row dropped:\n%s", out)
	}
}
