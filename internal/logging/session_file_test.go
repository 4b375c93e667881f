package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vinyasa/internal/logging"
)

func TestSessionFileLoggerWritesBothStreams(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.log")

	base, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{basePath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	sessionDir := filepath.Join(dir, "logs")
	logger, closeFn, err := logging.SessionFileLogger(base, sessionDir, "20260101-120000_abcd1234", "info")
	if err != nil {
		t.Fatalf("SessionFileLogger returned error: %v", err)
	}
	logger.Info("pose detected", logging.String("pose", "tree_pose"))
	if err := closeFn(); err != nil {
		t.Fatalf("close session log: %v", err)
	}

	sessionPath := filepath.Join(sessionDir, "session_20260101-120000_abcd1234.log")
	sessionContent, err := os.ReadFile(sessionPath)
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	if !strings.Contains(string(sessionContent), "pose detected") {
		t.Fatalf("expected message in session log, got %q", sessionContent)
	}
	if !strings.Contains(string(sessionContent), "session_id=20260101-120000_abcd1234") {
		t.Fatalf("expected session id stamped on session log lines, got %q", sessionContent)
	}

	baseContent, err := os.ReadFile(basePath)
	if err != nil {
		t.Fatalf("read base log: %v", err)
	}
	if !strings.Contains(string(baseContent), "pose detected") {
		t.Fatalf("expected message fanned out to base log, got %q", baseContent)
	}
}

func TestSessionFileLoggerPreservesExplicitSessionID(t *testing.T) {
	dir := t.TempDir()
	base := logging.NewNop()

	logger, closeFn, err := logging.SessionFileLogger(base, dir, "sess-a", "info")
	if err != nil {
		t.Fatalf("SessionFileLogger returned error: %v", err)
	}
	logger.Info("relabeled", logging.String(logging.FieldSessionID, "sess-b"))
	if err := closeFn(); err != nil {
		t.Fatalf("close session log: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "session_sess-a.log"))
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	if !strings.Contains(string(content), "session_id=sess-b") {
		t.Fatalf("expected explicit session id to win, got %q", content)
	}
	if strings.Count(string(content), "session_id=") != 1 {
		t.Fatalf("expected a single session_id attribute, got %q", content)
	}
}

func TestCleanupOldLogsPrunesExpiredFiles(t *testing.T) {
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "session_old.log")
	freshPath := filepath.Join(dir, "session_fresh.log")
	keepPath := filepath.Join(dir, "session_active.log")
	unrelatedPath := filepath.Join(dir, "notes.txt")
	for _, path := range []string{oldPath, freshPath, keepPath, unrelatedPath} {
		if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -90)
	for _, path := range []string{oldPath, keepPath, unrelatedPath} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("age fixture %s: %v", path, err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 30, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "session_*.log",
		Exclude: []string{keepPath},
	})
	if removed != 1 {
		t.Fatalf("expected one removal, got %d", removed)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old session log removed, stat err=%v", err)
	}
	for _, path := range []string{freshPath, keepPath, unrelatedPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s retained: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabledByZeroRetention(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session_old.log")
	if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	stale := time.Now().AddDate(0, 0, -400)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatalf("age fixture: %v", err)
	}

	if removed := logging.CleanupOldLogs(logging.NewNop(), 0, logging.RetentionTarget{Dir: dir, Pattern: "session_*.log"}); removed != 0 {
		t.Fatalf("expected pruning disabled, removed %d", removed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file retained: %v", err)
	}
}
