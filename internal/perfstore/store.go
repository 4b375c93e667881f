// Package perfstore persists the performance record as plain JSON documents
// under the data directory.
//
// Layout:
//
//	events.jsonl        append-only measurement journal, one event per line
//	personal_bests.json derived all-time bests, keyed pose_angle
//	daily_bests.json    derived per-date bests, keyed date then pose_angle
//	sessions/<id>.json  one recording document per practice session
//
// The journal is the source of truth. The snapshot documents are derived,
// human-auditable views rewritten atomically; anything lost or corrupted in
// them can be rebuilt from the journal. Loading the journal is tolerant: a
// line truncated by an interrupted append is skipped, which also makes the
// tracker's append retry safe after a partial write.
package perfstore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"vinyasa/internal/fileutil"
	"vinyasa/internal/logging"
	"vinyasa/internal/tracker"
)

// Journal and snapshot file names under the data directory.
const (
	eventsFile        = "events.jsonl"
	personalBestsFile = "personal_bests.json"
	dailyBestsFile    = "daily_bests.json"
	sessionsDirName   = "sessions"
)

// maxJournalLine bounds a single journal entry when scanning.
const maxJournalLine = 1 << 20

// Store reads and writes the on-disk performance record. Files and
// directories are created lazily on first write.
type Store struct {
	dataDir string
	logger  *slog.Logger
	mu      sync.Mutex
}

// New builds a store rooted at dataDir.
func New(dataDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{dataDir: dataDir, logger: logger}
}

// DataDir returns the store's root directory.
func (s *Store) DataDir() string { return s.dataDir }

// EventsPath returns the journal location.
func (s *Store) EventsPath() string { return filepath.Join(s.dataDir, eventsFile) }

// PersonalBestsPath returns the all-time best snapshot location.
func (s *Store) PersonalBestsPath() string { return filepath.Join(s.dataDir, personalBestsFile) }

// DailyBestsPath returns the per-date best snapshot location.
func (s *Store) DailyBestsPath() string { return filepath.Join(s.dataDir, dailyBestsFile) }

// SessionsDir returns the directory holding session documents.
func (s *Store) SessionsDir() string { return filepath.Join(s.dataDir, sessionsDirName) }

// AppendEvent writes one event to the journal. The file is opened per append
// so a retry after a failure starts from a clean descriptor.
func (s *Store) AppendEvent(event tracker.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fileutil.EnsureDir(s.dataDir); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	file, err := os.OpenFile(s.EventsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event journal: %w", err)
	}
	if err := json.NewEncoder(file).Encode(event); err != nil {
		file.Close()
		return fmt.Errorf("append event: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close event journal: %w", err)
	}
	return nil
}

// LoadEvents reads the whole journal in append order. Unreadable lines are
// skipped and counted; a missing journal yields an empty history.
func (s *Store) LoadEvents() ([]tracker.Event, error) {
	file, err := os.Open(s.EventsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event journal: %w", err)
	}
	defer file.Close()

	var events []tracker.Event
	skipped := 0
	lineNo := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJournalLine)
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event tracker.Event
		if err := json.Unmarshal(line, &event); err != nil {
			skipped++
			s.logger.Debug("skipping unreadable journal line",
				logging.Int("line", lineNo),
				logging.Error(err))
			continue
		}
		if event.Pose == "" || event.Angle == "" || event.Timestamp.IsZero() {
			skipped++
			s.logger.Debug("skipping incomplete journal entry", logging.Int("line", lineNo))
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event journal: %w", err)
	}
	if skipped > 0 {
		logging.WarnWithContext(s.logger, "event journal contained unreadable entries", "event_journal_partial",
			logging.Int("skipped", skipped),
			logging.Int("loaded", len(events)),
			logging.String(logging.FieldErrorHint, "entries were likely truncated by an interrupted write"),
			logging.String(logging.FieldImpact, "the affected measurements are missing from aggregates"))
	}
	return events, nil
}

// bestKey is the snapshot document key for one tracked angle, matching the
// pose_angle naming used in session narration logs.
func bestKey(best tracker.Best) string {
	return best.Pose + "_" + best.Angle
}

// SavePersonalBests rewrites the all-time best snapshot atomically.
func (s *Store) SavePersonalBests(bests []tracker.Best) error {
	doc := make(map[string]tracker.Best, len(bests))
	for _, best := range bests {
		doc[bestKey(best)] = best
	}
	return s.saveSnapshot(s.PersonalBestsPath(), doc)
}

// SaveDailyBests rewrites the per-date best snapshot atomically.
func (s *Store) SaveDailyBests(bests []tracker.Best) error {
	doc := make(map[string]map[string]tracker.Best)
	for _, best := range bests {
		byKey, ok := doc[best.Date]
		if !ok {
			byKey = make(map[string]tracker.Best)
			doc[best.Date] = byKey
		}
		byKey[bestKey(best)] = best
	}
	return s.saveSnapshot(s.DailyBestsPath(), doc)
}

func (s *Store) saveSnapshot(path string, doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadPersonalBests reads the all-time best snapshot, sorted by pose then
// angle. A missing snapshot yields an empty slice.
func (s *Store) LoadPersonalBests() ([]tracker.Best, error) {
	var doc map[string]tracker.Best
	if err := s.loadSnapshot(s.PersonalBestsPath(), &doc); err != nil {
		return nil, err
	}
	bests := make([]tracker.Best, 0, len(doc))
	for _, best := range doc {
		bests = append(bests, best)
	}
	sort.Slice(bests, func(i, j int) bool {
		if bests[i].Pose != bests[j].Pose {
			return bests[i].Pose < bests[j].Pose
		}
		return bests[i].Angle < bests[j].Angle
	})
	return bests, nil
}

// LoadDailyBests reads the per-date best snapshot, sorted by date, pose,
// then angle. A missing snapshot yields an empty slice.
func (s *Store) LoadDailyBests() ([]tracker.Best, error) {
	var doc map[string]map[string]tracker.Best
	if err := s.loadSnapshot(s.DailyBestsPath(), &doc); err != nil {
		return nil, err
	}
	var bests []tracker.Best
	for _, byKey := range doc {
		for _, best := range byKey {
			bests = append(bests, best)
		}
	}
	sort.Slice(bests, func(i, j int) bool {
		if bests[i].Date != bests[j].Date {
			return bests[i].Date < bests[j].Date
		}
		if bests[i].Pose != bests[j].Pose {
			return bests[i].Pose < bests[j].Pose
		}
		return bests[i].Angle < bests[j].Angle
	})
	return bests, nil
}

func (s *Store) loadSnapshot(path string, doc any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot %s: %w", filepath.Base(path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}
