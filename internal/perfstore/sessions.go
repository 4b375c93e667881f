package perfstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vinyasa/internal/fileutil"
	"vinyasa/internal/logging"
	"vinyasa/internal/pose"
)

// SessionFrame is one sampled evaluation cycle kept in a session document.
// Keypoints are the raw landmark coordinates, so a saved session can be
// replayed through the pipeline as a frame source.
type SessionFrame struct {
	Timestamp   time.Time             `json:"timestamp"`
	FrameNumber int                   `json:"frame_number"`
	Pose        string                `json:"detected_pose"`
	Score       float64               `json:"similarity_score"`
	Confidence  float64               `json:"confidence"`
	Keypoints   map[string]pose.Point `json:"keypoints,omitempty"`
}

// SessionSummary is the achievement roll-up for one session.
type SessionSummary struct {
	PersonalBests  int      `json:"personal_bests"`
	DailyBests     int      `json:"daily_bests"`
	Improvements   int      `json:"improvements"`
	Measurements   int      `json:"measurements"`
	PosesPracticed []string `json:"poses_practiced"`
	AverageForm    float64  `json:"average_form_score"`
}

// SessionDoc is the recording document for one practice session.
type SessionDoc struct {
	SessionID    string         `json:"session_id"`
	Start        time.Time      `json:"session_start"`
	End          time.Time      `json:"session_end"`
	DurationSecs float64        `json:"duration_seconds"`
	TotalFrames  int            `json:"total_frames"`
	Frames       []SessionFrame `json:"frames"`
	Summary      SessionSummary `json:"summary"`
}

// SessionInfo is the listing view of a stored session document.
type SessionInfo struct {
	SessionID    string
	Path         string
	Start        time.Time
	DurationSecs float64
	TotalFrames  int
	Summary      SessionSummary
}

// SaveSession writes a session document atomically and returns its path.
func (s *Store) SaveSession(doc SessionDoc) (string, error) {
	if strings.TrimSpace(doc.SessionID) == "" {
		return "", fmt.Errorf("session document has no session id")
	}
	path := filepath.Join(s.SessionsDir(), doc.SessionID+".json")

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session document: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write session document: %w", err)
	}
	return path, nil
}

// LoadSession reads one session document by id or by path.
func (s *Store) LoadSession(ref string) (*SessionDoc, error) {
	path := ref
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(s.SessionsDir(), ref)
		if !strings.HasSuffix(path, ".json") {
			path += ".json"
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session document: %w", err)
	}
	var doc SessionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode session document %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// ListSessions returns the stored sessions, newest first. Documents that do
// not decode are skipped so one bad file cannot hide the rest.
func (s *Store) ListSessions() ([]SessionInfo, error) {
	entries, err := os.ReadDir(s.SessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	var sessions []SessionInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.SessionsDir(), entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Debug("skipping unreadable session document",
				logging.String("file", entry.Name()),
				logging.Error(err))
			continue
		}
		var doc SessionDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			s.logger.Debug("skipping undecodable session document",
				logging.String("file", entry.Name()),
				logging.Error(err))
			continue
		}
		if doc.SessionID == "" {
			doc.SessionID = strings.TrimSuffix(entry.Name(), ".json")
		}
		sessions = append(sessions, SessionInfo{
			SessionID:    doc.SessionID,
			Path:         path,
			Start:        doc.Start,
			DurationSecs: doc.DurationSecs,
			TotalFrames:  doc.TotalFrames,
			Summary:      doc.Summary,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Start.After(sessions[j].Start)
	})
	return sessions, nil
}
