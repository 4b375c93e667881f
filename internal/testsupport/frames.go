package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"vinyasa/internal/library"
	"vinyasa/internal/logging"
	"vinyasa/internal/pose"
)

// StandingLandmarks returns a full key-joint set for an upright subject
// centered in frame. Hip center (0.5, 0.55), torso length 0.25.
func StandingLandmarks() map[string]pose.Point {
	return map[string]pose.Point{
		pose.LeftShoulder:  {X: 0.45, Y: 0.30},
		pose.RightShoulder: {X: 0.55, Y: 0.30},
		pose.LeftElbow:     {X: 0.40, Y: 0.40},
		pose.RightElbow:    {X: 0.60, Y: 0.40},
		pose.LeftWrist:     {X: 0.38, Y: 0.50},
		pose.RightWrist:    {X: 0.62, Y: 0.50},
		pose.LeftHip:       {X: 0.46, Y: 0.55},
		pose.RightHip:      {X: 0.54, Y: 0.55},
		pose.LeftKnee:      {X: 0.45, Y: 0.72},
		pose.RightKnee:     {X: 0.55, Y: 0.72},
		pose.LeftAnkle:     {X: 0.45, Y: 0.90},
		pose.RightAnkle:    {X: 0.55, Y: 0.90},
	}
}

// Translate returns a copy of landmarks shifted by (dx, dy).
func Translate(landmarks map[string]pose.Point, dx, dy float64) map[string]pose.Point {
	moved := make(map[string]pose.Point, len(landmarks))
	for name, p := range landmarks {
		moved[name] = pose.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return moved
}

// Frame wraps a landmark set with a capture timestamp.
func Frame(landmarks map[string]pose.Point, ts time.Time) pose.Frame {
	return pose.Frame{Landmarks: landmarks, Timestamp: ts}
}

// WriteLibrary writes a pose library document mapping labels to raw exemplar
// landmark sets and returns the file path.
func WriteLibrary(t testing.TB, path string, poses map[string][]map[string]pose.Point) string {
	t.Helper()

	labels := make([]string, 0, len(poses))
	for label := range poses {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	doc := struct {
		Version int             `json:"version"`
		Poses   []library.Entry `json:"poses"`
	}{Version: 1}
	for _, label := range labels {
		entry := library.Entry{Label: label}
		for _, landmarks := range poses[label] {
			entry.Exemplars = append(entry.Exemplars, library.Exemplar{Landmarks: landmarks})
		}
		doc.Poses = append(doc.Poses, entry)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal library document: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write library document: %v", err)
	}
	return path
}

// MustLoadLibrary loads a pose library for tests, failing on error.
func MustLoadLibrary(t testing.TB, path string) *library.Library {
	t.Helper()

	lib, err := library.Load(path, 0, logging.NewNop())
	if err != nil {
		t.Fatalf("library.Load: %v", err)
	}
	return lib
}
