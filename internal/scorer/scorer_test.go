package scorer_test

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"vinyasa/internal/coach"
	"vinyasa/internal/logging"
	"vinyasa/internal/pose"
	"vinyasa/internal/scorer"
	"vinyasa/internal/testsupport"
)

func shiftNormalized(norm pose.Normalized, dx, dy float64) pose.Normalized {
	shifted := pose.Normalized{Landmarks: make(map[string]pose.Point, len(norm.Landmarks))}
	for name, p := range norm.Landmarks {
		shifted.Landmarks[name] = pose.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return shifted
}

func TestEvaluateSelfScoreZero(t *testing.T) {
	libPath := testsupport.WriteLibrary(t, filepath.Join(t.TempDir(), "poses.json"),
		map[string][]map[string]pose.Point{
			"tree_pose": {testsupport.StandingLandmarks()},
		})
	lib := testsupport.MustLoadLibrary(t, libPath)

	s := scorer.New(lib, scorer.Options{Threshold: 0.15}, logging.NewNop())
	result, err := s.Evaluate(testsupport.Frame(testsupport.StandingLandmarks(), time.Now()))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !result.Known() || result.Label != "tree_pose" {
		t.Fatalf("expected tree_pose match, got %+v", result)
	}
	if result.Score > 1e-12 {
		t.Fatalf("self score = %v, want 0", result.Score)
	}
	if math.Abs(result.Confidence-1) > 1e-9 {
		t.Fatalf("self confidence = %v, want 1", result.Confidence)
	}
}

func TestMatchConfidenceFromScore(t *testing.T) {
	libPath := testsupport.WriteLibrary(t, filepath.Join(t.TempDir(), "poses.json"),
		map[string][]map[string]pose.Point{
			"tree_pose": {testsupport.StandingLandmarks()},
		})
	lib := testsupport.MustLoadLibrary(t, libPath)

	s := scorer.New(lib, scorer.Options{Threshold: 0.20}, logging.NewNop())

	// Shifting every joint by 0.2 in normalized space gives a mean squared
	// distance of exactly 0.04.
	live := shiftNormalized(lib.Exemplars("tree_pose")[0], 0.2, 0)
	result := s.Match(live)

	if result.Label != "tree_pose" {
		t.Fatalf("label = %q, want tree_pose", result.Label)
	}
	if math.Abs(result.Score-0.04) > 1e-9 {
		t.Fatalf("score = %v, want 0.04", result.Score)
	}
	if math.Abs(result.Confidence-0.8) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.8", result.Confidence)
	}
}

func TestMatchUnknownAboveThreshold(t *testing.T) {
	libPath := testsupport.WriteLibrary(t, filepath.Join(t.TempDir(), "poses.json"),
		map[string][]map[string]pose.Point{
			"tree_pose": {testsupport.StandingLandmarks()},
		})
	lib := testsupport.MustLoadLibrary(t, libPath)

	s := scorer.New(lib, scorer.Options{Threshold: 0.15}, logging.NewNop())
	live := shiftNormalized(lib.Exemplars("tree_pose")[0], 1.0, 0)
	result := s.Match(live)

	if result.Known() {
		t.Fatalf("expected unknown result, got %+v", result)
	}
	if result.Score < 0.15 {
		t.Fatalf("score = %v, expected above threshold", result.Score)
	}
}

func TestMatchConfidenceFloorForcesUnknown(t *testing.T) {
	libPath := testsupport.WriteLibrary(t, filepath.Join(t.TempDir(), "poses.json"),
		map[string][]map[string]pose.Point{
			"tree_pose": {testsupport.StandingLandmarks()},
		})
	lib := testsupport.MustLoadLibrary(t, libPath)

	s := scorer.New(lib, scorer.Options{Threshold: 0.15, ConfidenceFloor: 0.5}, logging.NewNop())

	// Mean squared distance 0.1 gives confidence 1 - 0.1/0.15 = 1/3,
	// below the 0.5 floor.
	live := shiftNormalized(lib.Exemplars("tree_pose")[0], math.Sqrt(0.1), 0)
	result := s.Match(live)

	if result.Known() {
		t.Fatalf("expected unknown under confidence floor, got %+v", result)
	}
	if math.Abs(result.Confidence-1.0/3.0) > 1e-6 {
		t.Fatalf("confidence = %v, want 1/3", result.Confidence)
	}
}

func TestMatchHysteresisKeepsPreviousLabel(t *testing.T) {
	shifted := testsupport.StandingLandmarks()
	shifted[pose.LeftWrist] = pose.Point{X: shifted[pose.LeftWrist].X + 0.03, Y: shifted[pose.LeftWrist].Y}
	shifted[pose.RightWrist] = pose.Point{X: shifted[pose.RightWrist].X + 0.03, Y: shifted[pose.RightWrist].Y}

	libPath := testsupport.WriteLibrary(t, filepath.Join(t.TempDir(), "poses.json"),
		map[string][]map[string]pose.Point{
			"a_pose": {testsupport.StandingLandmarks()},
			"b_pose": {shifted},
		})
	lib := testsupport.MustLoadLibrary(t, libPath)

	s := scorer.New(lib, scorer.Options{Threshold: 0.15, Hysteresis: 0.005}, logging.NewNop())

	first := s.Match(lib.Exemplars("b_pose")[0])
	if first.Label != "b_pose" {
		t.Fatalf("priming match = %q, want b_pose", first.Label)
	}

	// a_pose now scores best, but only by a margin inside the hysteresis
	// band, so the previous label sticks.
	second := s.Match(lib.Exemplars("a_pose")[0])
	if second.Label != "b_pose" {
		t.Fatalf("hysteresis match = %q, want b_pose", second.Label)
	}

	// With hysteresis disabled the same sequence flips immediately.
	flippy := scorer.New(lib, scorer.Options{Threshold: 0.15}, logging.NewNop())
	if r := flippy.Match(lib.Exemplars("b_pose")[0]); r.Label != "b_pose" {
		t.Fatalf("priming match = %q, want b_pose", r.Label)
	}
	if r := flippy.Match(lib.Exemplars("a_pose")[0]); r.Label != "a_pose" {
		t.Fatalf("no-hysteresis match = %q, want a_pose", r.Label)
	}
}

func TestEvaluatePropagatesIncompletePose(t *testing.T) {
	libPath := testsupport.WriteLibrary(t, filepath.Join(t.TempDir(), "poses.json"),
		map[string][]map[string]pose.Point{
			"tree_pose": {testsupport.StandingLandmarks()},
		})
	lib := testsupport.MustLoadLibrary(t, libPath)

	landmarks := testsupport.StandingLandmarks()
	delete(landmarks, pose.LeftKnee)

	s := scorer.New(lib, scorer.Options{}, logging.NewNop())
	result, err := s.Evaluate(testsupport.Frame(landmarks, time.Now()))
	if !errors.Is(err, coach.ErrIncompletePose) {
		t.Fatalf("expected incomplete pose error, got %v", err)
	}
	if result.Known() {
		t.Fatalf("expected unknown result on error, got %+v", result)
	}
}
