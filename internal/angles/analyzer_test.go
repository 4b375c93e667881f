package angles_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"vinyasa/internal/angles"
	"vinyasa/internal/coach"
	"vinyasa/internal/logging"
	"vinyasa/internal/pose"
)

// squareFrame is a synthetic subject with exact joint geometry: right leg
// and both hips straight (180), left knee bent square (90), arms held 45
// degrees off the torso, shoulders and hips level, spine vertical.
func squareFrame() pose.Frame {
	return pose.Frame{
		Timestamp: time.Now(),
		Landmarks: map[string]pose.Point{
			pose.LeftShoulder:  {X: 0.40, Y: 0.20},
			pose.RightShoulder: {X: 0.60, Y: 0.20},
			pose.LeftElbow:     {X: 0.30, Y: 0.30},
			pose.RightElbow:    {X: 0.70, Y: 0.30},
			pose.LeftWrist:     {X: 0.20, Y: 0.40},
			pose.RightWrist:    {X: 0.80, Y: 0.40},
			pose.LeftHip:       {X: 0.40, Y: 0.50},
			pose.RightHip:      {X: 0.60, Y: 0.50},
			pose.LeftKnee:      {X: 0.40, Y: 0.70},
			pose.RightKnee:     {X: 0.60, Y: 0.70},
			pose.LeftAnkle:     {X: 0.20, Y: 0.70},
			pose.RightAnkle:    {X: 0.60, Y: 0.90},
		},
	}
}

// treeFrame is a tree pose subject: standing leg 1.7 degrees off straight,
// lifted knee exactly 70 degrees off the torso line, spine vertical.
func treeFrame() pose.Frame {
	lean := 0.2 * math.Tan(1.7*math.Pi/180)
	return pose.Frame{
		Timestamp: time.Now(),
		Landmarks: map[string]pose.Point{
			pose.LeftShoulder:  {X: 0.46, Y: 0.25},
			pose.RightShoulder: {X: 0.58, Y: 0.25},
			pose.LeftElbow:     {X: 0.40, Y: 0.35},
			pose.RightElbow:    {X: 0.64, Y: 0.35},
			pose.LeftWrist:     {X: 0.38, Y: 0.45},
			pose.RightWrist:    {X: 0.66, Y: 0.45},
			pose.LeftHip:       {X: 0.46, Y: 0.50},
			pose.RightHip:      {X: 0.58, Y: 0.50},
			pose.LeftKnee:      {X: 0.46 + 0.2*math.Sin(70*math.Pi/180), Y: 0.50 - 0.2*math.Cos(70*math.Pi/180)},
			pose.RightKnee:     {X: 0.58, Y: 0.70},
			pose.LeftAnkle:     {X: 0.60, Y: 0.60},
			pose.RightAnkle:    {X: 0.58 + lean, Y: 0.90},
		},
	}
}

func wantAngle(t *testing.T, derived map[string]float64, name string, want, tol float64) {
	t.Helper()
	got, ok := derived[name]
	if !ok {
		t.Fatalf("angle %s missing from derived set %v", name, derived)
	}
	if math.Abs(got-want) > tol {
		t.Fatalf("angle %s = %.3f, want %.3f", name, got, want)
	}
}

func TestDeriveComputesJointAngles(t *testing.T) {
	derived := angles.Derive(squareFrame())

	wantAngle(t, derived, "left_knee", 90, 1e-9)
	wantAngle(t, derived, "right_knee", 180, 1e-9)
	wantAngle(t, derived, "left_elbow", 180, 1e-6)
	wantAngle(t, derived, "right_elbow", 180, 1e-6)
	wantAngle(t, derived, "left_hip", 180, 1e-9)
	wantAngle(t, derived, "right_hip", 180, 1e-9)
	wantAngle(t, derived, "left_arm_torso", 45, 1e-9)
	wantAngle(t, derived, "right_arm_torso", 45, 1e-9)
	wantAngle(t, derived, "shoulder_line", 0, 1e-9)
	wantAngle(t, derived, "hip_line", 0, 1e-9)
	wantAngle(t, derived, "spine_vertical", 0, 1e-9)
}

func TestDeriveOmitsAnglesWithMissingLandmarks(t *testing.T) {
	frame := squareFrame()
	delete(frame.Landmarks, pose.RightKnee)

	derived := angles.Derive(frame)
	if _, ok := derived["right_knee"]; ok {
		t.Fatalf("right_knee derived despite missing landmark")
	}
	if _, ok := derived["right_hip"]; ok {
		t.Fatalf("right_hip derived despite missing knee ray")
	}
	wantAngle(t, derived, "left_knee", 90, 1e-9)
	wantAngle(t, derived, "spine_vertical", 0, 1e-9)
}

func TestMeasureResolvesAliases(t *testing.T) {
	derived := map[string]float64{
		"left_knee":       90,
		"right_knee":      175,
		"left_hip":        70,
		"hip_line":        -3,
		"left_arm_torso":  48,
		"right_arm_torso": 52,
	}

	cases := []struct {
		name string
		want float64
	}{
		{"left_knee", 90},
		{"front_knee", 90},
		{"back_leg", 175},
		{"standing_leg", 175},
		{"lifted_leg", 70},
		{"shoulder_angle", 50},
		{"hip_alignment", 3},
	}
	for _, tc := range cases {
		got, err := angles.Measure(derived, tc.name)
		if err != nil {
			t.Fatalf("Measure(%s) returned error: %v", tc.name, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Measure(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMeasureFailsWithMissingLandmark(t *testing.T) {
	derived := map[string]float64{"left_arm_torso": 48}

	for _, name := range []string{"standing_leg", "spine_vertical", "shoulder_angle", "hip_alignment"} {
		_, err := angles.Measure(derived, name)
		if !errors.Is(err, coach.ErrMissingLandmark) {
			t.Fatalf("Measure(%s) error = %v, want missing landmark", name, err)
		}
		if kind := coach.ErrorKind(err); kind != "missing_landmark" {
			t.Fatalf("Measure(%s) error kind = %q, want missing_landmark", name, kind)
		}
	}
}

func TestAnalyzeTreePose(t *testing.T) {
	analyzer := angles.NewAnalyzer(nil, logging.NewNop())
	analyses := analyzer.Analyze("tree_pose", treeFrame())

	if len(analyses) != 3 {
		t.Fatalf("expected 3 analyses, got %d: %+v", len(analyses), analyses)
	}

	standing := analyses[0]
	if standing.Angle != "standing_leg" {
		t.Fatalf("first analysis = %q, want standing_leg", standing.Angle)
	}
	if math.Abs(standing.Measured-178.3) > 0.05 {
		t.Fatalf("standing_leg measured = %.3f, want 178.3", standing.Measured)
	}
	if standing.Level != angles.LevelGood {
		t.Fatalf("standing_leg level = %q, want good", standing.Level)
	}
	if standing.Message != "Standing leg looks stable." {
		t.Fatalf("standing_leg message = %q", standing.Message)
	}
	if standing.Tip != "Decrease angle by 3.3°" {
		t.Fatalf("standing_leg tip = %q", standing.Tip)
	}

	lifted := analyses[1]
	if lifted.Angle != "lifted_leg" || lifted.Level != angles.LevelPerfect {
		t.Fatalf("lifted_leg analysis = %+v, want perfect", lifted)
	}

	spine := analyses[2]
	if spine.Angle != "spine_vertical" || spine.Level != angles.LevelPerfect {
		t.Fatalf("spine_vertical analysis = %+v, want perfect", spine)
	}

	score, grade := angles.FormScore(analyses)
	if math.Abs(score-95) > 1e-9 {
		t.Fatalf("form score = %v, want 95", score)
	}
	if grade != "Excellent!" {
		t.Fatalf("grade = %q, want Excellent!", grade)
	}
}

func TestAnalyzeContinuesPastMissingLandmark(t *testing.T) {
	frame := treeFrame()
	delete(frame.Landmarks, pose.RightKnee)

	analyzer := angles.NewAnalyzer(nil, logging.NewNop())
	analyses := analyzer.Analyze("tree_pose", frame)

	if len(analyses) != 2 {
		t.Fatalf("expected 2 analyses without the right knee, got %d: %+v", len(analyses), analyses)
	}
	if analyses[0].Angle != "lifted_leg" || analyses[1].Angle != "spine_vertical" {
		t.Fatalf("unexpected analyses: %+v", analyses)
	}
}

func TestAnalyzeUnknownPoseHasNoRequirements(t *testing.T) {
	analyzer := angles.NewAnalyzer(nil, logging.NewNop())
	if analyses := analyzer.Analyze("unknown", squareFrame()); analyses != nil {
		t.Fatalf("expected no analyses for unknown pose, got %+v", analyses)
	}
}

func TestFormScoreGrades(t *testing.T) {
	if score, grade := angles.FormScore(nil); score != 0 || grade != "No data" {
		t.Fatalf("empty form score = %v %q", score, grade)
	}

	cases := []struct {
		score float64
		want  string
	}{
		{100, "Excellent!"},
		{95, "Excellent!"},
		{94.9, "Very Good"},
		{85, "Very Good"},
		{75, "Good"},
		{65, "Fair"},
		{64.9, "Needs Work"},
	}
	for _, tc := range cases {
		if got := angles.Grade(tc.score); got != tc.want {
			t.Fatalf("Grade(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
