package angles_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vinyasa/internal/angles"
)

func TestLevelForBands(t *testing.T) {
	req, ok := angles.Builtin().Lookup("warrior_2", "hip_alignment")
	if !ok {
		t.Fatalf("hip_alignment requirement missing from warrior_2")
	}

	cases := []struct {
		measured float64
		want     angles.Level
	}{
		{0, angles.LevelPerfect},
		{1.4, angles.LevelPerfect},
		{1.5, angles.LevelPerfect}, // half-tolerance boundary still perfect
		{2.9, angles.LevelGood},
		{3.0, angles.LevelGood},
		{4.0, angles.LevelNeedsAdjustment},
		{5.0, angles.LevelNeedsAdjustment},
		{5.1, angles.LevelPoor},
		{12.0, angles.LevelPoor},
	}
	for _, tc := range cases {
		if got := req.LevelFor(tc.measured); got != tc.want {
			t.Fatalf("LevelFor(%v) = %q, want %q", tc.measured, got, tc.want)
		}
	}
}

func TestLevelScores(t *testing.T) {
	scores := map[angles.Level]float64{
		angles.LevelPerfect:         100,
		angles.LevelGood:            85,
		angles.LevelNeedsAdjustment: 70,
		angles.LevelPoor:            50,
	}
	for level, want := range scores {
		if got := level.Score(); got != want {
			t.Fatalf("%s score = %v, want %v", level, got, want)
		}
	}
}

func TestMessageFallback(t *testing.T) {
	req := angles.Requirement{Name: "left_knee", Min: 85, Max: 95, Optimal: 90, Tolerance: 5}
	got := req.MessageFor(angles.LevelGood, 83.4)
	want := "Angle is 83.4°, target is 90.0°"
	if got != want {
		t.Fatalf("fallback message = %q, want %q", got, want)
	}

	req.Messages.Good = "Close to target."
	if got := req.MessageFor(angles.LevelGood, 83.4); got != "Close to target." {
		t.Fatalf("table message = %q, want table text", got)
	}
}

func TestTipPointsTowardOptimal(t *testing.T) {
	req := angles.Requirement{Name: "left_knee", Min: 85, Max: 95, Optimal: 90, Tolerance: 5}

	if got := req.Tip(85); got != "Increase angle by 5.0°" {
		t.Fatalf("low tip = %q", got)
	}
	if got := req.Tip(93.2); got != "Decrease angle by 3.2°" {
		t.Fatalf("high tip = %q", got)
	}
	if got := req.Tip(90); got != "Perfect! Maintain this position." {
		t.Fatalf("exact tip = %q", got)
	}
}

func TestDirectionBetter(t *testing.T) {
	if !angles.LargerIsBetter.Better(178, 176) {
		t.Fatalf("larger direction should prefer 178 over 176")
	}
	if angles.LargerIsBetter.Better(176, 176) {
		t.Fatalf("equal values are not strictly better")
	}
	if !angles.SmallerIsBetter.Better(2, 4) {
		t.Fatalf("smaller direction should prefer 2 over 4")
	}
	if angles.SmallerIsBetter.Better(4, 2) {
		t.Fatalf("smaller direction should reject 4 over 2")
	}
}

func TestBuiltinCatalog(t *testing.T) {
	defs := angles.Builtin()
	if err := defs.Validate(); err != nil {
		t.Fatalf("builtin catalog failed validation: %v", err)
	}

	wantPoses := []string{"downward_dog", "tree_pose", "warrior_2"}
	gotPoses := defs.Poses()
	if len(gotPoses) != len(wantPoses) {
		t.Fatalf("poses = %v, want %v", gotPoses, wantPoses)
	}
	for i, label := range wantPoses {
		if gotPoses[i] != label {
			t.Fatalf("poses = %v, want %v", gotPoses, wantPoses)
		}
	}

	// Labels resolve through the same sanitization the library uses.
	if got := defs.Requirements("Tree Pose"); len(got) != 3 {
		t.Fatalf("Requirements(\"Tree Pose\") returned %d requirements, want 3", len(got))
	}

	req, ok := defs.Lookup("tree_pose", "standing_leg")
	if !ok {
		t.Fatalf("standing_leg requirement missing from tree_pose")
	}
	if req.Direction != angles.LargerIsBetter {
		t.Fatalf("standing_leg direction = %q, want larger", req.Direction)
	}
	if req, _ := defs.Lookup("tree_pose", "spine_vertical"); req.Direction != angles.SmallerIsBetter {
		t.Fatalf("spine_vertical direction = %q, want smaller", req.Direction)
	}
}

func TestLoadFileDefaultsDirection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "angles.json")
	doc := `{
  "chair_pose": [
    {"name": "left_knee", "min_angle": 80, "max_angle": 110, "optimal_angle": 95, "tolerance": 8}
  ]
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	defs, err := angles.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	req, ok := defs.Lookup("chair_pose", "left_knee")
	if !ok {
		t.Fatalf("left_knee requirement missing after load")
	}
	if req.Direction != angles.LargerIsBetter {
		t.Fatalf("default direction = %q, want larger", req.Direction)
	}
}

func TestLoadFileRejectsBadCatalogs(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown angle",
			doc:  `{"chair_pose": [{"name": "flying_leg", "min_angle": 0, "max_angle": 10, "optimal_angle": 5, "tolerance": 2}]}`,
			want: "no known measurement",
		},
		{
			name: "zero tolerance",
			doc:  `{"chair_pose": [{"name": "left_knee", "min_angle": 80, "max_angle": 110, "optimal_angle": 95, "tolerance": 0}]}`,
			want: "tolerance",
		},
		{
			name: "optimal outside band",
			doc:  `{"chair_pose": [{"name": "left_knee", "min_angle": 80, "max_angle": 110, "optimal_angle": 120, "tolerance": 5}]}`,
			want: "does not contain optimal",
		},
		{
			name: "bad direction",
			doc:  `{"chair_pose": [{"name": "left_knee", "min_angle": 80, "max_angle": 110, "optimal_angle": 95, "tolerance": 5, "direction": "sideways"}]}`,
			want: "direction",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "angles.json")
			if err := os.WriteFile(path, []byte(tc.doc), 0o644); err != nil {
				t.Fatalf("write catalog: %v", err)
			}
			_, err := angles.LoadFile(path)
			if err == nil {
				t.Fatalf("LoadFile accepted invalid catalog")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "angles.json")
	if err := angles.Builtin().SaveFile(path); err != nil {
		t.Fatalf("SaveFile returned error: %v", err)
	}

	defs, err := angles.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	req, ok := defs.Lookup("warrior_2", "front_knee")
	if !ok {
		t.Fatalf("front_knee requirement missing after round trip")
	}
	if req.Optimal != 90 || req.Tolerance != 5 || req.Direction != angles.SmallerIsBetter {
		t.Fatalf("front_knee requirement changed in round trip: %+v", req)
	}
	if req.Messages.Perfect != "Perfect 90-degree front knee! Excellent warrior pose." {
		t.Fatalf("front_knee perfect message changed in round trip: %q", req.Messages.Perfect)
	}
}
