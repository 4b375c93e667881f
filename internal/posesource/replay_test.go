package posesource_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"vinyasa/internal/config"
	"vinyasa/internal/perfstore"
	"vinyasa/internal/pose"
	"vinyasa/internal/posesource"
)

func replayDoc() perfstore.SessionDoc {
	start := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	return perfstore.SessionDoc{
		SessionID:    "20260820T090000_ab12cd34",
		Start:        start,
		End:          start.Add(2 * time.Minute),
		DurationSecs: 120,
		TotalFrames:  3,
		Frames: []perfstore.SessionFrame{
			{
				Timestamp:   start,
				FrameNumber: 10,
				Pose:        "tree_pose",
				Keypoints: map[string]pose.Point{
					pose.LeftHip:  {X: 0.5, Y: 0.62},
					pose.RightHip: {X: 0.54, Y: 0.62},
				},
			},
			{
				Timestamp:   start.Add(30 * time.Second),
				FrameNumber: 20,
				Pose:        "tree_pose",
			},
			{
				Timestamp:   start.Add(time.Minute),
				FrameNumber: 30,
				Pose:        "tree_pose",
				Keypoints: map[string]pose.Point{
					pose.LeftHip: {X: 0.51, Y: 0.63},
				},
			},
		},
	}
}

func TestReplayYieldsRecordedFramesInOrder(t *testing.T) {
	source := posesource.NewReplay(replayDoc(), nil)
	defer source.Close()
	ctx := context.Background()

	first, err := source.Next(ctx)
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if got := first.Landmarks[pose.LeftHip].X; got != 0.5 {
		t.Fatalf("first frame left_hip.X = %v, want 0.5", got)
	}

	// The middle frame has no keypoints and is skipped.
	second, err := source.Next(ctx)
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if got := second.Landmarks[pose.LeftHip].X; got != 0.51 {
		t.Fatalf("second frame left_hip.X = %v, want 0.51", got)
	}

	if _, err := source.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after the last frame = %v, want io.EOF", err)
	}
}

func TestReplayHonorsContextCancellation(t *testing.T) {
	source := posesource.NewReplay(replayDoc(), nil)
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := source.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next with cancelled context = %v, want context.Canceled", err)
	}
}

func TestReplayThroughFactoryResolvesSessionReference(t *testing.T) {
	store := perfstore.New(t.TempDir(), nil)
	path, err := store.SaveSession(replayDoc())
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	cfg := config.Default()
	cfg.Source.Kind = "replay"
	cfg.Source.ReplayPath = path

	source, err := posesource.New(context.Background(), &cfg, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer source.Close()

	frame, err := source.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got := frame.Landmarks[pose.LeftHip].X; got != 0.5 {
		t.Fatalf("left_hip.X = %v, want 0.5", got)
	}
}
