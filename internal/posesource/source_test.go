package posesource_test

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vinyasa/internal/config"
	"vinyasa/internal/posesource"
)

func TestReaderParsesFrameLines(t *testing.T) {
	input := strings.Join([]string{
		`{"timestamp":"2026-08-20T09:00:00Z","keypoints":{"left_hip":{"x":0.5,"y":0.62},"right_hip":{"x":0.54,"y":0.62}}}`,
		``,
		`not json at all`,
		`{"keypoints":{}}`,
		`{"keypoints":{"left_knee":{"x":0.48,"y":0.8}}}`,
	}, "\n") + "\n"

	source := posesource.NewReader("test", io.NopCloser(strings.NewReader(input)), nil)
	defer source.Close()
	ctx := context.Background()

	first, err := source.Next(ctx)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if got := first.Landmarks["left_hip"].X; got != 0.5 {
		t.Fatalf("left_hip.X = %v, want 0.5", got)
	}
	want := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(want) {
		t.Fatalf("Timestamp = %v, want %v", first.Timestamp, want)
	}

	// The blank, malformed, and keypoint-less lines are all skipped.
	second, err := source.Next(ctx)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if _, ok := second.Landmarks["left_knee"]; !ok {
		t.Fatalf("second frame landmarks = %v, want left_knee", second.Landmarks)
	}
	if !second.Timestamp.IsZero() {
		t.Fatalf("second frame timestamp = %v, want zero for an unstamped line", second.Timestamp)
	}

	if _, err := source.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after stream end = %v, want io.EOF", err)
	}
	if _, err := source.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("repeated Next after stream end = %v, want io.EOF", err)
	}
}

func TestReaderHonorsContextCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	source := posesource.NewReader("test", pr, nil)
	t.Cleanup(func() {
		source.Close()
		pw.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := source.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next with cancelled context = %v, want context.Canceled", err)
	}
}

func TestSocketSourceReadsUnixStream(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "frames.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		lines := `{"keypoints":{"left_hip":{"x":0.5,"y":0.6}}}` + "\n" +
			`{"keypoints":{"left_hip":{"x":0.51,"y":0.6}}}` + "\n"
		_, _ = io.WriteString(conn, lines)
	}()

	source, err := posesource.NewSocket(socketPath, nil)
	if err != nil {
		t.Fatalf("NewSocket: %v", err)
	}
	defer source.Close()

	ctx := context.Background()
	for i, wantX := range []float64{0.5, 0.51} {
		frame, err := source.Next(ctx)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got := frame.Landmarks["left_hip"].X; got != wantX {
			t.Fatalf("frame %d left_hip.X = %v, want %v", i, got, wantX)
		}
	}
	if _, err := source.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after producer close = %v, want io.EOF", err)
	}
}

func TestNewSocketRequiresAddress(t *testing.T) {
	if _, err := posesource.NewSocket("   ", nil); err == nil {
		t.Fatal("expected an error for a blank address")
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Kind = "carrier-pigeon"
	if _, err := posesource.New(context.Background(), &cfg, nil, nil); err == nil {
		t.Fatal("expected an error for an unknown source kind")
	}
}

func TestNewReplayRequiresStore(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Kind = "replay"
	cfg.Source.ReplayPath = "whatever.json"
	if _, err := posesource.New(context.Background(), &cfg, nil, nil); err == nil {
		t.Fatal("expected an error for a replay source without a store")
	}
}
