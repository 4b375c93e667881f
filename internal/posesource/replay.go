package posesource

import (
	"context"
	"io"
	"log/slog"

	"vinyasa/internal/logging"
	"vinyasa/internal/perfstore"
	"vinyasa/internal/pose"
)

// NewReplay yields the recorded frames of a session document in order.
// Frames recorded without keypoints carry nothing to evaluate and are
// skipped up front.
func NewReplay(doc perfstore.SessionDoc, logger *slog.Logger) Source {
	if logger == nil {
		logger = logging.NewNop()
	}
	frames := make([]pose.Frame, 0, len(doc.Frames))
	skipped := 0
	for _, recorded := range doc.Frames {
		if len(recorded.Keypoints) == 0 {
			skipped++
			continue
		}
		frames = append(frames, pose.Frame{
			Landmarks: recorded.Keypoints,
			Timestamp: recorded.Timestamp,
		})
	}
	if skipped > 0 {
		logger.Debug("replay skipping frames without keypoints",
			logging.String("session_id", doc.SessionID),
			logging.Int("skipped", skipped),
			logging.Int("replayable", len(frames)))
	}
	return &replaySource{frames: frames}
}

type replaySource struct {
	frames []pose.Frame
	index  int
}

func (s *replaySource) Next(ctx context.Context) (pose.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pose.Frame{}, err
	}
	if s.index >= len(s.frames) {
		return pose.Frame{}, io.EOF
	}
	frame := s.frames[s.index]
	s.index++
	return frame, nil
}

func (s *replaySource) Close() error { return nil }
