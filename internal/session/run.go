package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"vinyasa/internal/feedback"
	"vinyasa/internal/posesource"
)

// Run drains source through Evaluate until the stream ends or ctx is
// cancelled; both end the session normally. Run does not close the engine;
// callers call Close to collect the summary.
func (e *Engine) Run(ctx context.Context, source posesource.Source) error {
	return e.RunWith(ctx, source, nil)
}

// RunWith is Run with a per-cycle observer: observe is invoked after every
// cycle with the chosen candidate, nil for silent cycles, so callers can
// drive a live display.
func (e *Engine) RunWith(ctx context.Context, source posesource.Source, observe func(*feedback.Candidate)) error {
	for {
		frame, err := source.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			e.logger.Debug("frame source ended")
			return nil
		case errors.Is(err, context.Canceled):
			e.logger.Debug("session stop requested")
			return nil
		case err != nil:
			return fmt.Errorf("read pose frame: %w", err)
		}

		// Journal failures are advisory; the cycle already logged them
		// and the in-memory record stays authoritative.
		candidate, _ := e.Evaluate(frame)
		if observe != nil {
			observe(candidate)
		}
	}
}
