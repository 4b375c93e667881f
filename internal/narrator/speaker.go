// Package narrator turns selected feedback into speech. Speech runs through
// an external command so any TTS engine with a command line works; when
// narration is disabled the noop speaker keeps the rest of the pipeline
// oblivious.
package narrator

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"vinyasa/internal/coach"
	"vinyasa/internal/config"
)

// Speaker voices a single message. Implementations block until the message
// has been spoken or the context ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// NewSpeaker builds a speaker from the narrator configuration. Disabled
// narration or an empty command yields a noop implementation.
func NewSpeaker(cfg *config.Config) Speaker {
	if cfg == nil || !cfg.Narrator.Enabled {
		return noopSpeaker{}
	}
	command := trimCommand(cfg.Narrator.Command)
	if len(command) == 0 {
		return noopSpeaker{}
	}
	return &execSpeaker{command: command}
}

func trimCommand(command []string) []string {
	trimmed := make([]string, 0, len(command))
	for _, part := range command {
		if part = strings.TrimSpace(part); part != "" {
			trimmed = append(trimmed, part)
		}
	}
	return trimmed
}

// execSpeaker shells out to a speech command with the message appended as
// the final argument.
type execSpeaker struct {
	command []string
}

func (s *execSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	args := append(append([]string(nil), s.command[1:]...), text)
	cmd := exec.CommandContext(ctx, s.command[0], args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		if detail := strings.TrimSpace(string(output)); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return coach.Wrap(coach.ErrSpeechDispatch, "narrator", "speak", s.command[0], err)
	}
	return nil
}

type noopSpeaker struct{}

func (noopSpeaker) Speak(context.Context, string) error { return nil }
