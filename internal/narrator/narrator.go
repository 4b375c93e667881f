package narrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vinyasa/internal/logging"
)

// speakTimeout bounds a single utterance so a hung speech command cannot
// stall the narration worker indefinitely.
const speakTimeout = 10 * time.Second

// Narrator owns the narration worker. The evaluation cycle hands messages to
// Announce and never blocks on speech: the queue holds a single pending
// message and a newer one replaces it, so a slow speech command only ever
// costs stale announcements, never cycle latency.
type Narrator struct {
	speaker Speaker
	logger  *slog.Logger

	queue chan string
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// New starts the narration worker around the given speaker.
func New(speaker Speaker, logger *slog.Logger) *Narrator {
	if speaker == nil {
		speaker = noopSpeaker{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	n := &Narrator{
		speaker: speaker,
		logger:  logger,
		queue:   make(chan string, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Announce queues a message for the worker without blocking. A message
// already waiting is replaced; the utterance in flight always finishes.
func (n *Narrator) Announce(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	select {
	case <-n.stop:
		return
	default:
	}
	for {
		select {
		case n.queue <- text:
			return
		default:
		}
		select {
		case stale := <-n.queue:
			n.logger.Debug("queued narration superseded",
				logging.String("dropped", stale),
				logging.String("replacement", text))
		default:
		}
	}
}

// Speak voices a message synchronously, bypassing the queue. The session
// summary uses this so it cannot be replaced by a late announcement.
func (n *Narrator) Speak(ctx context.Context, text string) error {
	return n.speaker.Speak(ctx, text)
}

// Close stops the worker after any in-flight utterance finishes. A message
// still waiting in the queue is discarded.
func (n *Narrator) Close() {
	n.once.Do(func() {
		close(n.stop)
		<-n.done
	})
}

func (n *Narrator) run() {
	defer close(n.done)
	for {
		select {
		case <-n.stop:
			return
		case text := <-n.queue:
			n.speakQueued(text)
		}
	}
}

func (n *Narrator) speakQueued(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
	defer cancel()
	if err := n.speaker.Speak(ctx, text); err != nil {
		logging.WarnWithContext(n.logger, "speech dispatch failed", "speech_dispatch_failed",
			logging.String("text", text),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the narrator command in the config"),
			logging.String(logging.FieldImpact, "the message was logged instead of spoken"))
		return
	}
	n.logger.Debug("narration spoken", logging.String("text", text))
}
