// Package posesource supplies keypoint frames to the evaluation cycle. The
// external pose estimator stays outside the process; this package only reads
// its output as line-delimited JSON frames, or replays a recorded session.
package posesource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"vinyasa/internal/config"
	"vinyasa/internal/logging"
	"vinyasa/internal/perfstore"
	"vinyasa/internal/pose"
)

// maxFrameLine bounds a single frame line. A full skeleton is a few hundred
// bytes; anything near this limit is a broken producer.
const maxFrameLine = 1 << 20

const dialTimeout = 5 * time.Second

// Source yields keypoint frames until the stream ends. Next returns io.EOF
// when the producer closes the stream; that ends the session normally.
type Source interface {
	Next(ctx context.Context) (pose.Frame, error)
	Close() error
}

// New builds the configured source. Replay sources resolve their session
// reference through the store; live sources optionally wait for a camera
// device first.
func New(ctx context.Context, cfg *config.Config, store *perfstore.Store, logger *slog.Logger) (Source, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Source.Kind))
	if kind != "replay" && cfg.Source.WaitCamera {
		timeout := time.Duration(cfg.Source.CameraTimeout) * time.Second
		if err := WaitForCamera(ctx, timeout, logger); err != nil {
			return nil, err
		}
	}
	switch kind {
	case "", "stdin":
		return NewStdin(logger), nil
	case "socket":
		return NewSocket(cfg.Source.Address, logger)
	case "replay":
		if store == nil {
			return nil, errors.New("replay source requires a performance store")
		}
		doc, err := store.LoadSession(cfg.Source.ReplayPath)
		if err != nil {
			return nil, fmt.Errorf("load replay session: %w", err)
		}
		return NewReplay(*doc, logger), nil
	default:
		return nil, fmt.Errorf("unknown pose source kind %q", cfg.Source.Kind)
	}
}

// NewStdin reads frames from standard input. Closing the source does not
// close stdin itself.
func NewStdin(logger *slog.Logger) Source {
	return NewReader("stdin", io.NopCloser(os.Stdin), logger)
}

// NewSocket connects to a frame producer over a unix or tcp socket.
// Addresses containing a path separator dial unix; everything else is
// treated as a tcp host:port.
func NewSocket(address string, logger *slog.Logger) (Source, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("socket pose source requires an address")
	}
	network := "tcp"
	if strings.ContainsRune(address, '/') {
		network = "unix"
	}
	conn, err := net.DialTimeout(network, address, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial pose source %s %q: %w", network, address, err)
	}
	return NewReader(address, conn, logger), nil
}

// NewReader reads line-delimited JSON frames from rc. Unreadable lines and
// frames without keypoints are skipped so one glitched line from the
// producer never ends a session.
func NewReader(name string, rc io.ReadCloser, logger *slog.Logger) Source {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &streamSource{
		name:   name,
		closer: rc,
		logger: logger,
		frames: make(chan pose.Frame),
		errs:   make(chan error, 1),
		quit:   make(chan struct{}),
	}
	go s.pump(rc)
	return s
}

// frameDoc is the wire shape of one frame line. It matches the keypoint
// fields of recorded session frames, so a recorded session can be piped
// straight back in.
type frameDoc struct {
	Timestamp time.Time             `json:"timestamp"`
	Keypoints map[string]pose.Point `json:"keypoints"`
}

func (d frameDoc) frame() pose.Frame {
	return pose.Frame{Landmarks: d.Keypoints, Timestamp: d.Timestamp}
}

type streamSource struct {
	name   string
	closer io.Closer
	logger *slog.Logger

	frames chan pose.Frame
	errs   chan error
	quit   chan struct{}
	once   sync.Once

	// failure keeps the terminal error for repeated Next calls. Only the
	// single consumer goroutine touches it.
	failure error
}

func (s *streamSource) Next(ctx context.Context) (pose.Frame, error) {
	if s.failure != nil {
		return pose.Frame{}, s.failure
	}
	select {
	case <-ctx.Done():
		return pose.Frame{}, ctx.Err()
	case frame := <-s.frames:
		return frame, nil
	case err := <-s.errs:
		s.failure = err
		return pose.Frame{}, err
	}
}

func (s *streamSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}

func (s *streamSource) pump(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var doc frameDoc
		if err := json.Unmarshal(line, &doc); err != nil {
			s.logger.Debug("skipping unreadable frame line",
				logging.String("source", s.name),
				logging.Error(err))
			continue
		}
		if len(doc.Keypoints) == 0 {
			s.logger.Debug("skipping frame without keypoints",
				logging.String("source", s.name))
			continue
		}
		select {
		case s.frames <- doc.frame():
		case <-s.quit:
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	s.errs <- err
}
