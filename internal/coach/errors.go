package coach

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIncompletePose marks a keypoint frame missing a landmark required
	// for normalization. The cycle skips scoring and moves on.
	ErrIncompletePose = errors.New("incomplete pose")
	// ErrMissingLandmark marks a single angle computation whose vertex or
	// ray landmark is absent. Only that measurement is skipped.
	ErrMissingLandmark = errors.New("missing landmark")
	// ErrDegenerateScale marks a frame whose torso reference length is too
	// small to normalize. The frame is treated as no detected pose.
	ErrDegenerateScale = errors.New("degenerate scale")
	// ErrPersistence marks a failed write to the performance store. Writes
	// are retried once; afterwards in-memory state stays authoritative.
	ErrPersistence = errors.New("persistence failure")
	// ErrSpeechDispatch marks a failed hand-off to the speech capability.
	// The message falls back to a textual log line.
	ErrSpeechDispatch = errors.New("speech dispatch failure")
)

// Wrap builds an error message that includes pipeline context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrPersistence
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorClassifier allows errors to declare their classification directly.
// Errors that implement this interface override sentinel-based detection.
type ErrorClassifier interface {
	// ErrorKind returns a string classification of the error, e.g.
	// "missing_landmark" or "persistence".
	ErrorKind() string
}

// ErrorKind classifies err into one of the pipeline's error kinds, or ""
// when the error carries no recognized marker.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	switch {
	case errors.Is(err, ErrIncompletePose):
		return "incomplete_pose"
	case errors.Is(err, ErrMissingLandmark):
		return "missing_landmark"
	case errors.Is(err, ErrDegenerateScale):
		return "degenerate_scale"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrSpeechDispatch):
		return "speech_dispatch"
	default:
		return ""
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
