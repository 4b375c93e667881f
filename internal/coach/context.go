package coach

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	poseKey      contextKey = "pose"
	sourceKey    contextKey = "source"
)

// WithSessionID annotates context with the practice session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPose annotates context with the currently detected pose label.
func WithPose(ctx context.Context, label string) context.Context {
	if label == "" {
		return ctx
	}
	return context.WithValue(ctx, poseKey, label)
}

// PoseFromContext returns the detected pose label if present.
func PoseFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(poseKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSource annotates context with the frame source name (socket, stdin,
// replay).
func WithSource(ctx context.Context, source string) context.Context {
	if source == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the frame source name if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
