// Package scorer matches normalized live poses against the reference library.
package scorer

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"vinyasa/internal/library"
	"vinyasa/internal/logging"
	"vinyasa/internal/pose"
)

// Unknown is the label reported when no reference matches confidently.
const Unknown = "unknown"

// DefaultThreshold is the similarity score above which a frame is unknown.
const DefaultThreshold = 0.15

// Result is the outcome of matching one frame, recomputed every cycle.
type Result struct {
	Label      string
	Score      float64
	Confidence float64
}

// Known reports whether the frame matched a reference pose.
func (r Result) Known() bool {
	return r.Label != "" && r.Label != Unknown
}

// Options tune the matching policy.
type Options struct {
	// Threshold is the highest mean squared key-joint distance that still
	// counts as a match.
	Threshold float64
	// ConfidenceFloor forces the label to unknown when derived confidence
	// drops below it.
	ConfidenceFloor float64
	// Hysteresis keeps the previously detected label when the best label's
	// score is within this margin of it. Zero disables the policy.
	Hysteresis float64
	// ScaleEpsilon is passed through to normalization.
	ScaleEpsilon float64
}

// Scorer compares live frames against the library, carrying the previous
// label across cycles for hysteresis. Not safe for concurrent use; the
// evaluation cycle is single threaded.
type Scorer struct {
	library *library.Library
	opts    Options
	logger  *slog.Logger

	previous string
}

// New builds a Scorer over the given library.
func New(lib *library.Library, opts Options, logger *slog.Logger) *Scorer {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scorer{library: lib, opts: opts, logger: logger}
}

// Evaluate normalizes frame and returns the best matching label, score, and
// confidence. Normalization failures propagate so the caller can treat the
// frame as no detected pose.
func (s *Scorer) Evaluate(frame pose.Frame) (Result, error) {
	norm, err := pose.Normalize(frame, pose.KeyJoints, s.opts.ScaleEpsilon)
	if err != nil {
		return Result{Label: Unknown}, err
	}
	return s.Match(norm), nil
}

// Match scores an already normalized pose against every reference label.
func (s *Scorer) Match(norm pose.Normalized) Result {
	scores := make(map[string]float64, s.library.Len())
	bestLabel := ""
	bestScore := 0.0
	for _, label := range s.library.Labels() {
		labelBest := 0.0
		found := false
		for _, exemplar := range s.library.Exemplars(label) {
			score := meanSquaredDistance(norm, exemplar)
			if !found || score < labelBest {
				labelBest = score
				found = true
			}
		}
		if !found {
			continue
		}
		scores[label] = labelBest
		if bestLabel == "" || labelBest < bestScore {
			bestLabel, bestScore = label, labelBest
		}
	}

	if bestLabel == "" {
		return Result{Label: Unknown}
	}

	label, score := bestLabel, bestScore
	reason := "best_score"
	if s.opts.Hysteresis > 0 && s.previous != "" && s.previous != bestLabel {
		if prevScore, ok := scores[s.previous]; ok && prevScore-bestScore <= s.opts.Hysteresis {
			label, score = s.previous, prevScore
			reason = "hysteresis"
		}
	}

	if score > s.opts.Threshold {
		s.logDecision(Unknown, "above_threshold", score)
		return Result{Label: Unknown, Score: score}
	}

	confidence := 1 - score/s.opts.Threshold
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	if confidence < s.opts.ConfidenceFloor {
		s.logDecision(Unknown, "below_confidence_floor", score)
		return Result{Label: Unknown, Score: score, Confidence: confidence}
	}

	s.previous = label
	s.logDecision(label, reason, score)
	return Result{Label: label, Score: score, Confidence: confidence}
}

func (s *Scorer) logDecision(label, reason string, score float64) {
	attrs := append(logging.DecisionAttrs("pose_match", label, reason), logging.Float64("score", score))
	s.logger.Debug("pose match decision", logging.Args(attrs...)...)
}

// meanSquaredDistance averages the squared distance between matching key
// joints of two normalized poses. Joints missing from either pose are left
// out of the mean; no shared joints at all scores as infinitely far.
func meanSquaredDistance(a, b pose.Normalized) float64 {
	va := make([]float64, 0, 2*len(pose.KeyJoints))
	vb := make([]float64, 0, 2*len(pose.KeyJoints))
	for _, joint := range pose.KeyJoints {
		pa, okA := a.Landmarks[joint]
		pb, okB := b.Landmarks[joint]
		if !okA || !okB {
			continue
		}
		va = append(va, pa.X, pa.Y)
		vb = append(vb, pb.X, pb.Y)
	}
	if len(va) == 0 {
		return math.Inf(1)
	}
	d := floats.Distance(va, vb, 2)
	return d * d / float64(len(va)/2)
}

// String renders a result for status lines and logs.
func (r Result) String() string {
	if !r.Known() {
		return Unknown
	}
	return fmt.Sprintf("%s (score %.3f, confidence %.2f)", r.Label, r.Score, r.Confidence)
}
