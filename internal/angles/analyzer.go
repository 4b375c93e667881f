// Package angles measures joint angles from keypoint frames and grades them
// against per-pose requirement bands.
//
// Measurement runs on raw landmark coordinates rather than normalized poses:
// joint angles are scale and translation invariant already, and the
// requirement bands are expressed in plain degrees. Each requirement is
// resolved independently so a single missing landmark only silences the
// angles that need it.
package angles

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"vinyasa/internal/coach"
	"vinyasa/internal/logging"
	"vinyasa/internal/pose"
)

// Analysis is the graded result for one requirement in one frame.
type Analysis struct {
	Angle     string
	Measured  float64
	Target    float64
	Deviation float64
	Level     Level
	Message   string
	Tip       string
}

// Analyzer grades frames against a requirement catalog.
type Analyzer struct {
	defs   *Definitions
	logger *slog.Logger
}

// NewAnalyzer builds an analyzer over the given catalog. A nil catalog uses
// the built-in poses.
func NewAnalyzer(defs *Definitions, logger *slog.Logger) *Analyzer {
	if defs == nil {
		defs = Builtin()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{defs: defs, logger: logger}
}

// Definitions exposes the analyzer's requirement catalog.
func (a *Analyzer) Definitions() *Definitions {
	return a.defs
}

// Analyze measures and grades every requirement the pose label defines.
// Requirements whose landmarks are missing from the frame are skipped and
// logged; the rest still evaluate.
func (a *Analyzer) Analyze(label string, frame pose.Frame) []Analysis {
	reqs := a.defs.Requirements(label)
	if len(reqs) == 0 {
		return nil
	}

	derived := Derive(frame)
	analyses := make([]Analysis, 0, len(reqs))
	for _, req := range reqs {
		measured, err := Measure(derived, req.Name)
		if err != nil {
			a.logger.Debug("angle measurement unavailable",
				logging.String("pose", label),
				logging.String("angle", req.Name),
				logging.String("error_hint", coach.ErrorKind(err)))
			continue
		}
		analyses = append(analyses, grade(req, measured))
	}
	return analyses
}

func grade(req Requirement, measured float64) Analysis {
	level := req.LevelFor(measured)
	deviation := measured - req.Optimal
	if deviation < 0 {
		deviation = -deviation
	}
	return Analysis{
		Angle:     req.Name,
		Measured:  measured,
		Target:    req.Optimal,
		Deviation: deviation,
		Level:     level,
		Message:   req.MessageFor(level, measured),
		Tip:       req.Tip(measured),
	}
}

// FormScore averages the per-angle level scores into a 0-100 form score and
// its display grade.
func FormScore(analyses []Analysis) (float64, string) {
	if len(analyses) == 0 {
		return 0, "No data"
	}
	scores := make([]float64, len(analyses))
	for i, analysis := range analyses {
		scores[i] = analysis.Level.Score()
	}
	score := stat.Mean(scores, nil)
	return score, Grade(score)
}

// Grade maps a 0-100 form score onto its display grade.
func Grade(score float64) string {
	switch {
	case score >= 95:
		return "Excellent!"
	case score >= 85:
		return "Very Good"
	case score >= 75:
		return "Good"
	case score >= 65:
		return "Fair"
	default:
		return "Needs Work"
	}
}
