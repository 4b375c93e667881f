package feedback

import (
	"log/slog"
	"sort"
	"time"

	"vinyasa/internal/angles"
	"vinyasa/internal/logging"
	"vinyasa/internal/scorer"
	"vinyasa/internal/timeutil"
	"vinyasa/internal/tracker"
)

// Selection defaults, matching the configuration defaults.
const (
	DefaultCooldown             = 10 * time.Second
	DefaultEntryCooldown        = 30 * time.Second
	DefaultMinHold              = 3 * time.Second
	DefaultImprovementThreshold = 2.0
	DefaultConfidenceFloor      = 0.5
)

// Options configures a Selector. Zero values take the package defaults.
type Options struct {
	// Cooldown is the minimum gap between messages for the same
	// pose/angle pair.
	Cooldown time.Duration

	// EntryCooldown is the minimum gap between entry announcements for
	// the same pose.
	EntryCooldown time.Duration

	// MinHold is how long a pose must be held before measurement and
	// form candidates are considered.
	MinHold time.Duration

	// ImprovementThreshold is the minimum gain in degrees over the
	// rolling average that rates an announcement.
	ImprovementThreshold float64

	// ConfidenceFloor suppresses all feedback below this match confidence.
	ConfidenceFloor float64

	// WindowDays names the rolling window in improvement messages.
	WindowDays int

	// AnnounceEntry enables the "Entering <pose>" announcement.
	AnnounceEntry bool

	// Clock supplies the time base; nil means the wall clock.
	Clock timeutil.Clock
}

// Selector reduces a cycle's candidates to at most one spoken message.
// It tracks the current pose, how long it has been held, and when each
// cooldown slot last fired. Not safe for concurrent use; the evaluation
// cycle is single-threaded.
type Selector struct {
	opts   Options
	clock  timeutil.Clock
	logger *slog.Logger

	currentPose string
	poseSince   time.Time
	lastSpoken  map[string]time.Time
}

// Input carries one evaluation cycle's results into selection.
type Input struct {
	Pose       string
	Confidence float64
	Stats      []tracker.Stats
	Analyses   []angles.Analysis
}

// NewSelector builds a selector with the given options.
func NewSelector(opts Options, logger *slog.Logger) *Selector {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.EntryCooldown <= 0 {
		opts.EntryCooldown = DefaultEntryCooldown
	}
	if opts.MinHold <= 0 {
		opts.MinHold = DefaultMinHold
	}
	if opts.ImprovementThreshold <= 0 {
		opts.ImprovementThreshold = DefaultImprovementThreshold
	}
	if opts.ConfidenceFloor <= 0 {
		opts.ConfidenceFloor = DefaultConfidenceFloor
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = tracker.DefaultWindowDays
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Selector{
		opts:       opts,
		clock:      clock,
		logger:     logger,
		lastSpoken: make(map[string]time.Time),
	}
}

// Select picks at most one candidate for the cycle. The winning candidate
// stamps its cooldown slot; a nil return means the cycle stays silent.
func (s *Selector) Select(input Input) *Candidate {
	now := s.clock.Now()

	// Losing the pose resets the hold timer. A low-confidence cycle is a
	// no-op instead: it neither advances a pose change nor resets the hold,
	// so a brief confidence dip does not swallow the entry announcement.
	if input.Pose == "" || input.Pose == scorer.Unknown {
		if s.currentPose != input.Pose {
			s.currentPose = input.Pose
			s.poseSince = now
		}
		return nil
	}
	if input.Confidence < s.opts.ConfidenceFloor {
		s.logDecision("none", input.Pose, "below_confidence_floor")
		return nil
	}

	changed := input.Pose != s.currentPose
	if changed {
		s.currentPose = input.Pose
		s.poseSince = now
	}

	var candidates []Candidate
	if changed && s.opts.AnnounceEntry {
		candidates = append(candidates, poseEntryCandidate(input.Pose))
	}
	if now.Sub(s.poseSince) >= s.opts.MinHold {
		candidates = append(candidates, s.collect(input)...)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Kind.rank() < candidates[j].Kind.rank()
	})

	for _, candidate := range candidates {
		key := candidate.CooldownKey()
		if last, ok := s.lastSpoken[key]; ok && now.Sub(last) < s.cooldownFor(candidate.Kind) {
			s.logDecision(string(candidate.Kind), key, "cooldown_active")
			continue
		}
		s.lastSpoken[key] = now
		s.logDecision(string(candidate.Kind), key, "selected")
		chosen := candidate
		return &chosen
	}
	return nil
}

// Measurable reports whether a cycle for pose at confidence would clear
// the stability gates right now: the pose matches the current one, the
// confidence floor is met, and the hold time has elapsed. Callers consult
// it before journaling measurements so transient frames stay out of the
// performance record. It does not advance pose tracking; Select does.
func (s *Selector) Measurable(pose string, confidence float64) bool {
	if pose == "" || pose == scorer.Unknown || confidence < s.opts.ConfidenceFloor {
		return false
	}
	if pose != s.currentPose {
		return false
	}
	return s.clock.Now().Sub(s.poseSince) >= s.opts.MinHold
}

// collect turns record transitions and form grades into candidates. Each
// measurement contributes at most one candidate, its most notable
// transition; form grades contribute one per evaluated angle.
func (s *Selector) collect(input Input) []Candidate {
	var candidates []Candidate
	for _, stats := range input.Stats {
		switch {
		case stats.PersonalBest && stats.PriorBest != nil:
			candidates = append(candidates, personalBestCandidate(stats))
		case stats.DailyBest:
			candidates = append(candidates, dailyBestCandidate(stats))
		case stats.RollingCount > 0 && stats.Improvement >= s.opts.ImprovementThreshold:
			candidates = append(candidates, improvementCandidate(stats, s.opts.WindowDays))
		case stats.First:
			candidates = append(candidates, firstMeasurementCandidate(stats))
		}
	}
	for _, analysis := range input.Analyses {
		switch analysis.Level {
		case angles.LevelPerfect, angles.LevelGood:
			candidates = append(candidates, excellentFormCandidate(input.Pose, analysis))
		case angles.LevelPoor:
			candidates = append(candidates, criticalAdjustmentCandidate(input.Pose, analysis))
		}
	}
	return candidates
}

func (s *Selector) cooldownFor(kind Kind) time.Duration {
	if kind == KindPoseEntry {
		return s.opts.EntryCooldown
	}
	return s.opts.Cooldown
}

func (s *Selector) logDecision(result, key, reason string) {
	attrs := append(logging.DecisionAttrs("feedback", result, reason), logging.String("key", key))
	s.logger.Debug("feedback decision", logging.Args(attrs...)...)
}
