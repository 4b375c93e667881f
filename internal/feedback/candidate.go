// Package feedback decides what, if anything, gets spoken after an
// evaluation cycle. Record transitions and form grades become candidates;
// a fixed priority order and per-angle cooldowns reduce them to at most one
// message per cycle.
package feedback

import (
	"fmt"
	"math"
	"strings"

	"vinyasa/internal/angles"
	"vinyasa/internal/tracker"
)

// Kind labels a candidate's achievement type.
type Kind string

// Candidate kinds in descending priority order.
const (
	KindPersonalBest       Kind = "personal_best"
	KindDailyBest          Kind = "daily_best"
	KindImprovement        Kind = "improvement"
	KindExcellentForm      Kind = "excellent_form"
	KindCriticalAdjustment Kind = "critical_adjustment"
	KindFirstMeasurement   Kind = "first_measurement"
	KindPoseEntry          Kind = "pose_entry"
)

var kindRank = map[Kind]int{
	KindPersonalBest:       0,
	KindDailyBest:          1,
	KindImprovement:        2,
	KindExcellentForm:      3,
	KindCriticalAdjustment: 4,
	KindFirstMeasurement:   5,
	KindPoseEntry:          6,
}

// rank orders kinds for selection; lower wins.
func (k Kind) rank() int {
	if r, ok := kindRank[k]; ok {
		return r
	}
	return len(kindRank)
}

// Candidate is one potential utterance produced by an evaluation cycle.
type Candidate struct {
	Kind        Kind
	Pose        string
	Angle       string // empty for pose-scoped kinds
	Value       float64
	Improvement float64
	Message     string
	Tip         string // actionable correction, set for critical adjustments
}

// CooldownKey identifies the cooldown slot a candidate occupies. Measurement
// kinds share one slot per (pose, angle) regardless of kind, so a suppressed
// personal best does not leak through as a daily best for the same angle.
func (c Candidate) CooldownKey() string {
	if c.Kind == KindPoseEntry {
		return "pose:" + c.Pose
	}
	return c.Pose + ":" + c.Angle
}

// spokenName converts a snake_case label into its spoken form.
func spokenName(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}

func personalBestCandidate(stats tracker.Stats) Candidate {
	pose := spokenName(stats.Key.Pose)
	angle := spokenName(stats.Key.Angle)
	gain := math.Abs(stats.Value - stats.PriorBest.Value)
	return Candidate{
		Kind:        KindPersonalBest,
		Pose:        stats.Key.Pose,
		Angle:       stats.Key.Angle,
		Value:       stats.Value,
		Improvement: gain,
		Message: fmt.Sprintf(
			"Outstanding! New personal best %s in %s: %.1f degrees! That's %.1f degrees better than your previous best of %.1f!",
			angle, pose, stats.Value, gain, stats.PriorBest.Value),
	}
}

func firstMeasurementCandidate(stats tracker.Stats) Candidate {
	return Candidate{
		Kind:  KindFirstMeasurement,
		Pose:  stats.Key.Pose,
		Angle: stats.Key.Angle,
		Value: stats.Value,
		Message: fmt.Sprintf("Excellent! First recorded %s in %s: %.1f degrees!",
			spokenName(stats.Key.Angle), spokenName(stats.Key.Pose), stats.Value),
	}
}

func dailyBestCandidate(stats tracker.Stats) Candidate {
	pose := spokenName(stats.Key.Pose)
	angle := spokenName(stats.Key.Angle)
	candidate := Candidate{
		Kind:  KindDailyBest,
		Pose:  stats.Key.Pose,
		Angle: stats.Key.Angle,
		Value: stats.Value,
	}
	if stats.PriorDaily != nil {
		gain := math.Abs(stats.Value - stats.PriorDaily.Value)
		candidate.Improvement = gain
		candidate.Message = fmt.Sprintf(
			"Great work! Best %s today: %.1f degrees in %s! That's %.1f degrees better than your previous best today.",
			angle, stats.Value, pose, gain)
		return candidate
	}
	candidate.Message = fmt.Sprintf("Nice! First %s measurement today: %.1f degrees in %s!",
		angle, stats.Value, pose)
	return candidate
}

func improvementCandidate(stats tracker.Stats, windowDays int) Candidate {
	return Candidate{
		Kind:        KindImprovement,
		Pose:        stats.Key.Pose,
		Angle:       stats.Key.Angle,
		Value:       stats.Value,
		Improvement: stats.Improvement,
		Message: fmt.Sprintf(
			"Excellent progress! Your %s is %.1f degrees better than your %d-day average of %.1f degrees. Current measurement: %.1f degrees!",
			spokenName(stats.Key.Angle), stats.Improvement, windowDays, stats.RollingMean, stats.Value),
	}
}

func excellentFormCandidate(pose string, analysis angles.Analysis) Candidate {
	return Candidate{
		Kind:    KindExcellentForm,
		Pose:    pose,
		Angle:   analysis.Angle,
		Value:   analysis.Measured,
		Message: analysis.Message,
	}
}

func criticalAdjustmentCandidate(pose string, analysis angles.Analysis) Candidate {
	return Candidate{
		Kind:    KindCriticalAdjustment,
		Pose:    pose,
		Angle:   analysis.Angle,
		Value:   analysis.Measured,
		Message: "Focus on " + strings.ToLower(analysis.Message),
		Tip:     analysis.Tip,
	}
}

func poseEntryCandidate(pose string) Candidate {
	return Candidate{
		Kind:    KindPoseEntry,
		Pose:    pose,
		Message: "Entering " + spokenName(pose),
	}
}

// SummaryMessage builds the spoken session roll-up. Sessions with no
// achievements get an encouragement instead of a tally.
func SummaryMessage(personalBests, dailyBests, improvements int, durationMinutes float64) string {
	var parts []string
	if personalBests > 0 {
		parts = append(parts, fmt.Sprintf("%d personal best%s", personalBests, plural(personalBests)))
	}
	if dailyBests > 0 {
		parts = append(parts, fmt.Sprintf("%d daily best%s", dailyBests, plural(dailyBests)))
	}
	if improvements > 0 {
		parts = append(parts, fmt.Sprintf("%d improvement%s", improvements, plural(improvements)))
	}
	if len(parts) == 0 {
		return "Session complete. Keep practicing to build your performance history!"
	}

	message := fmt.Sprintf("Excellent session! You achieved %s today.", strings.Join(parts, ", "))
	if durationMinutes > 5 {
		message += fmt.Sprintf(" Session time: %.1f minutes.", durationMinutes)
	}
	return message
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
