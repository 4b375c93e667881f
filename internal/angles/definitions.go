package angles

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"vinyasa/internal/textutil"
)

// Level grades how close a measured angle sits to its requirement.
type Level string

const (
	LevelPerfect         Level = "perfect"
	LevelGood            Level = "good"
	LevelNeedsAdjustment Level = "needs_adjustment"
	LevelPoor            Level = "poor"
)

// Score maps a level onto the 0-100 form scale.
func (l Level) Score() float64 {
	switch l {
	case LevelPerfect:
		return 100
	case LevelGood:
		return 85
	case LevelNeedsAdjustment:
		return 70
	default:
		return 50
	}
}

// Direction states which way an angle improves. Straightness angles grow
// toward 180 while alignment deviations shrink toward 0, so the performance
// record needs to know which comparison means "better" for each requirement.
type Direction string

const (
	LargerIsBetter  Direction = "larger"
	SmallerIsBetter Direction = "smaller"
)

// Better reports whether candidate strictly beats incumbent.
func (d Direction) Better(candidate, incumbent float64) bool {
	if d == SmallerIsBetter {
		return candidate < incumbent
	}
	return candidate > incumbent
}

// Messages holds the coaching line for each feedback level. Empty fields
// fall back to a generic measurement readout.
type Messages struct {
	Perfect         string `json:"perfect,omitempty"`
	Good            string `json:"good,omitempty"`
	NeedsAdjustment string `json:"needs_adjustment,omitempty"`
	Poor            string `json:"poor,omitempty"`
}

// Requirement defines the acceptable band for one named angle within a pose.
type Requirement struct {
	Name        string    `json:"name"`
	Min         float64   `json:"min_angle"`
	Max         float64   `json:"max_angle"`
	Optimal     float64   `json:"optimal_angle"`
	Tolerance   float64   `json:"tolerance"`
	Direction   Direction `json:"direction,omitempty"`
	Description string    `json:"description,omitempty"`
	Messages    Messages  `json:"feedback_messages"`
}

// LevelFor grades a measured value against the requirement band.
func (r Requirement) LevelFor(measured float64) Level {
	deviation := math.Abs(measured - r.Optimal)
	switch {
	case deviation <= r.Tolerance/2:
		return LevelPerfect
	case deviation <= r.Tolerance:
		return LevelGood
	case measured >= r.Min && measured <= r.Max:
		return LevelNeedsAdjustment
	default:
		return LevelPoor
	}
}

// MessageFor returns the coaching line for a level, falling back to a
// measurement readout when the table has no text for it.
func (r Requirement) MessageFor(level Level, measured float64) string {
	var msg string
	switch level {
	case LevelPerfect:
		msg = r.Messages.Perfect
	case LevelGood:
		msg = r.Messages.Good
	case LevelNeedsAdjustment:
		msg = r.Messages.NeedsAdjustment
	case LevelPoor:
		msg = r.Messages.Poor
	}
	if msg == "" {
		return fmt.Sprintf("Angle is %.1f°, target is %.1f°", measured, r.Optimal)
	}
	return msg
}

// Tip returns the concrete correction toward the optimal angle.
func (r Requirement) Tip(measured float64) string {
	switch {
	case measured < r.Optimal:
		return fmt.Sprintf("Increase angle by %.1f°", r.Optimal-measured)
	case measured > r.Optimal:
		return fmt.Sprintf("Decrease angle by %.1f°", measured-r.Optimal)
	default:
		return "Perfect! Maintain this position."
	}
}

// Definitions is the pose-scoped angle requirement catalog. The same angle
// name may appear under several poses with different bands.
type Definitions struct {
	poses map[string][]Requirement
}

// Poses returns the pose labels with requirements, sorted.
func (d *Definitions) Poses() []string {
	labels := make([]string, 0, len(d.poses))
	for label := range d.poses {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Requirements returns the requirement set for a pose label, or nil when the
// pose has none.
func (d *Definitions) Requirements(label string) []Requirement {
	return d.poses[textutil.SanitizeToken(label)]
}

// Lookup finds a single requirement by pose label and angle name.
func (d *Definitions) Lookup(label, angle string) (Requirement, bool) {
	for _, req := range d.poses[textutil.SanitizeToken(label)] {
		if req.Name == angle {
			return req, true
		}
	}
	return Requirement{}, false
}

// Validate checks every requirement against the angle schema: measurable
// name, ordered band, positive tolerance, known direction.
func (d *Definitions) Validate() error {
	for _, label := range d.Poses() {
		for _, req := range d.poses[label] {
			if err := validateRequirement(req); err != nil {
				return fmt.Errorf("pose %q: %w", label, err)
			}
		}
	}
	return nil
}

func validateRequirement(req Requirement) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("requirement with empty angle name")
	}
	if !Measurable(name) {
		return fmt.Errorf("angle %q: no known measurement", name)
	}
	if req.Min > req.Optimal || req.Optimal > req.Max {
		return fmt.Errorf("angle %q: band %g..%g does not contain optimal %g", name, req.Min, req.Max, req.Optimal)
	}
	if req.Tolerance <= 0 {
		return fmt.Errorf("angle %q: tolerance must be positive, got %g", name, req.Tolerance)
	}
	switch req.Direction {
	case LargerIsBetter, SmallerIsBetter:
	default:
		return fmt.Errorf("angle %q: direction must be %q or %q, got %q", name, LargerIsBetter, SmallerIsBetter, req.Direction)
	}
	return nil
}

// LoadFile reads a requirement catalog from a JSON document keyed by pose
// label. Requirements without an explicit direction default to
// larger-is-better. The catalog is validated before it is returned.
func LoadFile(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read angle definitions: %w", err)
	}

	var raw map[string][]Requirement
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse angle definitions %s: %w", path, err)
	}

	defs := &Definitions{poses: make(map[string][]Requirement, len(raw))}
	for label, reqs := range raw {
		for i := range reqs {
			if reqs[i].Direction == "" {
				reqs[i].Direction = LargerIsBetter
			}
		}
		defs.poses[textutil.SanitizeToken(label)] = reqs
	}

	if err := defs.Validate(); err != nil {
		return nil, fmt.Errorf("angle definitions %s: %w", path, err)
	}
	return defs, nil
}

// SaveFile writes the catalog as an indented JSON document, suitable for
// editing and reloading through LoadFile.
func (d *Definitions) SaveFile(path string) error {
	data, err := json.MarshalIndent(d.poses, "", "  ")
	if err != nil {
		return fmt.Errorf("encode angle definitions: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write angle definitions: %w", err)
	}
	return nil
}

// Builtin returns the default requirement catalog for the three poses the
// coach ships with.
func Builtin() *Definitions {
	return &Definitions{poses: map[string][]Requirement{
		"warrior_2": {
			{
				Name:        "front_knee",
				Min:         85,
				Max:         95,
				Optimal:     90,
				Tolerance:   5,
				Direction:   SmallerIsBetter,
				Description: "Front leg should be bent at 90 degrees",
				Messages: Messages{
					Perfect:         "Perfect 90-degree front knee! Excellent warrior pose.",
					Good:            "Good knee angle, very close to 90 degrees.",
					NeedsAdjustment: "Bend your front knee more to reach 90 degrees.",
					Poor:            "Front knee needs significant adjustment - aim for 90 degrees.",
				},
			},
			{
				Name:        "back_leg",
				Min:         160,
				Max:         180,
				Optimal:     175,
				Tolerance:   10,
				Direction:   LargerIsBetter,
				Description: "Back leg should be straight",
				Messages: Messages{
					Perfect:         "Back leg perfectly straight! Great foundation.",
					Good:            "Back leg looking good, nearly straight.",
					NeedsAdjustment: "Straighten your back leg more.",
					Poor:            "Back leg needs to be much straighter.",
				},
			},
			{
				Name:        "hip_alignment",
				Min:         -5,
				Max:         5,
				Optimal:     0,
				Tolerance:   3,
				Direction:   SmallerIsBetter,
				Description: "Hips should be level",
				Messages: Messages{
					Perfect:         "Hips perfectly level! Excellent alignment.",
					Good:            "Hip alignment is good.",
					NeedsAdjustment: "Adjust your hips to be more level.",
					Poor:            "Focus on leveling your hips.",
				},
			},
		},
		"tree_pose": {
			{
				Name:        "standing_leg",
				Min:         170,
				Max:         180,
				Optimal:     175,
				Tolerance:   5,
				Direction:   LargerIsBetter,
				Description: "Standing leg should be straight and strong",
				Messages: Messages{
					Perfect:         "Standing leg perfectly straight! Solid foundation.",
					Good:            "Standing leg looks stable.",
					NeedsAdjustment: "Straighten your standing leg more.",
					Poor:            "Focus on keeping your standing leg straight.",
				},
			},
			{
				Name:        "lifted_leg",
				Min:         45,
				Max:         90,
				Optimal:     70,
				Tolerance:   15,
				Direction:   SmallerIsBetter,
				Description: "Lifted leg should create good angle",
				Messages: Messages{
					Perfect:         "Perfect leg lift angle! Great tree pose.",
					Good:            "Good leg position.",
					NeedsAdjustment: "Try lifting your leg higher.",
					Poor:            "Lift your leg higher for better tree pose.",
				},
			},
			{
				Name:        "spine_vertical",
				Min:         0,
				Max:         10,
				Optimal:     0,
				Tolerance:   5,
				Direction:   SmallerIsBetter,
				Description: "Spine should be vertical",
				Messages: Messages{
					Perfect:         "Spine perfectly upright! Excellent posture.",
					Good:            "Good spinal alignment.",
					NeedsAdjustment: "Stand up straighter.",
					Poor:            "Focus on keeping your spine vertical.",
				},
			},
		},
		"downward_dog": {
			{
				Name:        "shoulder_angle",
				Min:         40,
				Max:         60,
				Optimal:     50,
				Tolerance:   8,
				Direction:   LargerIsBetter,
				Description: "Shoulder angle creates inverted V",
				Messages: Messages{
					Perfect:         "Perfect downward dog angle! Great inverted V.",
					Good:            "Good downward dog position.",
					NeedsAdjustment: "Adjust your shoulder angle slightly.",
					Poor:            "Work on creating a better inverted V shape.",
				},
			},
			{
				Name:        "left_knee",
				Min:         160,
				Max:         180,
				Optimal:     175,
				Tolerance:   10,
				Direction:   LargerIsBetter,
				Description: "Legs should be straight",
				Messages: Messages{
					Perfect:         "Legs perfectly straight! Excellent foundation.",
					Good:            "Good leg extension.",
					NeedsAdjustment: "Try to straighten your legs more.",
					Poor:            "Focus on straightening both legs.",
				},
			},
			{
				Name:        "right_knee",
				Min:         160,
				Max:         180,
				Optimal:     175,
				Tolerance:   10,
				Direction:   LargerIsBetter,
				Description: "Legs should be straight",
				Messages: Messages{
					Perfect:         "Legs perfectly straight! Excellent foundation.",
					Good:            "Good leg extension.",
					NeedsAdjustment: "Try to straighten your legs more.",
					Poor:            "Focus on straightening both legs.",
				},
			},
		},
	}}
}
