package pose

import (
	"fmt"

	"vinyasa/internal/coach"
)

// DefaultScaleEpsilon is the smallest torso reference length accepted for
// normalization. Anything below it means the subject is collapsed to a point
// in the image and the frame cannot be scaled.
const DefaultScaleEpsilon = 1e-3

// Normalized is a frame translated so the hip midpoint sits at the origin and
// scaled by torso length, making poses comparable across body size and
// distance from the camera. Derived per cycle, never persisted.
type Normalized struct {
	Landmarks map[string]Point
}

// Normalize maps frame into the pose-invariant space. All required landmarks
// plus the four torso anchors must be present or the frame fails with the
// incomplete-pose marker; a torso length under scaleEpsilon fails with the
// degenerate-scale marker and the frame is treated as no detected pose.
func Normalize(frame Frame, required []string, scaleEpsilon float64) (Normalized, error) {
	if scaleEpsilon <= 0 {
		scaleEpsilon = DefaultScaleEpsilon
	}

	for _, name := range required {
		if _, ok := frame.Landmarks[name]; !ok {
			return Normalized{}, coach.Wrap(coach.ErrIncompletePose, "normalizer", "normalize", "missing landmark "+name, nil)
		}
	}
	for _, name := range []string{LeftHip, RightHip, LeftShoulder, RightShoulder} {
		if _, ok := frame.Landmarks[name]; !ok {
			return Normalized{}, coach.Wrap(coach.ErrIncompletePose, "normalizer", "normalize", "missing landmark "+name, nil)
		}
	}

	hipCenter := Midpoint(frame.Landmarks[LeftHip], frame.Landmarks[RightHip])
	shoulderCenter := Midpoint(frame.Landmarks[LeftShoulder], frame.Landmarks[RightShoulder])
	torso := Distance(hipCenter, shoulderCenter)
	if torso < scaleEpsilon {
		return Normalized{}, coach.Wrap(coach.ErrDegenerateScale, "normalizer", "normalize",
			fmt.Sprintf("torso length %.6f below epsilon %.6f", torso, scaleEpsilon), nil)
	}

	out := make(map[string]Point, len(required))
	for _, name := range required {
		p := frame.Landmarks[name]
		out[name] = Point{
			X: (p.X - hipCenter.X) / torso,
			Y: (p.Y - hipCenter.Y) / torso,
		}
	}
	return Normalized{Landmarks: out}, nil
}
