package angles

import (
	"math"

	"vinyasa/internal/coach"
	"vinyasa/internal/pose"
)

// Derived joint angles measured at a vertex landmark between two rays.
var threePointAngles = []struct {
	name   string
	a      string
	vertex string
	b      string
}{
	{"left_knee", pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
	{"right_knee", pose.RightHip, pose.RightKnee, pose.RightAnkle},
	{"left_elbow", pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
	{"right_elbow", pose.RightShoulder, pose.RightElbow, pose.RightWrist},
	{"left_hip", pose.LeftShoulder, pose.LeftHip, pose.LeftKnee},
	{"right_hip", pose.RightShoulder, pose.RightHip, pose.RightKnee},
	{"left_arm_torso", pose.LeftHip, pose.LeftShoulder, pose.LeftElbow},
	{"right_arm_torso", pose.RightHip, pose.RightShoulder, pose.RightElbow},
}

// Requirement names that resolve to a derived angle rather than naming one
// directly. shoulder_angle and hip_alignment have their own resolution rules
// in Measure.
var aliasedAngles = map[string]string{
	"front_knee":   "left_knee",  // warrior stance faces left of camera
	"back_leg":     "right_knee",
	"standing_leg": "right_knee",
	"lifted_leg":   "left_hip",
}

// Derive computes every joint angle the frame's landmarks allow. Angles
// whose landmarks are missing are simply absent from the result; Measure
// reports the gap per requirement. Line angles keep their sign, and
// spine_vertical is the deviation of the hip-to-shoulder line from vertical,
// so an upright torso reads 0 in image coordinates.
func Derive(frame pose.Frame) map[string]float64 {
	derived := make(map[string]float64, len(threePointAngles)+3)

	for _, tp := range threePointAngles {
		a, aok := frame.Lookup(tp.a)
		vertex, vok := frame.Lookup(tp.vertex)
		b, bok := frame.Lookup(tp.b)
		if !aok || !vok || !bok {
			continue
		}
		if angle, ok := pose.AngleAt(vertex, a, b); ok {
			derived[tp.name] = angle
		}
	}

	if ls, ok := frame.Lookup(pose.LeftShoulder); ok {
		if rs, ok := frame.Lookup(pose.RightShoulder); ok {
			derived["shoulder_line"] = pose.LineAngle(ls, rs)
		}
	}
	lh, lhok := frame.Lookup(pose.LeftHip)
	rh, rhok := frame.Lookup(pose.RightHip)
	if lhok && rhok {
		derived["hip_line"] = pose.LineAngle(lh, rh)

		if ls, ok := frame.Lookup(pose.LeftShoulder); ok {
			if rs, ok := frame.Lookup(pose.RightShoulder); ok {
				hipCenter := pose.Midpoint(lh, rh)
				shoulderCenter := pose.Midpoint(ls, rs)
				spine := pose.LineAngle(hipCenter, shoulderCenter)
				derived["spine_vertical"] = math.Abs(90 - math.Abs(spine))
			}
		}
	}

	return derived
}

// Measure resolves a requirement name against the derived angles. Direct
// hits win; otherwise the alias table and the two composite rules apply.
// A name with no usable measurement fails with a missing-landmark error so
// the caller can skip just that requirement.
func Measure(derived map[string]float64, name string) (float64, error) {
	if v, ok := derived[name]; ok {
		return v, nil
	}

	if target, ok := aliasedAngles[name]; ok {
		if v, ok := derived[target]; ok {
			return v, nil
		}
		return 0, missing(name)
	}

	switch name {
	case "shoulder_angle":
		left, lok := derived["left_arm_torso"]
		right, rok := derived["right_arm_torso"]
		if lok && rok && left > 0 && right > 0 {
			return (left + right) / 2, nil
		}
	case "hip_alignment":
		if v, ok := derived["hip_line"]; ok {
			return math.Abs(v), nil
		}
	}

	return 0, missing(name)
}

func missing(name string) error {
	return coach.Wrap(coach.ErrMissingLandmark, "angles", "measure", "no measurement for "+name, nil)
}

// Measurable reports whether a requirement name can ever resolve to a
// measurement. Used to validate requirement catalogs at load time.
func Measurable(name string) bool {
	for _, tp := range threePointAngles {
		if tp.name == name {
			return true
		}
	}
	if _, ok := aliasedAngles[name]; ok {
		return true
	}
	switch name {
	case "shoulder_line", "hip_line", "spine_vertical", "shoulder_angle", "hip_alignment":
		return true
	}
	return false
}
