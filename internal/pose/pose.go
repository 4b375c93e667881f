// Package pose defines keypoint frames and the geometry used to compare them.
package pose

import (
	"math"
	"time"
)

// Landmark names follow the external pose source's skeleton convention.
const (
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// KeyJoints is the fixed joint subset used for pose comparison. Extremities
// like fingers and face points are excluded as noisy.
var KeyJoints = []string{
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// Point is a 2-D landmark coordinate in [0,1] image-relative space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is one captured set of landmark coordinates, produced once per
// evaluation cycle by the external pose source. Treated as immutable after
// capture.
type Frame struct {
	Landmarks map[string]Point
	Timestamp time.Time
}

// Lookup returns the named landmark and whether it is present.
func (f Frame) Lookup(name string) (Point, bool) {
	p, ok := f.Landmarks[name]
	return p, ok
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
