package pose

import "math"

// AngleAt computes the angle in degrees at vertex between the rays toward a
// and b, in [0,180]. The dot product is clamped before arccos to absorb
// floating point drift. Returns ok=false when either ray has zero length,
// which leaves the angle undefined.
func AngleAt(vertex, a, b Point) (float64, bool) {
	v1x := a.X - vertex.X
	v1y := a.Y - vertex.Y
	v2x := b.X - vertex.X
	v2y := b.Y - vertex.Y

	n1 := math.Hypot(v1x, v1y)
	n2 := math.Hypot(v2x, v2y)
	if n1 == 0 || n2 == 0 {
		return 0, false
	}

	cos := (v1x*v2x + v1y*v2y) / (n1 * n2)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi, true
}

// LineAngle computes the angle of the segment from a to b measured against
// the horizontal axis, in degrees.
func LineAngle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
}
