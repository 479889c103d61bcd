// Package direction implements the 6-bit compass used to steer enemies
// and their shots: a Direction is just an index in [0, 0x3F], and the
// interesting part is the two lookup tables that turn an index into a
// screen-space displacement.
package direction

import "math"

// Direction is a 6-bit compass index. The zero value points straight
// up the screen; indices increase clockwise.
type Direction uint8

// Max is the highest legal Direction index.
const Max = 0x3F

// Count is the number of distinct directions (64).
const Count = Max + 1

// New wraps idx into a Direction. It panics if idx is outside [0, Max],
// mirroring the Rust source's assert in Direction::new.
func New(idx uint8) Direction {
	if idx > Max {
		panic("direction: index out of range")
	}
	return Direction(idx)
}

// Index returns the raw 6-bit index.
func (d Direction) Index() uint8 {
	return uint8(d)
}

// displacement quantizes the unit circle into Count points at the given
// radius, rounding each component to the nearest integer and clamping
// it to [-4, 4].
func displacement(radius float64, idx uint8) (int8, int8) {
	angle := 2 * math.Pi * float64(idx) / float64(Count)
	dx := math.Round(radius * math.Sin(angle))
	dy := math.Round(-radius * math.Cos(angle))
	return clamp8(dx), clamp8(dy)
}

func clamp8(v float64) int8 {
	if v > 4 {
		v = 4
	}
	if v < -4 {
		v = -4
	}
	return int8(v)
}

var objectTable = buildTable(4)
var bulletTable = buildTable(4)

func buildTable(radius float64) [Count][2]int8 {
	var t [Count][2]int8
	for i := 0; i < Count; i++ {
		dx, dy := displacement(radius, uint8(i))
		t[i] = [2]int8{dx, dy}
	}
	return t
}

// DisplacementObject returns the (dx, dy) step an enemy takes when
// moving in this direction, each component in [-4, 4].
func (d Direction) DisplacementObject() (int8, int8) {
	p := objectTable[d]
	return p[0], p[1]
}

// DisplacementBullet returns the (dx, dy) step a projectile takes when
// fired in this direction, each component in [-4, 4].
func (d Direction) DisplacementBullet() (int8, int8) {
	p := bulletTable[d]
	return p[0], p[1]
}

// Aim returns the Direction whose DisplacementObject best approximates
// the unit vector from src to dst, using the same (x, y) convention as
// screen positions (y increases downward). Equal source and destination
// map to Direction 0 (straight up).
func Aim(src, dst [2]uint8) Direction {
	dx := float64(int(dst[0]) - int(src[0]))
	dy := float64(int(dst[1]) - int(src[1]))
	if dx == 0 && dy == 0 {
		// math.Atan2(0, -0) returns +Pi, not 0: negating a zero dy keeps
		// its sign bit, so this case needs to be handled explicitly
		// rather than falling through to Atan2.
		return Direction(0)
	}
	angle := math.Atan2(dx, -dy)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	idx := math.Round(angle / (2 * math.Pi) * float64(Count))
	return Direction(uint8(idx) & Max)
}
