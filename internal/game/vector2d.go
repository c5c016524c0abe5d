package game

import "math"

// Vec2 is a 2D vector in world units.
//
// All arithmetic goes through r32 so every intermediate result is rounded to
// float32 before it is used again. The Go compiler is allowed to fuse x*y+z
// into a single FMA instruction on some architectures; an explicit conversion
// forbids that, which keeps peers on different CPUs bit-identical.
type Vec2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// r32 forces rounding to float32 precision.
func r32(n float32) float32 {
	return float32(n)
}

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: r32(v.X + o.X), Y: r32(v.Y + o.Y)}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: r32(v.X - o.X), Y: r32(v.Y - o.Y)}
}

func (v Vec2) Times(s float32) Vec2 {
	return Vec2{X: r32(v.X * s), Y: r32(v.Y * s)}
}

func (v Vec2) Dot(o Vec2) float32 {
	return r32(r32(v.X*o.X) + r32(v.Y*o.Y))
}

func (v Vec2) LengthSquared() float32 {
	return v.Dot(v)
}

func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}

func (v Vec2) Distance(o Vec2) float32 {
	return o.Minus(v).Length()
}

// Normalize returns the unit vector, or the zero vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 || math.IsInf(float64(l), 0) || math.IsNaN(float64(l)) {
		return Vec2{}
	}
	return Vec2{X: r32(v.X / l), Y: r32(v.Y / l)}
}

// Perpendicular is the left normal (-y, x).
func (v Vec2) Perpendicular() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

func (v Vec2) Invert() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

// AngleBetween returns the unsigned angle in radians between v and o.
// Zero-length operands yield 0.
func (v Vec2) AngleBetween(o Vec2) float32 {
	denom := float64(v.Length()) * float64(o.Length())
	if denom == 0 {
		return 0
	}
	cos := float64(v.Dot(o)) / denom
	// Clamp to [-1, 1] to avoid NaN from acos
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return float32(math.Acos(cos))
}

// Angle returns the direction of v in radians (atan2(y, x)).
func (v Vec2) Angle() float32 {
	return float32(math.Atan2(float64(v.Y), float64(v.X)))
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vec2) IsEqualTo(o Vec2) bool {
	return v.X == o.X && v.Y == o.Y
}
