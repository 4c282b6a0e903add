package mpm

import "math"

// Vec2 is a 2-D vector in grid space.
type Vec2 struct {
	X, Y float32
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// finite reports whether both components are finite.
func (v Vec2) finite() bool {
	return finite32(v.X) && finite32(v.Y)
}

// Mat2 is a row-major 2x2 matrix.
//
//	| XX XY |
//	| YX YY |
type Mat2 struct {
	XX, XY float32
	YX, YY float32
}

// MulVec returns m·v.
func (m Mat2) MulVec(v Vec2) Vec2 {
	return Vec2{
		X: m.XX*v.X + m.XY*v.Y,
		Y: m.YX*v.X + m.YY*v.Y,
	}
}

// Add returns m + o.
func (m Mat2) Add(o Mat2) Mat2 {
	return Mat2{m.XX + o.XX, m.XY + o.XY, m.YX + o.YX, m.YY + o.YY}
}

// Scale returns m * s.
func (m Mat2) Scale(s float32) Mat2 {
	return Mat2{m.XX * s, m.XY * s, m.YX * s, m.YY * s}
}

// Trace returns XX + YY.
func (m Mat2) Trace() float32 { return m.XX + m.YY }

func (m Mat2) finite() bool {
	return finite32(m.XX) && finite32(m.XY) && finite32(m.YX) && finite32(m.YY)
}

// Outer returns a ⊗ b, i.e. the matrix a·bᵀ.
func Outer(a, b Vec2) Mat2 {
	return Mat2{
		XX: a.X * b.X, XY: a.X * b.Y,
		YX: a.Y * b.X, YY: a.Y * b.Y,
	}
}

func finite32(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
