package mpm

import (
	"fmt"
	"math"
)

// affineScale is the inverse of the quadratic B-spline's inertia-like
// tensor D = Δx²/4 with Δx = 1. It turns Σ w·v⊗dpos into the velocity
// gradient in the G2P pass.
const affineScale = 4

// Neighborhood is the 3x3 stencil of grid cells around a particle. Cell
// centers sit at integer index + 0.5, so the stencil is centered on the
// cell containing the particle.
type Neighborhood struct {
	Pos Vec2 // particle position the stencil was built for

	cx, cy int // containing cell
	wx, wy [3]float32
}

// NewNeighborhood computes the stencil for position pos on a res×res grid.
// A stencil that would leave the grid is a configuration bug and panics.
func NewNeighborhood(pos Vec2, res int) Neighborhood {
	fx := math.Floor(float64(pos.X))
	fy := math.Floor(float64(pos.Y))
	if !(fx >= 1 && fy >= 1 && fx <= float64(res-2) && fy <= float64(res-2)) {
		panic(fmt.Sprintf("mpm: stencil at (%g,%g) leaves %dx%d grid", pos.X, pos.Y, res, res))
	}
	n := Neighborhood{Pos: pos, cx: int(fx), cy: int(fy)}
	n.wx = quadraticWeights(pos.X - float32(fx) - 0.5)
	n.wy = quadraticWeights(pos.Y - float32(fy) - 0.5)
	return n
}

// quadraticWeights returns the three 1-D B-spline weights for an offset
// d ∈ [-0.5, 0.5) from the containing cell's center.
func quadraticWeights(d float32) [3]float32 {
	a := 0.5 - d
	b := 0.5 + d
	return [3]float32{
		0.5 * a * a,
		0.75 - d*d,
		0.5 * b * b,
	}
}

// Cell returns, for stencil slot (gx, gy) with gx, gy ∈ {0,1,2}, the flat
// grid index, the weight and the vector from the particle to the cell center.
func (n *Neighborhood) Cell(gx, gy, res int) (idx int, w float32, dpos Vec2) {
	x := n.cx + gx - 1
	y := n.cy + gy - 1
	w = n.wx[gx] * n.wy[gy]
	dpos = Vec2{
		X: float32(x) + 0.5 - n.Pos.X,
		Y: float32(y) + 0.5 - n.Pos.Y,
	}
	return y*res + x, w, dpos
}

// WeightSum returns Σ w over the stencil. It is 1 up to rounding.
func (n *Neighborhood) WeightSum() float32 {
	var s float32
	for gy := 0; gy < 3; gy++ {
		for gx := 0; gx < 3; gx++ {
			s += n.wx[gx] * n.wy[gy]
		}
	}
	return s
}
