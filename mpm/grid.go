package mpm

import (
	"math"
	"sync/atomic"
)

// Grid is the dense background grid, stored as structure-of-arrays with
// flat index y*res + x. During the scatter passes mass and momentum are
// accumulated as fixed-point int64 values with atomic adds, which makes the
// sums exact and independent of the order particles arrive in. The grid
// update converts them to float velocities.
type Grid struct {
	res   int
	scale float64 // float -> fixed-point
	inv   float64 // fixed-point -> float

	// Scatter accumulators (fixed point)
	mass []int64
	momX []int64
	momY []int64

	// Resolved by the grid update
	velX  []float32
	velY  []float32
	massF []float32
}

// NewGrid allocates a res×res grid with the given fixed-point scale.
func NewGrid(res int, scale float64) *Grid {
	n := res * res
	return &Grid{
		res:   res,
		scale: scale,
		inv:   1 / scale,
		mass:  make([]int64, n),
		momX:  make([]int64, n),
		momY:  make([]int64, n),
		velX:  make([]float32, n),
		velY:  make([]float32, n),
		massF: make([]float32, n),
	}
}

// Res returns the number of cells per axis.
func (g *Grid) Res() int { return g.res }

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.mass) }

func (g *Grid) fixed(v float32) int64 {
	return int64(math.Round(float64(v) * g.scale))
}

// reset zeroes the accumulators of cells [i0, i1).
func (g *Grid) reset(i0, i1 int) {
	clear(g.mass[i0:i1])
	clear(g.momX[i0:i1])
	clear(g.momY[i0:i1])
}

// addMass atomically adds m to cell idx.
func (g *Grid) addMass(idx int, m float32) {
	atomic.AddInt64(&g.mass[idx], g.fixed(m))
}

// maxFixed bounds accumulator contributions so that sums over a stencil
// neighborhood cannot overflow int64.
const maxFixed = 1 << 56

// fits reports whether v is finite and small enough to accumulate.
func (g *Grid) fits(v Vec2) bool {
	x := math.Abs(float64(v.X) * g.scale)
	y := math.Abs(float64(v.Y) * g.scale)
	return x < maxFixed && y < maxFixed
}

// fitsMass reports whether a mass sum can be accumulated without
// overflowing a cell.
func (g *Grid) fitsMass(m float64) bool {
	return m*g.scale < maxFixed
}

// addMomentum atomically adds mom to cell idx.
func (g *Grid) addMomentum(idx int, mom Vec2) {
	if q := g.fixed(mom.X); q != 0 {
		atomic.AddInt64(&g.momX[idx], q)
	}
	if q := g.fixed(mom.Y); q != 0 {
		atomic.AddInt64(&g.momY[idx], q)
	}
}

// accumulatedMass returns the mass scattered into idx so far. It must only
// be called after the pass writing mass has completed.
func (g *Grid) accumulatedMass(idx int) float32 {
	return float32(float64(g.mass[idx]) * g.inv)
}

// update resolves cells [i0, i1): velocity = momentum / mass, gravity, and
// removal of outward velocity near the domain edge. Empty cells stay at rest.
func (g *Grid) update(i0, i1 int, p *Params, dt float32) {
	res := g.res
	margin := p.BoundaryMargin
	for i := i0; i < i1; i++ {
		m := g.mass[i]
		if m <= 0 {
			g.velX[i], g.velY[i], g.massF[i] = 0, 0, 0
			continue
		}
		// Ratio of two fixed-point values; the scale cancels.
		inv := 1 / float64(m)
		vx := float32(float64(g.momX[i]) * inv)
		vy := float32(float64(g.momY[i]) * inv)
		vy += p.Gravity * dt

		x := i % res
		y := i / res
		if (x < margin && vx < 0) || (x > res-1-margin && vx > 0) {
			vx = 0
		}
		if (y < margin && vy < 0) || (y > res-1-margin && vy > 0) {
			vy = 0
		}

		g.velX[i] = vx
		g.velY[i] = vy
		g.massF[i] = float32(float64(m) * g.inv)
	}
}

// Velocity returns the resolved velocity of cell idx.
func (g *Grid) Velocity(idx int) Vec2 {
	return Vec2{g.velX[idx], g.velY[idx]}
}

// Mass returns the resolved mass of cell idx.
func (g *Grid) Mass(idx int) float32 {
	return g.massF[idx]
}

// TotalMass sums the accumulated mass of every cell.
func (g *Grid) TotalMass() float64 {
	var sum int64
	for _, m := range g.mass {
		sum += m
	}
	return float64(sum) * g.inv
}
