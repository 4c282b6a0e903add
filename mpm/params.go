package mpm

import (
	"fmt"
	"math"
)

// minGridRes is the smallest grid that leaves a non-empty stencil-safe band
// [1, res-2] with room for a 3x3 neighborhood.
const minGridRes = 4

// Params holds the fixed configuration of a run. It is passed by value and
// never mutated by the solver.
type Params struct {
	GridRes    int // cells per axis
	Iterations int // sub-steps per rendered frame

	Gravity float32 // vertical acceleration in cells per time unit squared

	// Fluid
	RestDensity      float32
	DynamicViscosity float32

	// Equation of state
	EOSStiffness float32
	EOSPower     float32

	// ForceScale multiplies the stress impulse scattered in the density
	// pass. 4 is the inverse of the quadratic kernel's D = Δx²/4.
	ForceScale float32

	// FixedPointScale converts grid accumulator values to int64 for atomic
	// adds. Larger values give finer resolution.
	FixedPointScale float64

	// BoundaryMargin is the number of cells at each edge whose outward
	// velocity component is removed during the grid update.
	BoundaryMargin int

	// WallMargin is the distance from each wall inside which a particle's
	// predicted next position is pushed back. 0 disables the soft walls.
	WallMargin float32

	// Workers is the size of the worker pool. 0 means GOMAXPROCS.
	Workers int
}

// DefaultParams returns the parameters of the reference scene: a 256² grid
// with a moderately stiff, slightly viscous fluid.
func DefaultParams() Params {
	return Params{
		GridRes:          256,
		Iterations:       10,
		Gravity:          -0.3,
		RestDensity:      4.0,
		DynamicViscosity: 0.1,
		EOSStiffness:     10.0,
		EOSPower:         4,
		ForceScale:       4,
		FixedPointScale:  1e6,
		BoundaryMargin:   2,
		WallMargin:       3,
	}
}

// Validate checks that the parameters describe a runnable configuration.
func (p Params) Validate() error {
	if p.GridRes < minGridRes {
		return fmt.Errorf("%w: grid_res must be at least %d, got %d", ErrInvalidParams, minGridRes, p.GridRes)
	}
	if p.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidParams, p.Iterations)
	}
	if !(p.RestDensity > 0) || !finite32(p.RestDensity) {
		return fmt.Errorf("%w: rest_density must be positive, got %g", ErrInvalidParams, p.RestDensity)
	}
	if p.EOSStiffness < 0 || !finite32(p.EOSStiffness) {
		return fmt.Errorf("%w: eos_stiffness must be non-negative, got %g", ErrInvalidParams, p.EOSStiffness)
	}
	if p.EOSPower < 0 || !finite32(p.EOSPower) {
		return fmt.Errorf("%w: eos_power must be non-negative, got %g", ErrInvalidParams, p.EOSPower)
	}
	if p.DynamicViscosity < 0 || !finite32(p.DynamicViscosity) {
		return fmt.Errorf("%w: dynamic_viscosity must be non-negative, got %g", ErrInvalidParams, p.DynamicViscosity)
	}
	if !finite32(p.Gravity) || !finite32(p.ForceScale) {
		return fmt.Errorf("%w: gravity and force_scale must be finite", ErrInvalidParams)
	}
	if !(p.FixedPointScale > 0) || math.IsInf(p.FixedPointScale, 0) {
		return fmt.Errorf("%w: fixed_point_scale must be positive, got %g", ErrInvalidParams, p.FixedPointScale)
	}
	if p.BoundaryMargin < 0 || 2*p.BoundaryMargin >= p.GridRes {
		return fmt.Errorf("%w: boundary_margin %d does not fit grid_res %d", ErrInvalidParams, p.BoundaryMargin, p.GridRes)
	}
	if p.WallMargin < 0 || 2*p.WallMargin >= float32(p.GridRes) {
		return fmt.Errorf("%w: wall_margin %g does not fit grid_res %d", ErrInvalidParams, p.WallMargin, p.GridRes)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidParams, p.Workers)
	}
	return nil
}

// Pressure evaluates the equation of state at the given density. Densities
// at or below the rest density, and degenerate densities, give zero.
func (p Params) Pressure(density float32) float32 {
	if !(density > 0) || !finite32(density) {
		return 0
	}
	ratio := float64(density / p.RestDensity)
	pr := float64(p.EOSStiffness) * (math.Pow(ratio, float64(p.EOSPower)) - 1)
	if pr < 0 {
		return 0
	}
	return float32(pr)
}

// lo and hi bound particle positions so every 3x3 neighborhood stays on the grid.
func (p Params) lo() float32 { return 1 }
func (p Params) hi() float32 { return float32(p.GridRes - 2) }
