package mpm

import (
	"fmt"
	"slices"
)

// Particle is one material point. Mass is constant for the lifetime of a run.
type Particle struct {
	Pos  Vec2 // grid space
	Vel  Vec2
	C    Mat2 // APIC affine velocity field
	Mass float32
}

// NewParticles builds the particle array from seed positions: uniform mass,
// zero velocity, zero affine matrix.
func NewParticles(positions []Vec2, mass float32) ([]Particle, error) {
	if len(positions) == 0 {
		return nil, ErrNoParticles
	}
	if !(mass > 0) || !finite32(mass) {
		return nil, fmt.Errorf("%w: particle mass must be positive, got %g", ErrInvalidParams, mass)
	}
	ps := make([]Particle, len(positions))
	for i, pos := range positions {
		if !pos.finite() {
			return nil, fmt.Errorf("%w: seed %d at (%g,%g)", ErrOutOfBounds, i, pos.X, pos.Y)
		}
		ps[i] = Particle{Pos: pos, Mass: mass}
	}
	return ps, nil
}

// Snapshot returns a copy of ps suitable for rolling back a failed frame.
func Snapshot(ps []Particle) []Particle {
	return slices.Clone(ps)
}

// TotalMass sums the particle masses.
func TotalMass(ps []Particle) float64 {
	var sum float64
	for i := range ps {
		sum += float64(ps[i].Mass)
	}
	return sum
}

// Instance is the read-only per-particle data a renderer draws.
type Instance struct {
	Pos       Vec2
	Speed     float32
	Vorticity float32 // ∂vy/∂x - ∂vx/∂y from the affine matrix
}

// Instances fills dst (reusing its capacity) with render data for ps.
func Instances(ps []Particle, dst []Instance) []Instance {
	dst = dst[:0]
	for i := range ps {
		p := &ps[i]
		dst = append(dst, Instance{
			Pos:       p.Pos,
			Speed:     p.Vel.Len(),
			Vorticity: p.C.YX - p.C.XY,
		})
	}
	return dst
}
