// Package mpm implements a 2-D MLS-MPM fluid stepping engine with APIC
// transfers.
//
// Each sub-step runs five passes in strict sequence, with a full barrier
// between them:
//
//	clear grid → scatter mass/momentum → scatter density force →
//	grid update → gather velocity and advect
//
// Particle passes and cell passes are split across a persistent worker pool.
// Concurrent scatters into the same cell use fixed-point atomic adds, so the
// result of a step does not depend on the number of workers.
package mpm

import (
	"fmt"
	"sync/atomic"
)

// Phase names a pass of the sub-step pipeline.
type Phase string

// Pipeline phases in execution order.
const (
	PhaseClearGrid    Phase = "clear_grid"
	PhaseScatterMass  Phase = "p2g"
	PhaseScatterForce Phase = "density_force"
	PhaseGridUpdate   Phase = "grid_update"
	PhaseGather       Phase = "g2p"
)

// Phases lists the pipeline phases in execution order.
var Phases = []Phase{
	PhaseClearGrid, PhaseScatterMass, PhaseScatterForce, PhaseGridUpdate, PhaseGather,
}

// Solver owns the grid and worker pool of one run. It is not safe for
// concurrent use; Step calls must be serialized by the caller.
type Solver struct {
	params Params
	grid   *Grid
	pool   *pool

	// Per-step state read by the pass functions.
	ps       []Particle
	dt       float32
	unstable atomic.Bool

	// Bound once so dispatching a pass does not allocate.
	clearFn, massFn, forceFn, updateFn, gatherFn passFunc

	observe func(Phase)
}

// NewSolver validates p and allocates the grid for it.
func NewSolver(p Params) (*Solver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		params: p,
		grid:   NewGrid(p.GridRes, p.FixedPointScale),
		pool:   newPool(p.Workers),
	}
	s.clearFn = s.grid.reset
	s.massFn = s.scatterMass
	s.forceFn = s.scatterForce
	s.updateFn = func(i0, i1 int) { s.grid.update(i0, i1, &s.params, s.dt) }
	s.gatherFn = s.gatherVelocity
	return s, nil
}

// Step runs iterations sub-steps of length dt on ps in place, using a
// transient solver built from p.
func Step(ps []Particle, p Params, dt float32, iterations int) error {
	s, err := NewSolver(p)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Step(ps, dt, iterations)
}

// Params returns the solver's parameters.
func (s *Solver) Params() Params { return s.params }

// Grid returns the solver's grid. Its contents describe the last completed
// sub-step and are only meaningful between Step calls.
func (s *Solver) Grid() *Grid { return s.grid }

// ObservePhases registers fn to be called at the start of every pass, for
// timing. Pass nil to remove it.
func (s *Solver) ObservePhases(fn func(Phase)) { s.observe = fn }

// Close stops the worker pool.
func (s *Solver) Close() {
	s.pool.stop()
}

// Frame runs the configured number of sub-steps.
func (s *Solver) Frame(ps []Particle, dt float32) error {
	return s.Step(ps, dt, s.params.Iterations)
}

// Step runs iterations sub-steps of length dt on ps in place. On
// ErrUnstable the particle array is partially updated and should be
// replaced by the caller's last good snapshot.
func (s *Solver) Step(ps []Particle, dt float32, iterations int) error {
	if len(ps) == 0 {
		return ErrNoParticles
	}
	if iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidParams, iterations)
	}
	if !(dt > 0) || !finite32(dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidParams, dt)
	}
	if err := s.admit(ps); err != nil {
		return err
	}

	s.ps = ps
	s.dt = dt
	s.unstable.Store(false)
	defer func() { s.ps = nil }()

	for it := 0; it < iterations; it++ {
		s.substep()
		if s.unstable.Load() {
			return fmt.Errorf("%w: sub-step %d of %d", ErrUnstable, it+1, iterations)
		}
	}
	return nil
}

// admit checks the particles at step entry and pulls positions in the outer
// cell ring into the stencil-safe band. Nothing is modified unless every
// particle passes.
func (s *Solver) admit(ps []Particle) error {
	res := float32(s.params.GridRes)
	var total float64
	for i := range ps {
		p := &ps[i]
		if !p.Pos.finite() || p.Pos.X < 0 || p.Pos.Y < 0 || p.Pos.X >= res || p.Pos.Y >= res {
			return fmt.Errorf("%w: particle %d at (%g,%g), grid %d", ErrOutOfBounds, i, p.Pos.X, p.Pos.Y, s.params.GridRes)
		}
		if !(p.Mass > 0) || !finite32(p.Mass) {
			return fmt.Errorf("%w: particle %d has mass %g", ErrInvalidParams, i, p.Mass)
		}
		if !p.Vel.finite() || !p.C.finite() {
			return fmt.Errorf("%w: particle %d has non-finite velocity", ErrUnstable, i)
		}
		total += float64(p.Mass)
	}
	// A cell never holds more than the total mass.
	if !s.grid.fitsMass(total) {
		return fmt.Errorf("%w: total mass %g exceeds fixed-point range at scale %g", ErrInvalidParams, total, s.params.FixedPointScale)
	}

	lo, hi := s.params.lo(), s.params.hi()
	for i := range ps {
		ps[i].Pos.X = clamp(ps[i].Pos.X, lo, hi)
		ps[i].Pos.Y = clamp(ps[i].Pos.Y, lo, hi)
	}
	return nil
}

// substep runs the five passes with a barrier after each.
func (s *Solver) substep() {
	cells := s.grid.Len()
	n := len(s.ps)

	s.phase(PhaseClearGrid)
	s.pool.run(cells, s.clearFn)

	s.phase(PhaseScatterMass)
	s.pool.run(n, s.massFn)

	s.phase(PhaseScatterForce)
	s.pool.run(n, s.forceFn)

	s.phase(PhaseGridUpdate)
	s.pool.run(cells, s.updateFn)

	s.phase(PhaseGather)
	s.pool.run(n, s.gatherFn)
}

func (s *Solver) phase(ph Phase) {
	if s.observe != nil {
		s.observe(ph)
	}
}

// DensityAt estimates the density at pos from the mass field of the last
// sub-step, with the same kernel the force pass uses.
func (s *Solver) DensityAt(pos Vec2) float32 {
	lo, hi := s.params.lo(), s.params.hi()
	pos = Vec2{clamp(pos.X, lo, hi), clamp(pos.Y, lo, hi)}
	n := NewNeighborhood(pos, s.params.GridRes)
	return s.gatherDensity(&n)
}

// GridMass returns the total cell mass scattered in the last sub-step.
func (s *Solver) GridMass() float64 { return s.grid.TotalMass() }
