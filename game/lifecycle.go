package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/mpm/mpm"
	"github.com/pthm-cable/mpm/seed"
)

// rebuild seeds a fresh particle set and replaces the solver with one built
// from p. On error the game is left unchanged.
func (g *Game) rebuild(p mpm.Params) error {
	positions, err := seed.Scene(g.cfg.Seed.Shapes, p.GridRes)
	if err != nil {
		return fmt.Errorf("seeding scene: %w", err)
	}
	particles, err := mpm.NewParticles(positions, g.cfg.Derived.Mass32)
	if err != nil {
		return fmt.Errorf("creating particles: %w", err)
	}
	solver, err := mpm.NewSolver(p)
	if err != nil {
		return fmt.Errorf("creating solver: %w", err)
	}
	solver.ObservePhases(g.perfCollector.ObserveSolver())

	if g.solver != nil {
		g.solver.Close()
	}
	g.solver = solver
	g.particles = particles
	g.lastGood = make([]mpm.Particle, 0, len(particles))
	g.halted = false
	g.stepRequested = false
	return nil
}

// Reset re-seeds the scene with the current parameters.
func (g *Game) Reset() {
	if err := g.ResetWithParams(g.solver.Params()); err != nil {
		slog.Error("reset failed", "error", err)
	}
}

// ResetWithParams re-seeds the scene and rebuilds the solver with p.
// Parameters are fixed for the lifetime of a run, so changing them always
// restarts it.
func (g *Game) ResetWithParams(p mpm.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.GridRes != g.cfg.Simulation.GridRes {
		return fmt.Errorf("%w: grid_res cannot change on reset", mpm.ErrInvalidParams)
	}
	if err := g.rebuild(p); err != nil {
		return err
	}
	g.cfg.ApplyParams(p)
	g.collector.RecordReset()
	slog.Info("scene reset",
		"gravity", p.Gravity,
		"viscosity", p.DynamicViscosity,
		"eos_stiffness", p.EOSStiffness,
		"particles", len(g.particles),
	)
	return nil
}

// Unload stops the solver workers and closes outputs.
func (g *Game) Unload() {
	if g.solver != nil {
		g.solver.Close()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if err := g.stream.Close(); err != nil {
		slog.Error("failed to close stream", "error", err)
	}
}
