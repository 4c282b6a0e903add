// Package game owns a fluid run: the particle set, the solver stepping it,
// telemetry, and the hooks the window, terminal and stream front ends use.
package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/mpm/config"
	"github.com/pthm-cable/mpm/mpm"
	"github.com/pthm-cable/mpm/stream"
	"github.com/pthm-cable/mpm/telemetry"
)

// Game holds the complete run state.
type Game struct {
	cfg *config.Config

	solver    *mpm.Solver
	particles []mpm.Particle
	lastGood  []mpm.Particle // snapshot restored when a frame goes unstable

	// State
	frame         int32
	paused        bool
	stepRequested bool
	halted        bool // an unstable frame was rolled back; needs a reset
	rollbacks     int

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	perfTable     bool
	statsCallback func(telemetry.WindowStats)
	lastStats     telemetry.WindowStats

	stream *stream.Server
}

// NewGameWithOptions creates a game from the global configuration.
func NewGameWithOptions(opts Options) (*Game, error) {
	return NewGameFromConfig(config.Cfg(), opts)
}

// NewGameFromConfig creates a game from cfg. The game works on its own copy
// of cfg.
func NewGameFromConfig(cfg *config.Config, opts Options) (*Game, error) {
	cfg = cfg.Clone()

	g := &Game{
		cfg:           cfg,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		logStats:      opts.LogStats,
		perfTable:     opts.PerfTable,
		statsCallback: opts.StatsCallback,
	}
	g.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32)

	if err := g.rebuild(cfg.Derived.Params); err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.Unload()
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	srv, err := stream.Start(opts.StreamAddr, cfg.Simulation.GridRes, cfg.Stream.FPS)
	if err != nil {
		g.Unload()
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	g.stream = srv

	slog.Info("scene ready",
		"grid_res", cfg.Simulation.GridRes,
		"particles", len(g.particles),
		"iterations", cfg.Simulation.Iterations,
		"dt", cfg.Simulation.DT,
		"workers", cfg.Solver.Workers,
	)
	return g, nil
}

// UpdateHeadless advances one frame unless paused. A paused game still
// advances when a single step was requested.
func (g *Game) UpdateHeadless() {
	if g.halted {
		return
	}
	if g.paused && !g.stepRequested {
		return
	}
	g.stepRequested = false
	g.simulationStep()
}

// simulationStep runs one frame of sub-steps with perf timing, rolling back
// to the pre-frame snapshot if the solver reports an instability.
func (g *Game) simulationStep() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseSnapshot)
	g.lastGood = append(g.lastGood[:0], g.particles...)

	err := g.solver.Frame(g.particles, g.cfg.Derived.DT32)
	switch {
	case err == nil:
		g.frame++
		g.collector.RecordFrame(g.solver.Params().Iterations)
	case errors.Is(err, mpm.ErrUnstable):
		copy(g.particles, g.lastGood)
		g.rollbacks++
		g.halted = true
		g.collector.RecordRollback()
		slog.Warn("frame rolled back", "frame", g.frame, "error", err)
	default:
		g.halted = true
		slog.Error("frame failed", "frame", g.frame, "error", err)
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.StartPhase(telemetry.PhaseStream)
	g.stream.Publish(g.frame, g.particles)

	g.perfCollector.EndTick()
}

// TogglePause pauses or resumes stepping.
func (g *Game) TogglePause() { g.paused = !g.paused }

// Paused reports whether stepping is paused.
func (g *Game) Paused() bool { return g.paused }

// RequestStep advances a single frame on the next update while paused.
func (g *Game) RequestStep() { g.stepRequested = true }

// Halted reports whether the run stopped after an unrecoverable frame.
func (g *Game) Halted() bool { return g.halted }

// Frame returns the number of completed frames since the game started.
func (g *Game) Frame() int32 { return g.frame }

// Particles returns the current particle state. Callers must not modify it.
func (g *Game) Particles() []mpm.Particle { return g.particles }

// Params returns the solver parameters of the current run.
func (g *Game) Params() mpm.Params { return g.solver.Params() }

// Grid returns the solver grid of the last sub-step.
func (g *Game) Grid() *mpm.Grid { return g.solver.Grid() }

// Config returns the game's configuration.
func (g *Game) Config() *config.Config { return g.cfg }

// PerfCollector returns the frame timing collector.
func (g *Game) PerfCollector() *telemetry.PerfCollector { return g.perfCollector }

// LastStats returns the most recently flushed stats window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// Rollbacks returns the number of frames discarded since the game started.
func (g *Game) Rollbacks() int { return g.rollbacks }

// Status summarizes the run in one line.
func (g *Game) Status() string {
	state := "running"
	switch {
	case g.halted:
		state = "unstable, press R to reset"
	case g.paused:
		state = "paused"
	}
	return fmt.Sprintf("frame %d | %d particles | %s | space pause  n step  r reset  q quit",
		g.frame, len(g.particles), state)
}
