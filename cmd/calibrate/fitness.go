package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/mpm/config"
	"github.com/pthm-cable/mpm/game"
	"github.com/pthm-cable/mpm/seed"
	"github.com/pthm-cable/mpm/telemetry"
)

// Fitness weights. Compression dominates; motion and mass drift break ties
// between parameter sets that hold density equally well.
const (
	weightCompression = 1.0
	weightMotion      = 0.1
	weightMassError   = 10.0

	// haltPenalty is charged to runs that went unstable, scaled up the
	// earlier they failed.
	haltPenalty = 100.0
)

// CalibrationScenes returns the scenes every parameter set is scored on,
// scaled to a grid of res cells: a collapsing water column and a drop
// falling into a shallow pool.
func CalibrationScenes(res int) [][]seed.Shape {
	r := float64(res)
	return [][]seed.Shape{
		{
			{Kind: "box", X: r * 0.25, Y: r * 0.35, Width: r * 0.3, Height: r * 0.5, Spacing: seed.DefaultSpacing},
		},
		{
			{Kind: "box", X: r * 0.5, Y: r * 0.2, Width: r * 0.8, Height: r * 0.2, Spacing: seed.DefaultSpacing},
			{Kind: "disc", X: r * 0.5, Y: r * 0.7, Radius: r * 0.1, Spacing: seed.DefaultSpacing},
		},
	}
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params       *ParamVector
	maxFrames    int32
	windowFrames int
	scenes       [][]seed.Shape
	baseConfig   *config.Config

	// Best run tracking
	mu              sync.Mutex
	bestFitness     float64
	lastCompression float64 // settled compression from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Each scene runs maxFrames
// frames on a copy of baseCfg.
func NewFitnessEvaluator(params *ParamVector, maxFrames int32, scenes [][]seed.Shape, baseCfg *config.Config) *FitnessEvaluator {
	window := int(maxFrames) / 10
	if window < 1 {
		window = 1
	}
	return &FitnessEvaluator{
		params:       params,
		maxFrames:    maxFrames,
		windowFrames: window,
		scenes:       scenes,
		baseConfig:   baseCfg,
		bestFitness:  math.Inf(1),
	}
}

// BestFitness returns the lowest fitness seen so far.
func (fe *FitnessEvaluator) BestFitness() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness
}

// LastCompression returns the settled compression from the most recent
// evaluation.
func (fe *FitnessEvaluator) LastCompression() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastCompression
}

// runResult holds the results from a single simulation run.
type runResult struct {
	frames      int32 // frames completed before halting (or maxFrames)
	halted      bool
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	rest := cfg.Fluid.RestDensity

	// Scenes run in parallel, so each solver gets a single worker.
	p := cfg.Params()
	p.Workers = 1
	cfg.ApplyParams(p)
	cfg.Telemetry.StatsWindow = fe.windowFrames

	fitness := make([]float64, len(fe.scenes))
	compression := make([]float64, len(fe.scenes))
	var wg sync.WaitGroup

	for i, shapes := range fe.scenes {
		wg.Add(1)
		go func(idx int, shapes []seed.Shape) {
			defer wg.Done()
			r := fe.runScene(cfg, shapes)
			fitness[idx] = scoreRun(r, rest, fe.maxFrames)
			compression[idx] = settledCompression(r.windowStats, rest)
		}(i, shapes)
	}
	wg.Wait()

	var total, totalCompression float64
	for i := range fitness {
		total += fitness[i]
		totalCompression += compression[i]
	}
	n := float64(len(fe.scenes))
	avg := total / n

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
	}
	fe.lastCompression = totalCompression / n
	fe.mu.Unlock()

	return avg
}

// runScene executes a single headless run of one scene.
// Runs until the solver halts or maxFrames, whichever comes first.
func (fe *FitnessEvaluator) runScene(base *config.Config, shapes []seed.Shape) *runResult {
	cfg := base.Clone()
	cfg.Seed.Shapes = shapes

	result := &runResult{}
	g, err := game.NewGameFromConfig(cfg, game.Options{
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		result.halted = true
		return result
	}
	defer g.Unload()

	for g.Frame() < fe.maxFrames && !g.Halted() {
		g.UpdateHeadless()
	}
	result.frames = g.Frame()
	result.halted = g.Halted()
	return result
}

// scoreRun calculates the scalar fitness of one run (lower = better).
// Only the second half of the windows is scored, once the fluid has had
// time to settle.
func scoreRun(r *runResult, restDensity float64, maxFrames int32) float64 {
	if r.halted || maxFrames <= 0 {
		lost := 1.0
		if maxFrames > 0 {
			lost = float64(maxFrames-r.frames) / float64(maxFrames)
		}
		return haltPenalty * (1 + lost)
	}

	settled := settledWindows(r.windowStats)
	if len(settled) == 0 {
		return haltPenalty
	}

	var sum float64
	for _, w := range settled {
		c := w.DensityP90/restDensity - 1
		var motion float64
		if w.ParticleMass > 0 {
			motion = w.KineticEnergy / w.ParticleMass
		}
		sum += weightCompression*c*c + weightMotion*motion + weightMassError*w.MassError*w.MassError
	}
	return sum / float64(len(settled))
}

// settledCompression is the mean relative p90 density excess over the
// settled windows.
func settledCompression(windows []telemetry.WindowStats, restDensity float64) float64 {
	settled := settledWindows(windows)
	if len(settled) == 0 || restDensity <= 0 {
		return 0
	}
	var sum float64
	for _, w := range settled {
		sum += w.DensityP90/restDensity - 1
	}
	return sum / float64(len(settled))
}

func settledWindows(windows []telemetry.WindowStats) []telemetry.WindowStats {
	return windows[len(windows)/2:]
}
