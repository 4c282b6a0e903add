// Package main tunes the fluid's equation of state and viscosity with
// CMA-ES so that settled scenes hold their rest density without going
// unstable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/mpm/config"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	gridRes := flag.Int("grid-res", 64, "Grid resolution of the calibration scenes")
	maxFrames := flag.Int("frames", 300, "Frames simulated per scene")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Scenes run on a smaller grid than the interactive default.
	baseCfg := config.Cfg().Clone()
	p := baseCfg.Params()
	p.GridRes = *gridRes
	if err := p.Validate(); err != nil {
		log.Fatalf("invalid calibration grid: %v", err)
	}
	baseCfg.ApplyParams(p)

	params := NewParamVector()
	scenes := CalibrationScenes(*gridRes)
	evaluator := NewFitnessEvaluator(params, int32(*maxFrames), scenes, baseCfg)

	evals, err := newEvalLog(filepath.Join(*outputDir, "calibrate_log.csv"), params, *maxEvals)
	if err != nil {
		log.Fatal(err)
	}
	defer evals.close()

	// The optimizer works in the unit cube; the simulation sees clamped raw
	// values, and those are what get logged.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			evals.record(raw, fitness, evaluator.LastCompression())
			return fitness
		},
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; scenes run in parallel
	}

	fmt.Printf("Starting CMA-ES calibration with %d parameters, population=%d, max_evals=%d\n",
		params.Dim(), popSize, *maxEvals)
	fmt.Printf("Scenes per evaluation: %d, frames per scene: %d, grid: %d\n",
		len(scenes), *maxFrames, *gridRes)

	initX := params.Normalize(params.ExtractFromConfig(baseCfg))
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("calibration ended: %v", err)
	}

	best := evals.bestParams
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n",
		evals.count, formatDuration(time.Since(evals.start)))
	fmt.Printf("Best fitness: %.4f\n", evals.bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, best[i])
	}

	// The saved config keeps the user's grid; only the fluid changes.
	bestCfg := config.Cfg().Clone()
	params.ApplyToConfig(bestCfg, best)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
