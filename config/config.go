// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/mpm/mpm"
	"github.com/pthm-cable/mpm/seed"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Fluid      FluidConfig      `yaml:"fluid"`
	Solver     SolverConfig     `yaml:"solver"`
	Seed       SeedConfig       `yaml:"seed"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Stream     StreamConfig     `yaml:"stream"`
	Terminal   TerminalConfig   `yaml:"terminal"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimulationConfig holds the grid and time stepping parameters.
type SimulationConfig struct {
	GridRes      int     `yaml:"grid_res"`
	Iterations   int     `yaml:"iterations"` // sub-steps per frame
	DT           float64 `yaml:"dt"`         // time per sub-step
	Gravity      float64 `yaml:"gravity"`
	ParticleMass float64 `yaml:"particle_mass"`
}

// FluidConfig holds the material model.
type FluidConfig struct {
	RestDensity      float64 `yaml:"rest_density"`
	DynamicViscosity float64 `yaml:"dynamic_viscosity"`
	EOSStiffness     float64 `yaml:"eos_stiffness"`
	EOSPower         float64 `yaml:"eos_power"`
	ForceScale       float64 `yaml:"force_scale"`
}

// SolverConfig holds numerical and scheduling settings.
type SolverConfig struct {
	FixedPointScale float64 `yaml:"fixed_point_scale"`
	BoundaryMargin  int     `yaml:"boundary_margin"`
	WallMargin      float64 `yaml:"wall_margin"` // 0 disables soft walls
	Workers         int     `yaml:"workers"`     // 0 = GOMAXPROCS
}

// SeedConfig lists the emitters that build the initial particle set.
type SeedConfig struct {
	Shapes []seed.Shape `yaml:"shapes"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // frames per record
	PerfCollectorWindow int `yaml:"perf_collector_window"` // frames averaged
}

// StreamConfig holds the websocket frame streaming settings.
type StreamConfig struct {
	Addr string `yaml:"addr"` // empty disables
	FPS  int    `yaml:"fps"`
}

// TerminalConfig holds terminal view settings.
type TerminalConfig struct {
	FPS int `yaml:"fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32   float32    // Simulation.DT as float32
	Mass32 float32    // Simulation.ParticleMass as float32
	Params mpm.Params // solver parameters
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Derived.Params.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if !(cfg.Derived.DT32 > 0) {
		return nil, fmt.Errorf("validating config: simulation.dt must be positive, got %g", cfg.Simulation.DT)
	}
	if !(cfg.Derived.Mass32 > 0) {
		return nil, fmt.Errorf("validating config: simulation.particle_mass must be positive, got %g", cfg.Simulation.ParticleMass)
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Simulation.DT)
	c.Derived.Mass32 = float32(c.Simulation.ParticleMass)
	c.Derived.Params = c.Params()

	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 60
	}
	if c.Stream.FPS < 1 {
		c.Stream.FPS = 30
	}
	if c.Terminal.FPS < 1 {
		c.Terminal.FPS = 30
	}
}

// Params converts the configuration to solver parameters.
func (c *Config) Params() mpm.Params {
	return mpm.Params{
		GridRes:          c.Simulation.GridRes,
		Iterations:       c.Simulation.Iterations,
		Gravity:          float32(c.Simulation.Gravity),
		RestDensity:      float32(c.Fluid.RestDensity),
		DynamicViscosity: float32(c.Fluid.DynamicViscosity),
		EOSStiffness:     float32(c.Fluid.EOSStiffness),
		EOSPower:         float32(c.Fluid.EOSPower),
		ForceScale:       float32(c.Fluid.ForceScale),
		FixedPointScale:  c.Solver.FixedPointScale,
		BoundaryMargin:   c.Solver.BoundaryMargin,
		WallMargin:       float32(c.Solver.WallMargin),
		Workers:          c.Solver.Workers,
	}
}

// ApplyParams writes solver parameters back into the configuration, e.g.
// after they were edited interactively or found by calibration.
func (c *Config) ApplyParams(p mpm.Params) {
	c.Simulation.GridRes = p.GridRes
	c.Simulation.Iterations = p.Iterations
	c.Simulation.Gravity = float64(p.Gravity)
	c.Fluid.RestDensity = float64(p.RestDensity)
	c.Fluid.DynamicViscosity = float64(p.DynamicViscosity)
	c.Fluid.EOSStiffness = float64(p.EOSStiffness)
	c.Fluid.EOSPower = float64(p.EOSPower)
	c.Fluid.ForceScale = float64(p.ForceScale)
	c.Solver.FixedPointScale = p.FixedPointScale
	c.Solver.BoundaryMargin = p.BoundaryMargin
	c.Solver.WallMargin = float64(p.WallMargin)
	c.Solver.Workers = p.Workers
	c.computeDerived()
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Seed.Shapes = append([]seed.Shape(nil), c.Seed.Shapes...)
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
