package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/mpm/mpm"
)

// WindowStats holds physical statistics sampled at the end of a window,
// plus event counts accumulated during it.
type WindowStats struct {
	WindowStartFrame int32   `csv:"-"`
	WindowEndFrame   int32   `csv:"window_end"`
	SimTime          float64 `csv:"sim_time"`

	Particles int `csv:"particles"`

	// Events during window
	Substeps  int `csv:"substeps"`
	Rollbacks int `csv:"rollbacks"`
	Resets    int `csv:"resets"`

	// Mass bookkeeping (grid mass is from the last sub-step's scatter)
	ParticleMass float64 `csv:"particle_mass"`
	GridMass     float64 `csv:"grid_mass"`
	MassError    float64 `csv:"mass_error"` // relative

	// Bulk motion
	ComX          float64 `csv:"com_x"`
	ComY          float64 `csv:"com_y"`
	MomentumX     float64 `csv:"momentum_x"`
	MomentumY     float64 `csv:"momentum_y"`
	KineticEnergy float64 `csv:"kinetic_energy"`

	// Speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Density sampled at particle positions
	DensityMean float64 `csv:"density_mean"`
	DensityP90  float64 `csv:"density_p90"`
	DensityMax  float64 `csv:"density_max"`

	VorticityMaxAbs float64 `csv:"vorticity_max_abs"`
}

// Field is the grid state statistics are sampled from. *mpm.Solver
// implements it.
type Field interface {
	DensityAt(pos mpm.Vec2) float32
	GridMass() float64
}

// Distribution summarizes a sample with gonum's stat package.
type Distribution struct {
	Mean, Std     float64
	P50, P90, Max float64
}

// Distribute computes a Distribution of values. values is sorted in place.
// Returns the zero value for an empty slice.
func Distribute(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return Distribution{
		Mean: mean,
		Std:  std,
		P50:  stat.Quantile(0.5, stat.Empirical, values, nil),
		P90:  stat.Quantile(0.9, stat.Empirical, values, nil),
		Max:  floats.Max(values),
	}
}

// sampleBuffers holds the per-particle scratch slices reused across windows.
type sampleBuffers struct {
	xs, ys, masses []float64
	speeds, dens   []float64
}

func (b *sampleBuffers) resize(n int) {
	grow := func(s []float64) []float64 {
		if cap(s) < n {
			return make([]float64, n)
		}
		return s[:n]
	}
	b.xs = grow(b.xs)
	b.ys = grow(b.ys)
	b.masses = grow(b.masses)
	b.speeds = grow(b.speeds)
	b.dens = grow(b.dens)
}

// fill samples the particle state into the window record.
func (b *sampleBuffers) fill(ws *WindowStats, ps []mpm.Particle, field Field) {
	n := len(ps)
	ws.Particles = n
	if n == 0 {
		return
	}
	b.resize(n)

	var ke, px, py, vort float64
	for i := range ps {
		p := &ps[i]
		m := float64(p.Mass)
		vx, vy := float64(p.Vel.X), float64(p.Vel.Y)

		b.xs[i] = float64(p.Pos.X)
		b.ys[i] = float64(p.Pos.Y)
		b.masses[i] = m
		b.speeds[i] = math.Hypot(vx, vy)

		px += m * vx
		py += m * vy
		ke += 0.5 * m * (vx*vx + vy*vy)
		vort = math.Max(vort, math.Abs(float64(p.C.YX-p.C.XY)))

		if field != nil {
			b.dens[i] = float64(field.DensityAt(p.Pos))
		}
	}

	ws.ParticleMass = floats.Sum(b.masses)
	ws.ComX = stat.Mean(b.xs, b.masses)
	ws.ComY = stat.Mean(b.ys, b.masses)
	ws.MomentumX = px
	ws.MomentumY = py
	ws.KineticEnergy = ke
	ws.VorticityMaxAbs = vort

	speed := Distribute(b.speeds)
	ws.SpeedMean = speed.Mean
	ws.SpeedStd = speed.Std
	ws.SpeedP50 = speed.P50
	ws.SpeedP90 = speed.P90
	ws.SpeedMax = speed.Max

	if field != nil {
		dens := Distribute(b.dens)
		ws.DensityMean = dens.Mean
		ws.DensityP90 = dens.P90
		ws.DensityMax = dens.Max

		ws.GridMass = field.GridMass()
		if ws.ParticleMass > 0 {
			ws.MassError = math.Abs(ws.GridMass-ws.ParticleMass) / ws.ParticleMass
		}
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartFrame)),
		slog.Int("window_end", int(s.WindowEndFrame)),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("particles", s.Particles),
		slog.Int("substeps", s.Substeps),
		slog.Int("rollbacks", s.Rollbacks),
		slog.Int("resets", s.Resets),
		slog.Float64("particle_mass", s.ParticleMass),
		slog.Float64("grid_mass", s.GridMass),
		slog.Float64("mass_error", s.MassError),
		slog.Float64("com_x", s.ComX),
		slog.Float64("com_y", s.ComY),
		slog.Float64("momentum_x", s.MomentumX),
		slog.Float64("momentum_y", s.MomentumY),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("vorticity_max_abs", s.VorticityMaxAbs),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
