package game

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/mpm/config"
	"github.com/pthm-cable/mpm/mpm"
	"github.com/pthm-cable/mpm/seed"
	"github.com/pthm-cable/mpm/telemetry"
)

// smallConfig is a 32² scene with an 8×8 block of fluid.
func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	p := cfg.Params()
	p.GridRes = 32
	p.Iterations = 4
	p.Workers = 1
	cfg.ApplyParams(p)
	cfg.Seed.Shapes = []seed.Shape{{Kind: "box", X: 16, Y: 16, Width: 8, Height: 8, Spacing: 0.5}}
	cfg.Telemetry.StatsWindow = 2
	return cfg
}

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	g, err := NewGameFromConfig(smallConfig(t), opts)
	require.NoError(t, err)
	t.Cleanup(g.Unload)
	return g
}

func TestNewGameSeedsScene(t *testing.T) {
	g := newTestGame(t, Options{})

	assert.Len(t, g.Particles(), 16*16)
	assert.Equal(t, 32, g.Params().GridRes)
	assert.Equal(t, int32(0), g.Frame())
	assert.False(t, g.Paused())
	assert.False(t, g.Halted())
}

func TestNewGameRejectsBadScene(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Seed.Shapes = []seed.Shape{{Kind: "box", X: 2, Y: 2, Width: 8, Height: 8}}
	_, err := NewGameFromConfig(cfg, Options{})
	assert.Error(t, err)
}

func TestUpdateHeadlessAdvancesFrames(t *testing.T) {
	g := newTestGame(t, Options{})
	before := mpm.Snapshot(g.Particles())

	for i := 0; i < 3; i++ {
		g.UpdateHeadless()
	}

	assert.Equal(t, int32(3), g.Frame())
	// Gravity pulls the block down.
	var dy float32
	for i, p := range g.Particles() {
		dy += p.Pos.Y - before[i].Pos.Y
	}
	assert.Less(t, dy, float32(0))
}

func TestDefaultSceneStaysUnderOneCellPerSubstep(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the full-size default scene")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	g, err := NewGameFromConfig(cfg, Options{})
	require.NoError(t, err)
	defer g.Unload()

	// Long enough for the block to reach the floor and splash.
	limit := 1 / cfg.Derived.DT32
	for frame := 1; frame <= 180; frame++ {
		g.UpdateHeadless()
		require.False(t, g.Halted(), "frame %d: %s", frame, g.Status())

		var maxSpeed float32
		for _, p := range g.Particles() {
			maxSpeed = max(maxSpeed, p.Vel.Len())
		}
		require.Less(t, maxSpeed, limit, "frame %d", frame)
	}
}

func TestPauseAndSingleStep(t *testing.T) {
	g := newTestGame(t, Options{})

	g.TogglePause()
	g.UpdateHeadless()
	g.UpdateHeadless()
	assert.Equal(t, int32(0), g.Frame(), "paused game should not advance")

	g.RequestStep()
	g.UpdateHeadless()
	g.UpdateHeadless()
	assert.Equal(t, int32(1), g.Frame(), "a requested step advances exactly one frame")

	g.TogglePause()
	g.UpdateHeadless()
	assert.Equal(t, int32(2), g.Frame())
	assert.Contains(t, g.Status(), "frame 2")
}

func TestStatsWindowFlushes(t *testing.T) {
	var windows []telemetry.WindowStats
	g := newTestGame(t, Options{StatsCallback: func(s telemetry.WindowStats) {
		windows = append(windows, s)
	}})

	for i := 0; i < 4; i++ {
		g.UpdateHeadless()
	}

	require.Len(t, windows, 2)
	w := windows[1]
	assert.Equal(t, int32(4), w.WindowEndFrame)
	assert.Equal(t, 8, w.Substeps)
	assert.Equal(t, 256, w.Particles)
	assert.InDelta(t, 256, w.ParticleMass, 1e-9)
	assert.InDelta(t, w.ParticleMass, w.GridMass, 1e-3*w.ParticleMass)
	assert.Greater(t, w.DensityMean, 0.0)
	assert.Equal(t, w, g.LastStats())
}

func TestUnstableFrameRollsBack(t *testing.T) {
	g := newTestGame(t, Options{})
	g.UpdateHeadless()

	g.particles[0].Vel.X = float32(math.NaN())
	snapshot := mpm.Snapshot(g.Particles())

	g.UpdateHeadless()

	assert.True(t, g.Halted())
	assert.Equal(t, 1, g.Rollbacks())
	assert.Equal(t, int32(1), g.Frame(), "rolled back frame does not count")
	assert.Equal(t, snapshot[1:], g.Particles()[1:])
	assert.Contains(t, g.Status(), "unstable")

	// Halted games stay put until reset.
	g.UpdateHeadless()
	assert.Equal(t, int32(1), g.Frame())

	g.Reset()
	assert.False(t, g.Halted())
	g.UpdateHeadless()
	assert.Equal(t, int32(2), g.Frame())
}

func TestResetWithParams(t *testing.T) {
	g := newTestGame(t, Options{})
	initial := mpm.Snapshot(g.Particles())
	g.UpdateHeadless()

	p := g.Params()
	p.DynamicViscosity = 0.5
	p.Gravity = -0.1
	require.NoError(t, g.ResetWithParams(p))

	assert.Equal(t, initial, g.Particles(), "reset re-seeds the scene")
	assert.Equal(t, float32(0.5), g.Params().DynamicViscosity)
	assert.InDelta(t, 0.5, g.Config().Fluid.DynamicViscosity, 1e-6)

	bad := g.Params()
	bad.RestDensity = 0
	assert.True(t, errors.Is(g.ResetWithParams(bad), mpm.ErrInvalidParams))

	resized := g.Params()
	resized.GridRes = 64
	assert.True(t, errors.Is(g.ResetWithParams(resized), mpm.ErrInvalidParams))
	assert.Equal(t, float32(0.5), g.Params().DynamicViscosity, "failed reset keeps the run")
}

func TestOutputDirReceivesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g, err := NewGameFromConfig(smallConfig(t), Options{OutputDir: dir})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		g.UpdateHeadless()
	}
	g.Unload()

	for _, name := range []string{"frames.csv", "perf.csv", "config.yaml"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)
}

func TestPerfTableLogging(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriter(&buf)
	defer SetLogWriter(nil)

	g := newTestGame(t, Options{PerfTable: true})
	g.UpdateHeadless()
	g.UpdateHeadless()

	out := buf.String()
	assert.Contains(t, out, "=== Perf @ Frame 2")
	assert.Contains(t, out, string(mpm.PhaseScatterForce))
}
