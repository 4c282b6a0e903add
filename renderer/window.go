// Package renderer draws a fluid run in a raylib window.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mpm/camera"
	"github.com/pthm-cable/mpm/mpm"
	"github.com/pthm-cable/mpm/telemetry"
	"github.com/pthm-cable/mpm/ui"
)

// panelWidth is the width of the control panel on the right.
const panelWidth = 260

// Sim is the simulation a Window drives. *game.Game implements it.
type Sim interface {
	UpdateHeadless()
	Particles() []mpm.Particle
	Grid() *mpm.Grid
	Params() mpm.Params
	Paused() bool
	TogglePause()
	RequestStep()
	Reset()
	ResetWithParams(p mpm.Params) error
	Frame() int32
	Halted() bool
	Rollbacks() int
	LastStats() telemetry.WindowStats
	PerfCollector() *telemetry.PerfCollector
}

const controlsLegend = "SPACE pause | N step | R reset | G density | C camera | H panels | wheel zoom | right drag pan"

// Window renders a Sim and handles keyboard and panel input. Create it
// after the raylib window is open.
type Window struct {
	sim       Sim
	cam       *camera.Camera
	particles *ParticleRenderer
	density   *DensityRenderer
	controls  *Controls
	hud       *ui.HUD
	stats     *ui.StatsPanel
	perf      *ui.PerfPanel

	showDensity bool
	showPanels  bool
}

// NewWindow creates a window front end for sim.
func NewWindow(sim Sim) *Window {
	p := sim.Params()
	w := &Window{
		sim:       sim,
		cam:       camera.New(float32(p.GridRes)),
		particles: NewParticleRenderer(),
		density:   NewDensityRenderer(p.GridRes),
		hud:       ui.NewHUD(),
		stats:     ui.NewStatsPanel(240),
		perf:      ui.NewPerfPanel(240),
	}
	w.controls = NewControls(float32(rl.GetScreenWidth()-panelWidth), panelWidth, p)
	w.density.Init()
	return w
}

// Update processes input and advances the simulation one frame.
func (w *Window) Update() {
	w.handleInput()
	w.sim.UpdateHeadless()
	w.sim.PerfCollector().RecordFrame()
}

func (w *Window) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		w.sim.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyN) {
		w.sim.RequestStep()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		w.sim.Reset()
		w.controls.SetParams(w.sim.Params())
	}
	if rl.IsKeyPressed(rl.KeyG) {
		w.showDensity = !w.showDensity
	}
	if rl.IsKeyPressed(rl.KeyH) {
		w.showPanels = !w.showPanels
	}
	if rl.IsKeyPressed(rl.KeyC) {
		w.cam.Reset()
	}

	// Wheel zooms about the cursor, right drag pans.
	mouse := rl.GetMousePosition()
	if w.cam.Contains(mouse.X, mouse.Y) {
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			w.cam.ZoomAt(mouse.X, mouse.Y, 1+0.1*wheel)
		}
		if rl.IsMouseButtonDown(rl.MouseButtonRight) {
			d := rl.GetMouseDelta()
			w.cam.Pan(d.X, d.Y)
		}
	}
}

// viewport returns the largest square left of the panel.
func (w *Window) viewport() rl.Rectangle {
	sw := float32(rl.GetScreenWidth() - panelWidth)
	sh := float32(rl.GetScreenHeight())
	side := min(sw, sh)
	return rl.Rectangle{X: (sw - side) / 2, Y: (sh - side) / 2, Width: side, Height: side}
}

// Draw renders the frame.
func (w *Window) Draw() {
	view := w.viewport()
	w.cam.SetViewport(view.X, view.Y, view.Width)
	w.controls.x = float32(rl.GetScreenWidth() - panelWidth)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 24, A: 255})

	rl.BeginScissorMode(int32(view.X), int32(view.Y), int32(view.Width), int32(view.Height))
	if w.showDensity {
		w.density.Update(w.sim.Grid(), w.sim.Params().RestDensity)
		w.density.Draw(w.cam)
	} else {
		w.particles.Draw(w.sim.Particles(), w.cam)
	}
	rl.EndScissorMode()
	rl.DrawRectangleLinesEx(view, 1, rl.DarkGray)

	rl.DrawRectangle(int32(w.controls.x), 0, panelWidth, int32(rl.GetScreenHeight()), rl.RayWhite)
	w.controls.Draw(w.sim)

	w.hud.Draw(10, 10, ui.HUDData{
		Title:     "MPM Fluid",
		Particles: len(w.sim.Particles()),
		Frame:     w.sim.Frame(),
		FPS:       rl.GetFPS(),
		Paused:    w.sim.Paused(),
		Halted:    w.sim.Halted(),
		Rollbacks: w.sim.Rollbacks(),
	})
	if w.showPanels {
		y := w.stats.Draw(10, 90, w.sim.LastStats(), w.sim.Params().RestDensity)
		w.perf.Draw(10, y+10, w.sim.PerfCollector().Stats())
	}
	w.hud.DrawControls(10, int32(rl.GetScreenHeight()), controlsLegend)
	rl.EndDrawing()
}

// Unload frees GPU resources.
func (w *Window) Unload() {
	w.density.Unload()
}
