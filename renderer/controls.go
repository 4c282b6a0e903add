package renderer

import (
	"fmt"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mpm/mpm"
)

// Controls is the raygui side panel. Slider edits are held as pending
// parameters and applied with a reset, since parameters are fixed for the
// lifetime of a run.
type Controls struct {
	x, width float32
	pending  mpm.Params
	dirty    bool
}

// NewControls creates a panel at screen x with the given width.
func NewControls(x, width float32, p mpm.Params) *Controls {
	return &Controls{x: x, width: width, pending: p}
}

// SetParams replaces the pending parameters, discarding unapplied edits.
func (c *Controls) SetParams(p mpm.Params) {
	c.pending = p
	c.dirty = false
}

// Draw renders the panel and applies button presses to sim.
func (c *Controls) Draw(sim Sim) {
	x := c.x + 10
	y := float32(10)
	w := c.width - 20

	rl.DrawText("Fluid", int32(x), int32(y), 20, rl.DarkGray)
	y += 30

	c.pending.Gravity = c.slider(x, &y, w, "Gravity", c.pending.Gravity, -1, 0)
	c.pending.DynamicViscosity = c.slider(x, &y, w, "Viscosity", c.pending.DynamicViscosity, 0, 1)
	c.pending.EOSStiffness = c.slider(x, &y, w, "EOS stiffness", c.pending.EOSStiffness, 0, 50)
	c.pending.RestDensity = c.slider(x, &y, w, "Rest density", c.pending.RestDensity, 1, 8)

	half := (w - 10) / 2
	pauseText := "Pause"
	if sim.Paused() {
		pauseText = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 30}, pauseText) {
		sim.TogglePause()
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: y, Width: half, Height: 30}, "Step") {
		sim.RequestStep()
	}
	y += 40

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 30}, "Reset") {
		sim.Reset()
		c.SetParams(sim.Params())
	}
	applyText := "Apply"
	if c.dirty {
		applyText = "Apply *"
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: y, Width: half, Height: 30}, applyText) {
		if err := sim.ResetWithParams(c.pending); err != nil {
			slog.Error("applying parameters", "error", err)
			c.SetParams(sim.Params())
		} else {
			c.dirty = false
		}
	}
}

// slider draws a labelled slider bar and returns the new value.
func (c *Controls) slider(x float32, y *float32, w float32, label string, value, lo, hi float32) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: w - 60, Height: 20},
		"", "",
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf("%.2f", v), int32(x+w-50), int32(*y+2), 16, rl.DarkGray)
	*y += 32
	if v != value {
		c.dirty = true
	}
	return v
}
