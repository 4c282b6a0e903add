package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mpm/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Particles int
	Frame     int32
	FPS       int32
	Paused    bool
	Halted    bool
	Rollbacks int
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD at (x, y).
func (h *HUD) Draw(x, y int32, data HUDData) {
	rl.DrawText(data.Title, x, y, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Frame: %d | FPS: %d", data.Particles, data.Frame, data.FPS),
		x, y+25, 16, rl.LightGray,
	)

	statusText, statusColor := "Running", rl.Green
	switch {
	case data.Halted:
		statusText, statusColor = fmt.Sprintf("UNSTABLE (rollbacks: %d), press R", data.Rollbacks), rl.Red
	case data.Paused:
		statusText, statusColor = "PAUSED", rl.Yellow
	}
	rl.DrawText(statusText, x, y+45, 16, statusColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(x, screenHeight int32, controls string) {
	rl.DrawText(controls, x, screenHeight-25, 14, rl.Gray)
}

// StatsPanel renders the most recent telemetry window.
type StatsPanel struct {
	renderer *Renderer
	width    int32
}

// NewStatsPanel creates a stats panel of the given width.
func NewStatsPanel(width int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), width: width}
}

// Draw renders stats at (x, y) and returns the Y below the panel.
// Density bars are scaled so twice the rest density is full.
func (p *StatsPanel) Draw(x, y int32, stats telemetry.WindowStats, restDensity float32) int32 {
	r := p.renderer
	pad := r.Theme.Padding
	height := 4*(r.Theme.LineHeight+2) + 5*r.Theme.LineHeight + 2*pad
	r.DrawPanel(x, y, p.width, height)

	cy := r.DrawSectionHeader(x+pad, y+pad, fmt.Sprintf("Window @ frame %d", stats.WindowEndFrame))
	inner := p.width - 2*pad
	cy = r.DrawLabelValue(x+pad, cy, "Sim time", fmt.Sprintf("%.1f", stats.SimTime))
	cy = r.DrawLabelValue(x+pad, cy, "Mass error", fmt.Sprintf("%.2e", stats.MassError))
	cy = r.DrawLabelValue(x+pad, cy, "Kinetic", fmt.Sprintf("%.3f", stats.KineticEnergy))
	cy = r.DrawLabelValue(x+pad, cy, "Speed max", fmt.Sprintf("%.3f", stats.SpeedMax))
	cy = r.DrawLabelValue(x+pad, cy, "Vorticity", fmt.Sprintf("%.3f", stats.VorticityMaxAbs))
	limit := 2 * restDensity
	cy = r.DrawLoadBar(x+pad, cy, "Density mean", float32(stats.DensityMean), limit, inner)
	cy = r.DrawLoadBar(x+pad, cy, "Density p90", float32(stats.DensityP90), limit, inner)
	cy = r.DrawLoadBar(x+pad, cy, "Density max", float32(stats.DensityMax), limit, inner)
	return y + height
}

// PerfPanel renders the solver phase timings.
type PerfPanel struct {
	renderer *Renderer
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), width: width}
}

// Draw renders the performance panel at (x, y).
func (p *PerfPanel) Draw(x, y int32, stats telemetry.PerfStats) {
	r := p.renderer
	pad := r.Theme.Padding
	phases := stats.SortedPhases()
	height := int32(len(phases)+2)*14 + 2*pad + 6
	r.DrawPanel(x, y, p.width, height)

	cy := y + pad
	rl.DrawText("Frame Performance", x+pad, cy, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	cy += 20

	rl.DrawText(fmt.Sprintf("Frame: %s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond),
		x+pad, cy, r.Theme.FontSize, rl.White)
	cy += 14

	for _, name := range phases {
		pct := stats.PhasePct[name]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-14s %8s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x+pad, cy, r.Theme.FontSize, color,
		)
		cy += 14
	}
}
