package termview

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/mpm/mpm"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func TestDrawPlacesParticles(t *testing.T) {
	screen := newScreen(t, 20, 11)
	view := New(screen, 100)

	ps := []mpm.Particle{
		{Pos: mpm.Vec2{X: 5, Y: 5}, Mass: 1},
		{Pos: mpm.Vec2{X: 6, Y: 6}, Mass: 1},
		{Pos: mpm.Vec2{X: 95, Y: 95}, Mass: 1},
	}
	view.Draw(ps, "frame 1")

	// Bottom-left bin holds two particles, the densest cell.
	if got := runeAt(screen, 1, 9); got != ramp[len(ramp)-1] {
		t.Errorf("dense bin = %q, want %q", got, ramp[len(ramp)-1])
	}
	// Top-right bin holds one particle.
	if got := runeAt(screen, 19, 0); got == ' ' || got == 0 {
		t.Errorf("expected a shaded cell at top right, got %q", got)
	}
	// Empty bin stays blank.
	if got := runeAt(screen, 10, 5); got != ' ' {
		t.Errorf("expected blank cell, got %q", got)
	}

	status := []rune("frame 1")
	for i, want := range status {
		if got := runeAt(screen, i, 10); got != want {
			t.Errorf("status[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestDrawTinyScreen(t *testing.T) {
	screen := newScreen(t, 1, 1)
	view := New(screen, 64)
	// No room for particles; only the status row exists.
	view.Draw([]mpm.Particle{{Pos: mpm.Vec2{X: 32, Y: 32}, Mass: 1}}, "x")
}

func TestKeyAction(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		r    rune
		want Action
	}{
		{tcell.KeyEscape, 0, ActionQuit},
		{tcell.KeyCtrlC, 0, ActionQuit},
		{tcell.KeyRune, 'q', ActionQuit},
		{tcell.KeyRune, ' ', ActionPause},
		{tcell.KeyRune, 'n', ActionStep},
		{tcell.KeyRune, 'R', ActionReset},
		{tcell.KeyRune, 'x', ActionNone},
		{tcell.KeyEnter, 0, ActionNone},
	}
	for _, tt := range tests {
		if got := KeyAction(tt.key, tt.r); got != tt.want {
			t.Errorf("KeyAction(%v, %q) = %v, want %v", tt.key, tt.r, got, tt.want)
		}
	}
}

type fakeSim struct {
	updates int
	ps      []mpm.Particle
}

func (f *fakeSim) UpdateHeadless()           { f.updates++ }
func (f *fakeSim) Particles() []mpm.Particle { return f.ps }
func (f *fakeSim) TogglePause()              {}
func (f *fakeSim) RequestStep()              {}
func (f *fakeSim) Reset()                    {}
func (f *fakeSim) Status() string            { return "ok" }

func TestRunStopsAfterMaxFrames(t *testing.T) {
	screen := newScreen(t, 10, 5)
	sim := &fakeSim{ps: []mpm.Particle{{Pos: mpm.Vec2{X: 8, Y: 8}, Mass: 1}}}

	Run(screen, sim, 16, 200, 3)

	if sim.updates != 3 {
		t.Errorf("expected 3 updates, got %d", sim.updates)
	}
	if got := runeAt(screen, 0, 4); got != 'o' {
		t.Errorf("expected status line drawn, got %q", got)
	}
}
