// Package termview draws the particle field as shaded characters in a
// terminal, for running the simulation over SSH or without a GPU.
package termview

import (
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/mpm/mpm"
)

// ramp maps increasing particle density to characters.
var ramp = []rune(" .:-=+*#%@")

// Action is a user command decoded from a key press.
type Action uint8

const (
	ActionNone Action = iota
	ActionQuit
	ActionPause
	ActionStep
	ActionReset
)

// Sim is the simulation driven by Run. *game.Game implements it.
type Sim interface {
	UpdateHeadless()
	Particles() []mpm.Particle
	TogglePause()
	RequestStep()
	Reset()
	Status() string
}

// View rasterizes particles into terminal cells. The bottom row holds a
// status line.
type View struct {
	screen  tcell.Screen
	gridRes float32

	counts []int32
	speeds []float32
}

// New creates a view for a grid of gridRes cells.
func New(screen tcell.Screen, gridRes int) *View {
	return &View{screen: screen, gridRes: float32(gridRes)}
}

// Draw renders ps and the status line, then shows the screen.
func (v *View) Draw(ps []mpm.Particle, status string) {
	w, h := v.screen.Size()
	rows := h - 1
	v.screen.Clear()
	if w < 1 || rows < 1 {
		v.screen.Show()
		return
	}

	n := w * rows
	if cap(v.counts) < n {
		v.counts = make([]int32, n)
		v.speeds = make([]float32, n)
	}
	v.counts = v.counts[:n]
	v.speeds = v.speeds[:n]
	clear(v.counts)
	clear(v.speeds)

	var maxCount int32
	for i := range ps {
		p := &ps[i]
		cx := cellIndex(p.Pos.X/v.gridRes, w)
		cy := cellIndex(p.Pos.Y/v.gridRes, rows)
		// Grid y points up, terminal rows go down.
		idx := (rows-1-cy)*w + cx
		v.counts[idx]++
		v.speeds[idx] += p.Vel.Len()
		maxCount = max(maxCount, v.counts[idx])
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < w; col++ {
			c := v.counts[row*w+col]
			if c == 0 {
				continue
			}
			level := int(math.Ceil(float64(c) / float64(maxCount) * float64(len(ramp)-1)))
			meanSpeed := v.speeds[row*w+col] / float32(c)
			v.screen.SetContent(col, row, ramp[level], nil, speedStyle(meanSpeed))
		}
	}

	statusStyle := tcell.StyleDefault.Reverse(true)
	for col, r := range []rune(status) {
		if col >= w {
			break
		}
		v.screen.SetContent(col, rows, r, nil, statusStyle)
	}

	v.screen.Show()
}

// cellIndex maps a normalized coordinate to [0, n).
func cellIndex(f float32, n int) int {
	i := int(f * float32(n))
	return min(max(i, 0), n-1)
}

// speedStyle colors slow fluid blue and fast fluid white.
func speedStyle(speed float32) tcell.Style {
	t := min(speed/2, 1)
	r := int32(40 + 215*t)
	g := int32(100 + 155*t)
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(r, g, 255))
}

// KeyAction decodes a key press.
func KeyAction(key tcell.Key, r rune) Action {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyRune:
		switch r {
		case 'q', 'Q':
			return ActionQuit
		case ' ':
			return ActionPause
		case 'n', 'N':
			return ActionStep
		case 'r', 'R':
			return ActionReset
		}
	}
	return ActionNone
}

// Run steps sim and draws it at fps frames per second until the user quits
// or maxFrames frames have been drawn (0 means no limit). The screen must
// already be initialized; Run does not finalize it.
func Run(screen tcell.Screen, sim Sim, gridRes, fps, maxFrames int) {
	if fps < 1 {
		fps = 30
	}
	view := New(screen, gridRes)

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for frame := 0; maxFrames <= 0 || frame < maxFrames; {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch KeyAction(ev.Key(), ev.Rune()) {
				case ActionQuit:
					return
				case ActionPause:
					sim.TogglePause()
				case ActionStep:
					sim.RequestStep()
				case ActionReset:
					sim.Reset()
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case <-ticker.C:
			sim.UpdateHeadless()
			view.Draw(sim.Particles(), sim.Status())
			frame++
		}
	}
}
