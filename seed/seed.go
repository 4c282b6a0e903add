// Package seed generates initial particle positions for the fluid solver.
package seed

import (
	"fmt"
	"math"

	"github.com/pthm-cable/mpm/mpm"
)

// DefaultSpacing is the distance between seeded particles, giving four
// particles per grid cell.
const DefaultSpacing = 0.5

// Box appends to dst the positions of a w×h block of particles centered at
// (cx, cy), laid out on a lattice with the given spacing.
func Box(dst []mpm.Vec2, cx, cy, w, h, spacing float32) []mpm.Vec2 {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	for i := -w / 2; i < w/2; i += spacing {
		for j := -h / 2; j < h/2; j += spacing {
			dst = append(dst, mpm.Vec2{X: cx + i, Y: cy + j})
		}
	}
	return dst
}

// Disc appends to dst the lattice positions that fall inside a disc of the
// given radius centered at (cx, cy).
func Disc(dst []mpm.Vec2, cx, cy, radius, spacing float32) []mpm.Vec2 {
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	r2 := radius * radius
	for i := -radius; i <= radius; i += spacing {
		for j := -radius; j <= radius; j += spacing {
			if i*i+j*j <= r2 {
				dst = append(dst, mpm.Vec2{X: cx + i, Y: cy + j})
			}
		}
	}
	return dst
}

// Shape is one emitter of a scene.
type Shape struct {
	Kind    string  `yaml:"kind"` // "box" or "disc"
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Radius  float64 `yaml:"radius"`
	Spacing float64 `yaml:"spacing"`
}

// Scene builds the positions of every shape, rejecting any shape that does
// not lie inside the stencil-safe band [1, gridRes-2] of the grid.
func Scene(shapes []Shape, gridRes int) ([]mpm.Vec2, error) {
	var out []mpm.Vec2
	for i, s := range shapes {
		start := len(out)
		switch s.Kind {
		case "box", "":
			out = Box(out, float32(s.X), float32(s.Y), float32(s.Width), float32(s.Height), float32(s.Spacing))
		case "disc":
			out = Disc(out, float32(s.X), float32(s.Y), float32(s.Radius), float32(s.Spacing))
		default:
			return nil, fmt.Errorf("shape %d: unknown kind %q", i, s.Kind)
		}
		if len(out) == start {
			return nil, fmt.Errorf("shape %d (%s) produced no particles", i, s.Kind)
		}
		lo, hi := float32(1), float32(gridRes-2)
		for _, p := range out[start:] {
			if p.X < lo || p.Y < lo || p.X > hi || p.Y > hi || math.IsNaN(float64(p.X+p.Y)) {
				return nil, fmt.Errorf("shape %d (%s) reaches (%g,%g) outside grid %d", i, s.Kind, p.X, p.Y, gridRes)
			}
		}
	}
	return out, nil
}
