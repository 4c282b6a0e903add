package mpm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
		ok     bool
	}{
		{"defaults", func(p *Params) {}, true},
		{"zero grid", func(p *Params) { p.GridRes = 0 }, false},
		{"tiny grid", func(p *Params) { p.GridRes = 3; p.BoundaryMargin = 0; p.WallMargin = 0 }, false},
		{"zero iterations", func(p *Params) { p.Iterations = 0 }, false},
		{"zero rest density", func(p *Params) { p.RestDensity = 0 }, false},
		{"negative stiffness", func(p *Params) { p.EOSStiffness = -1 }, false},
		{"negative power", func(p *Params) { p.EOSPower = -2 }, false},
		{"negative viscosity", func(p *Params) { p.DynamicViscosity = -0.1 }, false},
		{"nan gravity", func(p *Params) { p.Gravity = float32(math.NaN()) }, false},
		{"zero fixed point", func(p *Params) { p.FixedPointScale = 0 }, false},
		{"margin too wide", func(p *Params) { p.GridRes = 8; p.BoundaryMargin = 4; p.WallMargin = 1 }, false},
		{"negative workers", func(p *Params) { p.Workers = -1 }, false},
		{"soft walls off", func(p *Params) { p.WallMargin = 0 }, true},
		{"small grid", func(p *Params) { p.GridRes = 8; p.BoundaryMargin = 1; p.WallMargin = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)
			}
		})
	}
}

func TestPressureMonotonic(t *testing.T) {
	p := DefaultParams()

	// At or below rest density: no pressure, never attraction.
	for _, d := range []float32{0, -1, 0.5, 2, p.RestDensity} {
		assert.Equal(t, float32(0), p.Pressure(d), "density=%g", d)
	}
	assert.Equal(t, float32(0), p.Pressure(float32(math.NaN())))

	prev := p.Pressure(p.RestDensity)
	for d := p.RestDensity + 0.05; d < 3*p.RestDensity; d += 0.05 {
		pr := p.Pressure(d)
		assert.GreaterOrEqual(t, pr, float32(0))
		assert.Greater(t, pr, prev, "density=%g", d)
		prev = pr
	}
}

func TestPressureMatchesEquationOfState(t *testing.T) {
	p := DefaultParams()
	// k·((ρ/ρ0)^γ − 1) with ρ = 2ρ0, γ = 4, k = 10
	assert.InDelta(t, 150, p.Pressure(2*p.RestDensity), 1e-3)
}
