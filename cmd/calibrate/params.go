package main

import (
	"github.com/pthm-cable/mpm/config"
	"github.com/pthm-cable/mpm/mpm"
)

// ParamSpec defines a single tunable fluid parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value when the config has none

	field func(*mpm.Params) *float32
}

func (s ParamSpec) clamp(v float64) float64 {
	return min(max(v, s.Min), s.Max)
}

// ParamVector holds the set of all tunable parameters. Vectors passed to
// its methods follow Specs order.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibrated parameters.
// Gravity and rest density describe the scene, so they stay fixed.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{
				Name: "eos_stiffness", Path: "fluid.eos_stiffness", Min: 1.0, Max: 50.0, Default: 10.0,
				field: func(p *mpm.Params) *float32 { return &p.EOSStiffness },
			},
			{
				Name: "eos_power", Path: "fluid.eos_power", Min: 1.0, Max: 7.0, Default: 4.0,
				field: func(p *mpm.Params) *float32 { return &p.EOSPower },
			},
			{
				Name: "dynamic_viscosity", Path: "fluid.dynamic_viscosity", Min: 0.0, Max: 0.5, Default: 0.1,
				field: func(p *mpm.Params) *float32 { return &p.DynamicViscosity },
			},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	return pv.each(nil, func(s ParamSpec, _ float64) float64 { return s.Default })
}

// Normalize maps raw values onto [0,1] per parameter range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.each(raw, func(s ParamSpec, v float64) float64 { return (v - s.Min) / (s.Max - s.Min) })
}

// Denormalize maps [0,1] values back to raw values.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.each(unit, func(s ParamSpec, v float64) float64 { return s.Min + v*(s.Max-s.Min) })
}

// Clamp limits every value to its parameter's bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	return pv.each(v, func(s ParamSpec, x float64) float64 { return s.clamp(x) })
}

// ApplyToConfig writes clamped values into cfg's fluid parameters and
// refreshes its derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	p := cfg.Params()
	for i, s := range pv.Specs {
		*s.field(&p) = float32(s.clamp(values[i]))
	}
	cfg.ApplyParams(p)
}

// ExtractFromConfig reads the current values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	p := cfg.Params()
	return pv.each(nil, func(s ParamSpec, _ float64) float64 { return float64(*s.field(&p)) })
}

// each builds a vector by applying fn to every spec and the matching entry
// of in (zero when in is nil).
func (pv *ParamVector) each(in []float64, fn func(ParamSpec, float64) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		var v float64
		if in != nil {
			v = in[i]
		}
		out[i] = fn(s, v)
	}
	return out
}
