package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/mpm/mpm"
)

// fakeField reports a density proportional to height and a fixed grid mass.
type fakeField struct{ gridMass float64 }

func (f fakeField) DensityAt(pos mpm.Vec2) float32 { return pos.Y }
func (f fakeField) GridMass() float64             { return f.gridMass }

func TestDistribute(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Distribution
	}{
		{"empty", []float64{}, Distribution{}},
		{"single", []float64{5}, Distribution{Mean: 5, P50: 5, P90: 5, Max: 5}},
		{"one to ten", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
			Distribution{Mean: 5.5, Std: math.Sqrt(55.0 / 6.0), P50: 5, P90: 9, Max: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distribute(tt.values)
			check := func(field string, got, want float64) {
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("%s = %v, want %v", field, got, want)
				}
			}
			check("mean", got.Mean, tt.want.Mean)
			check("std", got.Std, tt.want.Std)
			check("p50", got.P50, tt.want.P50)
			check("p90", got.P90, tt.want.P90)
			check("max", got.Max, tt.want.Max)
		})
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(2, 0.5)

	ps := []mpm.Particle{
		{Pos: mpm.Vec2{X: 10, Y: 20}, Vel: mpm.Vec2{X: 3, Y: 4}, Mass: 1},
		{Pos: mpm.Vec2{X: 20, Y: 40}, Vel: mpm.Vec2{X: 0, Y: 0}, Mass: 3},
	}

	c.RecordFrame(10)
	if c.ShouldFlush(1) {
		t.Error("window of 2 frames should not flush after 1")
	}
	c.RecordFrame(10)
	c.RecordRollback()
	if !c.ShouldFlush(2) {
		t.Fatal("window of 2 frames should flush after 2")
	}

	ws := c.Flush(2, ps, fakeField{gridMass: 3.9})

	if ws.WindowStartFrame != 0 || ws.WindowEndFrame != 2 {
		t.Errorf("window = [%d, %d], want [0, 2]", ws.WindowStartFrame, ws.WindowEndFrame)
	}
	if ws.SimTime != 10 {
		t.Errorf("sim time = %v, want 10", ws.SimTime)
	}
	if ws.Substeps != 20 || ws.Rollbacks != 1 || ws.Particles != 2 {
		t.Errorf("unexpected counters: %+v", ws)
	}
	if ws.ParticleMass != 4 {
		t.Errorf("particle mass = %v, want 4", ws.ParticleMass)
	}
	if math.Abs(ws.MassError-0.025) > 1e-9 {
		t.Errorf("mass error = %v, want 0.025", ws.MassError)
	}
	// Mass-weighted center: (10*1 + 20*3)/4, (20*1 + 40*3)/4
	if ws.ComX != 17.5 || ws.ComY != 35 {
		t.Errorf("com = (%v, %v), want (17.5, 35)", ws.ComX, ws.ComY)
	}
	if ws.KineticEnergy != 12.5 || ws.MomentumX != 3 || ws.MomentumY != 4 {
		t.Errorf("ke/momentum = %v (%v, %v), want 12.5 (3, 4)", ws.KineticEnergy, ws.MomentumX, ws.MomentumY)
	}
	if ws.SpeedMax != 5 || ws.SpeedMean != 2.5 {
		t.Errorf("speed max/mean = %v/%v, want 5/2.5", ws.SpeedMax, ws.SpeedMean)
	}
	if ws.DensityMax != 40 || ws.DensityMean != 30 {
		t.Errorf("density max/mean = %v/%v, want 40/30", ws.DensityMax, ws.DensityMean)
	}

	// Counters reset for the next window
	next := c.Flush(4, ps, nil)
	if next.WindowStartFrame != 2 || next.Substeps != 0 || next.Rollbacks != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.GridMass != 0 || next.DensityMax != 0 {
		t.Errorf("nil field should leave grid stats zero: %+v", next)
	}
}

func TestCollectorFlushEmpty(t *testing.T) {
	c := NewCollector(1, 1)
	ws := c.Flush(1, nil, fakeField{gridMass: 1})
	if ws.Particles != 0 || ws.ParticleMass != 0 || ws.SpeedMax != 0 {
		t.Errorf("expected zero stats for no particles, got %+v", ws)
	}
}
