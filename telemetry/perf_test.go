package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/mpm/mpm"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseScatterMass)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseGather)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if _, ok := stats.PhaseAvg[PhaseScatterMass]; !ok {
		t.Error("expected p2g phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseGather]; !ok {
		t.Error("expected g2p phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseClearGrid)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_RepeatedPhasesAccumulate(t *testing.T) {
	pc := NewPerfCollector(1)

	pc.StartTick()
	for i := 0; i < 3; i++ {
		pc.StartPhase(PhaseGridUpdate)
		time.Sleep(2 * time.Millisecond)
		pc.StartPhase(PhaseGather)
	}
	pc.EndTick()

	stats := pc.Stats()
	if got := stats.PhaseAvg[PhaseGridUpdate]; got < 6*time.Millisecond {
		t.Errorf("expected grid_update to accumulate >= 6ms over three sub-steps, got %v", got)
	}
}

func TestPerfCollector_ObserveSolver(t *testing.T) {
	pc := NewPerfCollector(4)
	s, err := mpm.NewSolver(mpm.Params{
		GridRes:         16,
		Iterations:      2,
		RestDensity:     4,
		EOSStiffness:    10,
		EOSPower:        4,
		ForceScale:      4,
		FixedPointScale: 1e6,
		BoundaryMargin:  2,
		Workers:         1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.ObservePhases(pc.ObserveSolver())

	ps, err := mpm.NewParticles([]mpm.Vec2{{X: 8, Y: 8}}, 1)
	if err != nil {
		t.Fatal(err)
	}

	pc.StartTick()
	if err := s.Frame(ps, 0.1); err != nil {
		t.Fatal(err)
	}
	pc.EndTick()

	stats := pc.Stats()
	for _, ph := range mpm.Phases {
		if _, ok := stats.PhaseAvg[string(ph)]; !ok {
			t.Errorf("expected solver phase %q to be tracked", ph)
		}
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(time.Millisecond)
		pc.StartPhase("slow")
		time.Sleep(20 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		PhasePct: map[string]float64{
			PhaseScatterForce: 40,
			PhaseStream:       5,
		},
	}
	row := s.ToCSV(120)
	if row.WindowEnd != 120 || row.AvgTickUS != 2000 {
		t.Errorf("unexpected header fields: %+v", row)
	}
	if row.ForcePct != 40 || row.StreamPct != 5 || row.GatherPct != 0 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}

func TestPerfStats_SortedPhases(t *testing.T) {
	s := PerfStats{PhaseAvg: map[string]time.Duration{
		PhaseGather:      2 * time.Millisecond,
		PhaseClearGrid:   time.Millisecond,
		PhaseScatterMass: 5 * time.Millisecond,
		PhaseSnapshot:    time.Millisecond,
	}}

	got := s.SortedPhases()
	want := []string{PhaseScatterMass, PhaseGather, PhaseClearGrid, PhaseSnapshot}
	if len(got) != len(want) {
		t.Fatalf("expected %d phases, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
