package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/mpm/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}

	// All methods are nil-safe
	if err := om.WriteFrames(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Error(err)
	}
	if err := om.WriteConfig(nil); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("expected empty dir")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	for i := int32(1); i <= 3; i++ {
		if err := om.WriteFrames(WindowStats{WindowEndFrame: i * 60, Particles: 100}); err != nil {
			t.Fatalf("writing frames: %v", err)
		}
		perf := PerfStats{AvgTickDuration: time.Millisecond, PhasePct: map[string]float64{PhaseGather: 30}}
		if err := om.WritePerf(perf, i*60); err != nil {
			t.Fatalf("writing perf: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	frames := readLines(t, filepath.Join(dir, "frames.csv"))
	if len(frames) != 4 {
		t.Fatalf("expected header + 3 rows in frames.csv, got %d lines", len(frames))
	}
	if !strings.HasPrefix(frames[0], "window_end,sim_time,particles") {
		t.Errorf("unexpected frames header: %s", frames[0])
	}
	if !strings.HasPrefix(frames[3], "180,") {
		t.Errorf("unexpected last frames row: %s", frames[3])
	}

	perf := readLines(t, filepath.Join(dir, "perf.csv"))
	if len(perf) != 4 {
		t.Fatalf("expected header + 3 rows in perf.csv, got %d lines", len(perf))
	}
	if !strings.Contains(perf[0], "g2p_pct") {
		t.Errorf("perf header missing g2p_pct: %s", perf[0])
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot does not load: %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
