package game

import "github.com/pthm-cable/mpm/telemetry"

// Options configures game initialization.
type Options struct {
	LogStats   bool   // emit window stats and perf via slog
	PerfTable  bool   // print a phase timing table every stats window
	OutputDir  string // directory for CSV logs and config snapshot, empty disables
	StreamAddr string // websocket listen address, empty disables

	// StatsCallback, if set, receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}
