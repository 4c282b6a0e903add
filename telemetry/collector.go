// Package telemetry provides per-window physical statistics, performance
// timing, and CSV output for simulation runs.
package telemetry

import "github.com/pthm-cable/mpm/mpm"

// Collector accumulates events within frame windows and produces WindowStats.
type Collector struct {
	windowFrames int32
	dt           float32
	simTime      float64

	windowStartFrame int32

	// Event counters for current window
	substeps  int
	rollbacks int
	resets    int

	buf sampleBuffers
}

// NewCollector creates a new stats collector.
// windowFrames: frames per stats record
// dt: sub-step length, for converting sub-steps to simulation time
func NewCollector(windowFrames int, dt float32) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{
		windowFrames: int32(windowFrames),
		dt:           dt,
	}
}

// RecordFrame records a successfully stepped frame of n sub-steps.
func (c *Collector) RecordFrame(n int) {
	c.substeps += n
	c.simTime += float64(n) * float64(c.dt)
}

// RecordRollback records a frame discarded after an instability.
func (c *Collector) RecordRollback() {
	c.rollbacks++
}

// RecordReset records a scene reset.
func (c *Collector) RecordReset() {
	c.resets++
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int32) bool {
	return currentFrame-c.windowStartFrame >= c.windowFrames
}

// Flush samples ps and field into a WindowStats and resets counters for the
// next window. field may be nil, in which case density and grid mass are
// left zero.
func (c *Collector) Flush(currentFrame int32, ps []mpm.Particle, field Field) WindowStats {
	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		SimTime:          c.simTime,
		Substeps:         c.substeps,
		Rollbacks:        c.rollbacks,
		Resets:           c.resets,
	}
	c.buf.fill(&stats, ps, field)

	c.windowStartFrame = currentFrame
	c.substeps = 0
	c.rollbacks = 0
	c.resets = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int32 {
	return c.windowFrames
}
