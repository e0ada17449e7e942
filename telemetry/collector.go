// Package telemetry provides window stats, frame timings, bookmarks, CSV output and snapshots.
package telemetry

import (
	"github.com/pthm-cable/powder/points"
	"github.com/pthm-cable/powder/rng"
)

// FrameState is the end-of-window sample the caller hands to Flush.
type FrameState struct {
	Points       int
	Counters     points.Counters
	Temperatures []float64 // One per live point
	FieldTotal   float64
	Rand         rng.Stats
}

// Collector accumulates per-frame work within a window and produces
// WindowStats.
type Collector struct {
	windowFrames int32

	windowStartFrame int32

	processed    int
	resolved     int
	maxConflicts int

	// Cumulative totals at the previous flush, for window deltas
	lastCounters points.Counters
	lastRand     rng.Stats
}

// NewCollector creates a collector that flushes every windowFrames frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{windowFrames: int32(windowFrames)}
}

// RecordFrame adds one frame's pipeline and movement work.
func (c *Collector) RecordFrame(processed, resolved int) {
	c.processed += processed
	c.resolved += resolved
}

// RecordConflicts notes an index audit result.
func (c *Collector) RecordConflicts(n int) {
	if n > c.maxConflicts {
		c.maxConflicts = n
	}
}

// ShouldFlush returns true once a full window has passed.
func (c *Collector) ShouldFlush(frame int32) bool {
	return frame-c.windowStartFrame >= c.windowFrames
}

// Flush produces the stats for the window ending at frame and starts a new
// window. Counters in state are cumulative; the window reports deltas.
func (c *Collector) Flush(frame int32, state FrameState) WindowStats {
	mean, std, p10, p50, p90 := ComputeTemperatureStats(state.Temperatures)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   frame,
		Points:           state.Points,

		Created:     state.Counters.Created - c.lastCounters.Created,
		Deleted:     state.Counters.Deleted - c.lastCounters.Deleted,
		Transformed: state.Counters.Transformed - c.lastCounters.Transformed,
		Moved:       state.Counters.Moved - c.lastCounters.Moved,

		Processed:    c.processed,
		Resolved:     c.resolved,
		MaxConflicts: c.maxConflicts,

		TempMean:   mean,
		TempStd:    std,
		TempP10:    p10,
		TempP50:    p50,
		TempP90:    p90,
		FieldTotal: state.FieldTotal,

		RandBuffered: state.Rand.Buffered - c.lastRand.Buffered,
		RandDirect:   state.Rand.Direct - c.lastRand.Direct,
	}

	c.windowStartFrame = frame
	c.processed = 0
	c.resolved = 0
	c.maxConflicts = 0
	c.lastCounters = state.Counters
	c.lastRand = state.Rand

	return stats
}

// Rebase restarts cumulative tracking, e.g. after the store was replaced by
// a snapshot and its counters started over.
func (c *Collector) Rebase(frame int32, counters points.Counters) {
	c.windowStartFrame = frame
	c.lastCounters = counters
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int32 {
	return c.windowFrames
}
