package game

import "github.com/pthm-cable/powder/telemetry"

// Options configures a simulation beyond the shared config.
type Options struct {
	Seed         int64  // 0 = config seed, then time-based
	OutputDir    string // CSV logs and config snapshot; empty disables
	SnapshotPath string // Snapshot to restore at start; empty starts fresh
	LogStats     bool   // Log window stats, perf and bookmarks via slog

	// Audit checks the point index after every frame and records the
	// conflict count in the window stats.
	Audit bool

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)

	// OnFrame runs on the frame goroutine after every frame of Run. It is
	// the place for read-only views such as a renderer.
	OnFrame func(*Simulation)
}
