package game

import (
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/telemetry"
)

// autosaveName is the rolling autosave file inside the persistence dir.
const autosaveName = "autosave.json"

// flushTelemetry closes the stats window when it is due, writes output and
// checks for bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.frame) {
		return
	}

	stats := s.collector.Flush(s.frame, s.sampleFrameState())
	perfStats := s.perfCollector.Stats()

	if s.opts.StatsCallback != nil {
		s.opts.StatsCallback(stats)
	}
	if s.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
		s.logWorldState()
	}

	if s.outputManager != nil {
		if err := s.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.outputManager.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		rows := telemetry.PopulationRows(stats.WindowEndFrame, s.store.CountsByKind())
		if err := s.outputManager.WritePopulation(rows); err != nil {
			slog.Error("failed to write population", "error", err)
		}
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.opts.LogStats {
			bm.LogBookmark()
		}
		if err := s.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if dir := s.cfg.Persistence.Dir; dir != "" {
			s.saveSnapshot(dir)
		}
	}
}

// sampleFrameState gathers the end-of-window sample for the collector.
func (s *Simulation) sampleFrameState() telemetry.FrameState {
	s.temps = s.temps[:0]
	base := s.env.Toggles.BaseTemperature
	for _, e := range s.store.Active() {
		if s.store.Alive(e) {
			s.temps = append(s.temps, s.store.Data(e).TemperatureOr(base))
		}
	}
	return telemetry.FrameState{
		Points:       s.store.Len(),
		Counters:     s.store.Counters(),
		Temperatures: s.temps,
		FieldTotal:   s.field.Total(),
		Rand:         s.rand.Stats(),
	}
}

// logWorldState logs the population per kind.
func (s *Simulation) logWorldState() {
	counts := s.store.CountsByKind()
	attrs := make([]any, 0, len(counts))
	for _, kind := range materials.All() {
		if n := counts[kind]; n > 0 {
			attrs = append(attrs, slog.Int(kind.String(), n))
		}
	}
	slog.Info("world",
		"frame", s.frame,
		"points", s.store.Len(),
		slog.Group("kinds", attrs...),
	)
}

// autosave rewrites the rolling autosave every persistence.autosave_frames.
func (s *Simulation) autosave() {
	every := int32(s.cfg.Persistence.AutosaveFrames)
	dir := s.cfg.Persistence.Dir
	if every <= 0 || dir == "" || s.frame%every != 0 {
		return
	}
	path := filepath.Join(dir, autosaveName)
	if err := telemetry.WriteSnapshot(s.Snapshot(), path); err != nil {
		slog.Error("autosave failed", "error", err)
		return
	}
	slog.Debug("autosaved", "path", path, "frame", s.frame)
}

// saveSnapshot writes a frame-numbered snapshot into dir.
func (s *Simulation) saveSnapshot(dir string) {
	path, err := telemetry.SaveSnapshot(s.Snapshot(), dir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "frame", s.frame)
}

// Snapshot captures the complete simulation state.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	records := s.store.Records()
	snapshot := &telemetry.Snapshot{
		Version:         telemetry.SnapshotVersion,
		Seed:            s.seed,
		Frame:           s.frame,
		Width:           s.store.Width(),
		Height:          s.store.Height(),
		BaseTemperature: s.env.Toggles.BaseTemperature,
		Processing:      s.env.Toggles.Processing,
		Points:          make([]telemetry.PointState, len(records)),
		Field:           append([]float64(nil), s.field.Cells()...),
	}
	for i, r := range records {
		snapshot.Points[i] = telemetry.NewPointState(r)
	}
	return snapshot
}

// LoadSnapshot restores the state saved at path. A missing or malformed
// snapshot is logged and leaves an empty grid of the current size, so the
// frame loop can continue. It reports whether the snapshot was restored.
// Call it between frames.
func (s *Simulation) LoadSnapshot(path string) bool {
	snapshot, err := telemetry.LoadSnapshot(path)
	if err != nil {
		slog.Warn("snapshot unusable, starting empty", "path", path, "error", err)
		s.reset()
		return false
	}
	s.Restore(snapshot)
	slog.Info("snapshot loaded", "path", path, "frame", s.frame, "points", s.store.Len())
	return true
}

// Restore replaces the simulation state with snapshot, which must be valid.
func (s *Simulation) Restore(snapshot *telemetry.Snapshot) {
	s.input.drain()
	if skipped := s.store.Load(snapshot.Width, snapshot.Height, snapshot.Records()); skipped > 0 {
		slog.Warn("snapshot points skipped", "skipped", skipped)
	}

	s.env.Toggles.BaseTemperature = snapshot.BaseTemperature
	s.env.Toggles.Processing = snapshot.Processing
	s.field.Ambient = snapshot.BaseTemperature
	if err := s.field.Reset(snapshot.Width, snapshot.Height); err != nil {
		// Validated snapshots have positive dimensions
		slog.Error("resetting temperature field", "error", err)
	}
	copy(s.field.Cells(), snapshot.Field)

	s.frame = snapshot.Frame
	s.env.Frame = s.frame
	s.collector.Rebase(s.frame, s.store.Counters())
}

// reset clears every point and the temperature field, keeping the size.
func (s *Simulation) reset() {
	s.store.Clear()
	s.field.Ambient = s.env.Toggles.BaseTemperature
	if err := s.field.Reset(s.store.Width(), s.store.Height()); err != nil {
		slog.Error("resetting temperature field", "error", err)
	}
	s.collector.Rebase(s.frame, s.store.Counters())
}
