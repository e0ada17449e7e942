package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/powder/systems"
)

// Step runs one frame: queued input, the processor pipeline in store order,
// compaction, the movement pass, the temperature exchange and telemetry.
func (s *Simulation) Step() error {
	s.perfCollector.StartFrame()
	s.env.Frame = s.frame
	s.applyInput()

	s.perfCollector.StartPhase(systems.PhasePipeline)
	s.pipeline.Run(s.env)

	s.perfCollector.StartPhase(systems.PhaseCompact)
	s.store.Compact()

	s.perfCollector.StartPhase(systems.PhaseMovement)
	s.resolver.Run(s.env)

	s.perfCollector.StartPhase(systems.PhaseTemperature)
	if err := s.updateTemperature(); err != nil {
		return fmt.Errorf("frame %d: %w", s.frame, err)
	}

	s.perfCollector.StartPhase(systems.PhaseTelemetry)
	s.frame++
	s.collector.RecordFrame(s.pipeline.Processed(), s.resolver.Moved())
	if s.opts.Audit {
		if c := s.store.Conflicts(); c > 0 {
			slog.Warn("index conflicts", "frame", s.frame, "conflicts", c)
			s.collector.RecordConflicts(c)
		}
	}
	s.flushTelemetry()
	s.autosave()

	s.perfCollector.EndFrame()
	return nil
}

// updateTemperature exchanges heat between points and the field.
func (s *Simulation) updateTemperature() error {
	s.field.UpdateFromParticles(s.store, s.table, s.env.Toggles.BaseTemperature)
	if err := s.field.Step(); err != nil {
		return fmt.Errorf("temperature step: %w", err)
	}
	s.field.WriteBack(s.store)
	return nil
}
