package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"github.com/pthm-cable/powder/systems"
)

// framePhases lists the phases reported in logs and perf.csv, in frame order.
var framePhases = systems.NewPhaseRegistry().IDs()

// PerfCollector keeps the last windowSize frame timings in a ring. Phase
// times are stored per slot in a flat window×phases matrix; the frame phases
// are preassigned slots and any other phase name gets one on first use.
type PerfCollector struct {
	windowSize int
	frames     []time.Duration
	phaseTimes []time.Duration // windowSize rows of len(phases)
	head       int             // next ring row to write
	filled     int

	phases []string
	slot   map[string]int

	current    []time.Duration // running frame, per slot
	frameStart time.Time
	phaseStart time.Time
	running    int // slot of the running phase, -1 for none
}

// NewPerfCollector creates a collector averaging over windowSize frames.
// A non-positive size falls back to 60.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	p := &PerfCollector{
		windowSize: windowSize,
		frames:     make([]time.Duration, windowSize),
		slot:       make(map[string]int, len(framePhases)),
		running:    -1,
	}
	for _, phase := range framePhases {
		p.slotFor(phase)
	}
	return p
}

// slotFor returns the slot of phase, widening every row for a new name.
func (p *PerfCollector) slotFor(phase string) int {
	if i, ok := p.slot[phase]; ok {
		return i
	}
	i := len(p.phases)
	p.phases = append(p.phases, phase)
	p.slot[phase] = i

	n := len(p.phases)
	widened := make([]time.Duration, p.windowSize*n)
	for row := 0; row < p.windowSize && i > 0; row++ {
		copy(widened[row*n:row*n+i], p.phaseTimes[row*i:(row+1)*i])
	}
	p.phaseTimes = widened
	p.current = append(p.current, 0)
	return i
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	clear(p.current)
	p.running = -1
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.stopPhase(now)
	p.running = p.slotFor(phase)
	p.phaseStart = now
}

func (p *PerfCollector) stopPhase(now time.Time) {
	if p.running >= 0 {
		p.current[p.running] += now.Sub(p.phaseStart)
		p.running = -1
	}
}

// EndFrame closes the running phase and records the frame in the ring.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	p.stopPhase(now)

	n := len(p.phases)
	p.frames[p.head] = now.Sub(p.frameStart)
	copy(p.phaseTimes[p.head*n:(p.head+1)*n], p.current)
	p.head = (p.head + 1) % p.windowSize
	p.filled = min(p.filled+1, p.windowSize)
}

// PerfStats holds aggregated frame timings.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Average duration and share of frame time for each phase that ran
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	FramesPerSecond float64
}

// Stats aggregates the frames currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.filled == 0 {
		return stats
	}

	frames := p.frames[:p.filled]
	var total time.Duration
	for _, d := range frames {
		total += d
	}
	count := time.Duration(p.filled)
	stats.AvgFrameDuration = total / count
	stats.MinFrameDuration = slices.Min(frames)
	stats.MaxFrameDuration = slices.Max(frames)
	if stats.AvgFrameDuration > 0 {
		stats.FramesPerSecond = float64(time.Second) / float64(stats.AvgFrameDuration)
	}

	n := len(p.phases)
	for i, phase := range p.phases {
		var sum time.Duration
		for row := 0; row < p.filled; row++ {
			sum += p.phaseTimes[row*n+i]
		}
		if sum == 0 {
			continue
		}
		avg := sum / count
		stats.PhaseAvg[phase] = avg
		if stats.AvgFrameDuration > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgFrameDuration) * 100
		}
	}
	return stats
}

// LogStats logs the timings, skipping phases under 0.1% of the frame.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrameDuration.Microseconds(),
		"max_frame_us", s.MaxFrameDuration.Microseconds(),
		"fps", int(s.FramesPerSecond),
	}
	for _, phase := range framePhases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("fps", s.FramesPerSecond),
	}
	for _, phase := range framePhases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is the flat perf.csv row.
type PerfStatsCSV struct {
	WindowEnd      int32   `csv:"window_end"`
	AvgFrameUS     int64   `csv:"avg_frame_us"`
	MinFrameUS     int64   `csv:"min_frame_us"`
	MaxFrameUS     int64   `csv:"max_frame_us"`
	FramesPerSec   float64 `csv:"frames_per_sec"`
	PipelinePct    float64 `csv:"pipeline_pct"`
	CompactPct     float64 `csv:"compact_pct"`
	MovementPct    float64 `csv:"movement_pct"`
	TemperaturePct float64 `csv:"temperature_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgFrameUS:     s.AvgFrameDuration.Microseconds(),
		MinFrameUS:     s.MinFrameDuration.Microseconds(),
		MaxFrameUS:     s.MaxFrameDuration.Microseconds(),
		FramesPerSec:   s.FramesPerSecond,
		PipelinePct:    s.PhasePct[systems.PhasePipeline],
		CompactPct:     s.PhasePct[systems.PhaseCompact],
		MovementPct:    s.PhasePct[systems.PhaseMovement],
		TemperaturePct: s.PhasePct[systems.PhaseTemperature],
		TelemetryPct:   s.PhasePct[systems.PhaseTelemetry],
	}
}
