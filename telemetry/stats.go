package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/powder/materials"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartFrame int32 `csv:"-"`
	WindowEndFrame   int32 `csv:"window_end"`

	// Population at window end
	Points int `csv:"points"`

	// Store mutations during the window
	Created     uint64 `csv:"created"`
	Deleted     uint64 `csv:"deleted"`
	Transformed uint64 `csv:"transformed"`
	Moved       uint64 `csv:"moved"`

	// Frame work during the window
	Processed    int `csv:"processed"`
	Resolved     int `csv:"resolved"`
	MaxConflicts int `csv:"max_conflicts"`

	// Point temperatures sampled at window end
	TempMean float64 `csv:"temp_mean"`
	TempStd  float64 `csv:"temp_std"`
	TempP10  float64 `csv:"temp_p10"`
	TempP50  float64 `csv:"temp_p50"`
	TempP90  float64 `csv:"temp_p90"`

	// Sum over every temperature cell, air included
	FieldTotal float64 `csv:"field_total"`

	// Random draws served during the window
	RandBuffered uint64 `csv:"rand_buffered"`
	RandDirect   uint64 `csv:"rand_direct"`
}

// PopulationRow is one population.csv line: the count of one kind at the
// end of a window.
type PopulationRow struct {
	WindowEnd int32  `csv:"window_end"`
	Kind      string `csv:"kind"`
	Count     int    `csv:"count"`
}

// Percentile calculates the p-th percentile of a sorted slice by linear
// interpolation. p should be in [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeTemperatureStats returns the mean, population standard deviation
// and percentiles of values. The input is not modified.
func ComputeTemperatureStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// PopulationRows flattens per-kind counts into population.csv rows, one per
// kind in kind order. Kinds with no points are written as zero so every
// window has the same rows.
func PopulationRows(windowEnd int32, counts map[materials.Kind]int) []PopulationRow {
	kinds := materials.All()
	rows := make([]PopulationRow, 0, len(kinds))
	for _, k := range kinds {
		if k == materials.Border {
			continue
		}
		rows = append(rows, PopulationRow{
			WindowEnd: windowEnd,
			Kind:      k.String(),
			Count:     counts[k],
		})
	}
	return rows
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartFrame)),
		slog.Int("window_end", int(s.WindowEndFrame)),
		slog.Int("points", s.Points),
		slog.Uint64("created", s.Created),
		slog.Uint64("deleted", s.Deleted),
		slog.Uint64("transformed", s.Transformed),
		slog.Uint64("moved", s.Moved),
		slog.Int("processed", s.Processed),
		slog.Int("resolved", s.Resolved),
		slog.Int("max_conflicts", s.MaxConflicts),
		slog.Float64("temp_mean", s.TempMean),
		slog.Float64("temp_std", s.TempStd),
		slog.Float64("temp_p10", s.TempP10),
		slog.Float64("temp_p50", s.TempP50),
		slog.Float64("temp_p90", s.TempP90),
		slog.Float64("field_total", s.FieldTotal),
		slog.Uint64("rand_buffered", s.RandBuffered),
		slog.Uint64("rand_direct", s.RandDirect),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
	if s.MaxConflicts > 0 {
		slog.Warn("index conflicts", "window_end", s.WindowEndFrame, "max_conflicts", s.MaxConflicts)
	}
}
