package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkChurnSpike      BookmarkType = "churn_spike"
	BookmarkHeatSpike       BookmarkType = "heat_spike"
	BookmarkSettled         BookmarkType = "settled"
	BookmarkIndexConflict   BookmarkType = "index_conflict"
)

// Detection thresholds.
const (
	crashDrop      = 0.30  // Fraction of the recent peak lost
	crashMinPoints = 10    // Absolute loss needed as well
	churnFactor    = 2.0   // Multiple of the rolling average
	churnMin       = 50    // Created+deleted points needed as well
	heatDelta      = 100.0 // Degrees above the rolling mean
	settleWindows  = 3     // Consecutive windows without movement
)

// Bookmark marks an interesting window, such as a chain reaction or the
// sandbox coming to rest.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Frame       int32        `csv:"frame"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector compares each window against a rolling history.
type BookmarkDetector struct {
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentPeak    int // Peak point count since the last crash
	stillWindows  int // Consecutive windows with no movement
	conflictShown bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	checks := []func(WindowStats) *Bookmark{
		bd.checkPopulationCrash,
		bd.checkChurnSpike,
		bd.checkHeatSpike,
		bd.checkSettled,
		bd.checkConflicts,
	}
	for _, check := range checks {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	if stats.Points > bd.recentPeak {
		bd.recentPeak = stats.Points
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// rollingMean averages f over the history.
func (bd *BookmarkDetector) rollingMean(f func(WindowStats) float64) (float64, bool) {
	history := bd.getHistory()
	if len(history) < 2 {
		return 0, false
	}
	values := make([]float64, len(history))
	for i, h := range history {
		values[i] = f(h)
	}
	return stat.Mean(values, nil), true
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}
	drop := 1 - float64(stats.Points)/float64(bd.recentPeak)
	if drop <= crashDrop || stats.Points > bd.recentPeak-crashMinPoints {
		return nil
	}
	oldPeak := bd.recentPeak
	bd.recentPeak = stats.Points
	return &Bookmark{
		Type:        BookmarkPopulationCrash,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("Points fell %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Points),
	}
}

func churn(s WindowStats) float64 {
	return float64(s.Created + s.Deleted + s.Transformed)
}

func (bd *BookmarkDetector) checkChurnSpike(stats WindowStats) *Bookmark {
	avg, ok := bd.rollingMean(churn)
	if !ok {
		return nil
	}
	current := churn(stats)
	if current < churnMin || current <= avg*churnFactor {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkChurnSpike,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("%.0f points created, deleted or transformed against an average of %.0f", current, avg),
	}
}

func (bd *BookmarkDetector) checkHeatSpike(stats WindowStats) *Bookmark {
	if stats.Points == 0 {
		return nil
	}
	avg, ok := bd.rollingMean(func(s WindowStats) float64 { return s.TempMean })
	if !ok || stats.TempMean-avg <= heatDelta {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkHeatSpike,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("Mean point temperature %.1f against an average of %.1f", stats.TempMean, avg),
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.Points == 0 || stats.Moved > 0 {
		bd.stillWindows = 0
		return nil
	}
	bd.stillWindows++
	// Trigger once per settling
	if bd.stillWindows != settleWindows {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSettled,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("%d points at rest for %d windows", stats.Points, settleWindows),
	}
}

func (bd *BookmarkDetector) checkConflicts(stats WindowStats) *Bookmark {
	if stats.MaxConflicts == 0 {
		bd.conflictShown = false
		return nil
	}
	if bd.conflictShown {
		return nil
	}
	bd.conflictShown = true
	return &Bookmark{
		Type:        BookmarkIndexConflict,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("Index audit found %d conflicts", stats.MaxConflicts),
	}
}
