package main

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/game"
	"github.com/pthm-cable/powder/telemetry"
)

// FitnessEvaluator runs headless simulations of one scene and scores how
// quickly the grid comes to rest.
type FitnessEvaluator struct {
	params     *ParamVector
	maxFrames  int32
	seeds      []int64
	baseConfig *config.Config

	// A window counts as settled once moves per point per frame drop to
	// settleRate or below.
	settleRate float64

	mu          sync.Mutex
	lastSettled float64 // fraction of seeds that settled in the latest evaluation
}

// NewFitnessEvaluator creates an evaluator. baseCfg must name a scene.
func NewFitnessEvaluator(params *ParamVector, maxFrames int32, seeds []int64, baseCfg *config.Config, settleRate float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxFrames:  maxFrames,
		seeds:      seeds,
		baseConfig: baseCfg,
		settleRate: settleRate,
	}
}

// LastSettled returns the fraction of seeds that settled in the most recent
// evaluation.
func (fe *FitnessEvaluator) LastSettled() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSettled
}

// runResult holds the outcome of one simulation run.
type runResult struct {
	settleFrame int32 // frame of the first settled window, maxFrames if none
	settled     bool
	residual    float64 // moves per point per frame in the last window
	conflicts   int     // worst index audit over the run
}

// Evaluate computes fitness for a parameter vector (lower = better). Seeds
// run in parallel; a run that fails to start scores as never settling.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			r, err := fe.runSimulation(x, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("evaluation failed: %v\n", err)
		return fe.worst()
	}

	fitness := make([]float64, len(results))
	settled := 0
	for i, r := range results {
		fitness[i] = fe.computeFitness(r)
		if r.settled {
			settled++
		}
	}

	fe.mu.Lock()
	fe.lastSettled = float64(settled) / float64(len(results))
	fe.mu.Unlock()

	return stat.Mean(fitness, nil)
}

// runSimulation runs one seed until the grid settles or maxFrames passes.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (runResult, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	// Direct draws only, so a seed always replays the same run
	cfg.Random.PoolSize = 0

	var windows []telemetry.WindowStats
	sim, err := game.NewSimulation(cfg, game.Options{
		Seed:  seed,
		Audit: true,
		StatsCallback: func(ws telemetry.WindowStats) {
			windows = append(windows, ws)
		},
	})
	if err != nil {
		return runResult{}, err
	}
	defer sim.Close()

	result := runResult{settleFrame: fe.maxFrames}
	seen := 0
	for sim.Frame() < fe.maxFrames {
		if err := sim.Step(); err != nil {
			return runResult{}, err
		}
		if len(windows) == seen {
			continue
		}
		seen = len(windows)

		w := windows[seen-1]
		result.conflicts = max(result.conflicts, w.MaxConflicts)
		result.residual = moveRate(w)
		if result.residual <= fe.settleRate {
			result.settled = true
			result.settleFrame = w.WindowEndFrame
			break
		}
	}
	return result, nil
}

// moveRate returns moves per point per frame over a window.
func moveRate(w telemetry.WindowStats) float64 {
	frames := w.WindowEndFrame - w.WindowStartFrame
	if w.Points == 0 || frames <= 0 {
		return 0
	}
	return float64(w.Moved) / float64(w.Points) / float64(frames)
}

// copyConfig returns a copy of the base config safe to modify per run. The
// material table is shared; runs only read it.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness scores one run: the settle frame, plus the residual motion
// of runs that never settled, doubled when the point index broke.
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	fitness := float64(r.settleFrame)
	if !r.settled {
		fitness += float64(fe.maxFrames) * min(r.residual, 1)
	}
	if r.conflicts > 0 {
		fitness *= 2
	}
	return fitness
}

// worst is the score of a run that never settled at full motion with a
// broken index.
func (fe *FitnessEvaluator) worst() float64 {
	return 4 * float64(fe.maxFrames)
}
