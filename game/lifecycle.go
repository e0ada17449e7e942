// Package game drives the frame loop: it owns the point store, runs the
// processor pipeline, the movement resolver and the temperature field each
// frame, applies queued input, and feeds telemetry and persistence.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/points"
	"github.com/pthm-cable/powder/rng"
	"github.com/pthm-cable/powder/scene"
	"github.com/pthm-cable/powder/systems"
	"github.com/pthm-cable/powder/telemetry"
)

// bookmarkHistory is the number of stats windows bookmarks compare against.
const bookmarkHistory = 10

// Simulation holds the complete simulation state.
type Simulation struct {
	cfg   *config.Config
	table *materials.Table
	store *points.Store
	rand  *rng.Service
	env   *systems.Env

	pipeline *systems.Pipeline
	resolver *systems.Resolver
	field    *systems.TemperatureField

	input requestQueue
	frame int32
	seed  int64

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	temps         []float64 // scratch for window temperature samples

	opts Options
}

// NewSimulation builds a simulation from cfg. The grid starts empty unless
// cfg names a scene or opts names a snapshot to restore.
func NewSimulation(cfg *config.Config, opts Options) (*Simulation, error) {
	table, err := materials.NewTable(cfg.Materials)
	if err != nil {
		return nil, fmt.Errorf("building material table: %w", err)
	}
	field, err := systems.NewTemperatureField(cfg.Grid.Width, cfg.Grid.Height, cfg.Temperature)
	if err != nil {
		return nil, fmt.Errorf("creating temperature field: %w", err)
	}

	seed := resolveSeed(opts.Seed, cfg.Random.Seed)
	src := rng.New(seed, cfg.Random.PoolSize)
	src.Prefill()

	store := points.New(cfg.Grid.Width, cfg.Grid.Height)
	s := &Simulation{
		cfg:           cfg,
		table:         table,
		store:         store,
		rand:          src,
		env:           systems.NewEnv(store, table, src, cfg),
		pipeline:      systems.NewPipeline(systems.DefaultRules(cfg, table)),
		resolver:      systems.NewResolver(cfg.Movement.DisplaceNudge),
		field:         field,
		seed:          seed,
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarks:     telemetry.NewBookmarkDetector(bookmarkHistory),
		opts:          opts,
	}

	s.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := s.outputManager.WriteConfig(cfg); err != nil {
		s.outputManager.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	if opts.SnapshotPath != "" {
		s.LoadSnapshot(opts.SnapshotPath)
	} else {
		placed, err := scene.Generate(s.env, cfg.Grid.Width, cfg.Grid.Height, cfg.Scene, seed)
		if err != nil {
			s.outputManager.Close()
			return nil, fmt.Errorf("generating scene: %w", err)
		}
		if placed > 0 {
			slog.Info("scene generated", "scene", cfg.Scene.Name, "points", placed)
		}
	}
	s.collector.Rebase(s.frame, s.store.Counters())

	return s, nil
}

// resolveSeed picks the first non-zero seed, falling back to the clock.
func resolveSeed(seeds ...int64) int64 {
	for _, seed := range seeds {
		if seed != 0 {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// Run steps the simulation until ctx is cancelled or the configured frame
// limit is reached, pacing frames to the target rate. Reaching the limit
// returns nil; cancellation returns ctx.Err().
func (s *Simulation) Run(ctx context.Context) error {
	s.rand.Start(ctx)
	defer s.rand.Close()

	var tick <-chan time.Time
	if interval := s.cfg.Derived.FrameInterval; interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	maxFrames := int32(s.cfg.Frame.MaxFrames)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.Step(); err != nil {
			return err
		}
		if s.opts.OnFrame != nil {
			s.opts.OnFrame(s)
		}
		if maxFrames > 0 && s.frame >= maxFrames {
			slog.Info("max frames reached", "frame", s.frame)
			return nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
}

// Close stops background work and closes output files.
func (s *Simulation) Close() error {
	s.rand.Close()
	return s.outputManager.Close()
}

// Frame returns the number of completed frames.
func (s *Simulation) Frame() int32 {
	return s.frame
}

// Seed returns the seed the simulation was built with.
func (s *Simulation) Seed() int64 {
	return s.seed
}
