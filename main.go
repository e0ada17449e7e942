package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/game"
	"github.com/pthm-cable/powder/scene"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config, then time-based)")
	maxFrames := flag.Int("max-frames", -1, "Stop after N frames (0 = unlimited, -1 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotPath := flag.String("snapshot", "", "Snapshot file to restore on start")
	sceneName := flag.String("scene", "", "Starting scene: "+strings.Join(scene.Names(), ", ")+" (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	audit := flag.Bool("audit", false, "Check the point index for conflicts every frame")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *maxFrames >= 0 {
		cfg.Frame.MaxFrames = *maxFrames
	}
	if *sceneName != "" {
		cfg.Scene.Name = *sceneName
	}

	sim, err := game.NewSimulation(cfg, game.Options{
		Seed:         *seed,
		OutputDir:    *outputDir,
		SnapshotPath: *snapshotPath,
		LogStats:     *logStats,
		Audit:        *audit,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting simulation",
		"seed", sim.Seed(),
		"width", cfg.Grid.Width,
		"height", cfg.Grid.Height,
		"scene", cfg.Scene.Name,
		"points", sim.Len(),
		"max_frames", cfg.Frame.MaxFrames,
	)

	err = sim.Run(ctx)
	if cerr := sim.Close(); cerr != nil {
		slog.Error("failed to close output", "error", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("simulation failed", "frame", sim.Frame(), "error", err)
		os.Exit(1)
	}
	slog.Info("simulation stopped", "frame", sim.Frame(), "points", sim.Len())
}
