package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/telemetry"
)

// testConfig returns unthrottled defaults on a w×h grid with deterministic
// random draws.
func testConfig(w, h int) *config.Config {
	cfg := config.Default()
	cfg.Grid.Width = w
	cfg.Grid.Height = h
	cfg.Frame.TargetFPS = 0
	cfg.Derived.FrameInterval = 0
	cfg.Random.Seed = 7
	cfg.Random.PoolSize = 0
	return cfg
}

func newTestSimulation(t *testing.T, cfg *config.Config, opts Options) *Simulation {
	t.Helper()
	s, err := NewSimulation(cfg, opts)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func step(t *testing.T, s *Simulation, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
}

func TestSandDropRestsOnFloor(t *testing.T) {
	s := newTestSimulation(t, testConfig(10, 10), Options{})
	s.Spawn(5, 0, materials.Sand)
	step(t, s, 40)

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	p, ok := s.PointAt(5, 9)
	if !ok || p.Kind != materials.Sand {
		t.Fatalf("PointAt(5, 9) = %+v, %v; want sand", p, ok)
	}
	if _, ok := s.PointAt(5, 0); ok {
		t.Error("spawn cell still occupied")
	}
}

func TestSceneRunsWithoutIndexConflicts(t *testing.T) {
	for _, name := range []string{"dunes", "lake", "volcano"} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(48, 32)
			cfg.Scene.Name = name
			cfg.Telemetry.StatsWindow = 10

			var windows []telemetry.WindowStats
			s := newTestSimulation(t, cfg, Options{
				Audit:         true,
				StatsCallback: func(ws telemetry.WindowStats) { windows = append(windows, ws) },
			})
			if s.Len() == 0 {
				t.Fatal("scene placed no points")
			}
			step(t, s, 30)

			if len(windows) != 3 {
				t.Fatalf("got %d stats windows, want 3", len(windows))
			}
			for _, ws := range windows {
				if ws.MaxConflicts != 0 {
					t.Errorf("window ending %d: %d index conflicts", ws.WindowEndFrame, ws.MaxConflicts)
				}
			}
			if c := s.Conflicts(); c != 0 {
				t.Errorf("Conflicts = %d after run", c)
			}
		})
	}
}

func TestInputAppliedOnNextFrame(t *testing.T) {
	s := newTestSimulation(t, testConfig(5, 5), Options{})

	s.Spawn(2, 2, materials.Stone)
	if _, ok := s.PointAt(2, 2); ok {
		t.Fatal("spawn applied before the frame ran")
	}
	step(t, s, 1)
	if p, ok := s.PointAt(2, 2); !ok || p.Kind != materials.Stone {
		t.Fatalf("PointAt(2, 2) = %+v, %v; want stone", p, ok)
	}

	// Occupied cells are left alone
	s.Spawn(2, 2, materials.Sand)
	step(t, s, 1)
	if p, _ := s.PointAt(2, 2); p.Kind != materials.Stone {
		t.Errorf("spawn over stone replaced it with %v", p.Kind)
	}

	s.Erase(2, 2)
	step(t, s, 1)
	if _, ok := s.PointAt(2, 2); ok {
		t.Error("erase left the point in place")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestAdjustTemperature(t *testing.T) {
	s := newTestSimulation(t, testConfig(5, 5), Options{})
	base := s.BaseTemperature()

	s.Spawn(1, 1, materials.Stone)
	step(t, s, 1)

	s.AdjustTemperature(1, 1, 100)
	s.AdjustTemperature(3, 3, 100)
	step(t, s, 1)

	if got, _ := s.TemperatureAt(1, 1); got < base+50 {
		t.Errorf("stone temperature = %.2f, want above %.2f", got, base+50)
	}
	if got, _ := s.TemperatureAt(3, 3); got < base+25 {
		t.Errorf("air temperature = %.2f, want above %.2f", got, base+25)
	}
	if _, ok := s.TemperatureAt(-1, 0); ok {
		t.Error("TemperatureAt out of bounds reported ok")
	}
}

func TestToggles(t *testing.T) {
	s := newTestSimulation(t, testConfig(5, 5), Options{})
	s.SetBaseTemperature(-10)
	s.SetProcessing(false)
	if s.BaseTemperature() == -10 || !s.Processing() {
		t.Fatal("toggles applied before the frame ran")
	}
	step(t, s, 1)
	if s.BaseTemperature() != -10 {
		t.Errorf("BaseTemperature = %v, want -10", s.BaseTemperature())
	}
	if s.Processing() {
		t.Error("Processing still on")
	}
}

func TestResize(t *testing.T) {
	s := newTestSimulation(t, testConfig(10, 10), Options{})

	for _, size := range [][2]int{{0, 5}, {5, 0}, {-1, -1}} {
		if err := s.Resize(size[0], size[1]); err == nil {
			t.Errorf("Resize(%d, %d) succeeded", size[0], size[1])
		}
	}

	s.Spawn(1, 1, materials.Stone)
	s.Spawn(8, 8, materials.Stone)
	step(t, s, 1)
	if err := s.Resize(5, 5); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	step(t, s, 1)

	if w, h := s.Size(); w != 5 || h != 5 {
		t.Fatalf("Size = %dx%d, want 5x5", w, h)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1 after dropping out-of-bounds points", s.Len())
	}
	if _, ok := s.TemperatureAt(4, 4); !ok {
		t.Error("temperature field not resized")
	}
	if c := s.Conflicts(); c != 0 {
		t.Errorf("Conflicts = %d after resize", c)
	}
}

func TestLightSources(t *testing.T) {
	s := newTestSimulation(t, testConfig(8, 8), Options{})
	s.Spawn(2, 2, materials.Lamp)
	s.Spawn(5, 5, materials.Stone)
	step(t, s, 1)

	lights := s.LightSources()
	if len(lights) != 1 || lights[0].X != 2 || lights[0].Y != 2 {
		t.Errorf("LightSources = %v, want [(2, 2)]", lights)
	}
}

func TestEachBorderCoversRing(t *testing.T) {
	s := newTestSimulation(t, testConfig(4, 3), Options{})
	n := 0
	s.EachBorder(func(p PointView) bool {
		if p.Kind != materials.Border {
			t.Errorf("border point at (%d, %d) has kind %v", p.X, p.Y, p.Kind)
		}
		n++
		return true
	})
	// (w+2)*(h+2) - w*h
	if want := 6*5 - 4*3; n != want {
		t.Errorf("EachBorder visited %d points, want %d", n, want)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := testConfig(32, 24)
	cfg.Scene.Name = "volcano"
	s := newTestSimulation(t, cfg, Options{})
	step(t, s, 12)

	path := filepath.Join(t.TempDir(), "state.json")
	if err := telemetry.WriteSnapshot(s.Snapshot(), path); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	restored := newTestSimulation(t, testConfig(10, 10), Options{SnapshotPath: path})

	if restored.Frame() != s.Frame() {
		t.Errorf("Frame = %d, want %d", restored.Frame(), s.Frame())
	}
	if w, h := restored.Size(); w != 32 || h != 24 {
		t.Errorf("Size = %dx%d, want 32x24", w, h)
	}
	if restored.Len() != s.Len() {
		t.Fatalf("Len = %d, want %d", restored.Len(), s.Len())
	}

	s.EachPoint(func(want PointView) bool {
		got, ok := restored.PointAt(want.X, want.Y)
		if !ok || got.Kind != want.Kind || got.ID != want.ID {
			t.Errorf("point at (%d, %d) = %+v, want %+v", want.X, want.Y, got, want)
			return false
		}
		return true
	})
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			a, _ := s.TemperatureAt(x, y)
			b, _ := restored.TemperatureAt(x, y)
			if a != b {
				t.Fatalf("TemperatureAt(%d, %d) = %v, want %v", x, y, b, a)
			}
		}
	}

	// Both continue identically from the restored frame
	step(t, restored, 1)
	if restored.Conflicts() != 0 {
		t.Error("restored store has index conflicts")
	}
}

func TestLoadSnapshotFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(12, 8)
	cfg.Scene.Name = "dunes"
	s := newTestSimulation(t, cfg, Options{SnapshotPath: path})
	if s.Len() != 0 {
		t.Errorf("Len = %d, want an empty grid", s.Len())
	}
	if w, h := s.Size(); w != 12 || h != 8 {
		t.Errorf("Size = %dx%d, want 12x8", w, h)
	}

	if s.LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")) {
		t.Error("LoadSnapshot of a missing file reported success")
	}
	step(t, s, 1)
}

func TestAutosave(t *testing.T) {
	cfg := testConfig(10, 10)
	cfg.Persistence.Dir = t.TempDir()
	cfg.Persistence.AutosaveFrames = 3
	s := newTestSimulation(t, cfg, Options{})
	s.Spawn(4, 4, materials.Stone)

	step(t, s, 2)
	path := filepath.Join(cfg.Persistence.Dir, autosaveName)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("autosave written early: %v", err)
	}
	step(t, s, 1)

	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.Frame != 3 || len(snap.Points) != 1 {
		t.Errorf("autosave frame=%d points=%d, want 3 and 1", snap.Frame, len(snap.Points))
	}
}

func TestOutputFiles(t *testing.T) {
	cfg := testConfig(20, 20)
	cfg.Scene.Name = "lake"
	cfg.Telemetry.StatsWindow = 5
	dir := t.TempDir()
	s := newTestSimulation(t, cfg, Options{OutputDir: dir})
	step(t, s, 10)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "population.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestRunStopsAtMaxFrames(t *testing.T) {
	cfg := testConfig(8, 8)
	cfg.Frame.MaxFrames = 5
	frames := 0
	s := newTestSimulation(t, cfg, Options{OnFrame: func(*Simulation) { frames++ }})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Frame() != 5 || frames != 5 {
		t.Errorf("Frame = %d, OnFrame calls = %d; want 5 and 5", s.Frame(), frames)
	}
}

func TestRunCancel(t *testing.T) {
	cfg := testConfig(8, 8)
	cfg.Random.PoolSize = 64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newTestSimulation(t, cfg, Options{OnFrame: func(s *Simulation) {
		if s.Frame() == 3 {
			cancel()
		}
	}})

	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if s.Frame() != 3 {
		t.Errorf("Frame = %d, want 3", s.Frame())
	}
}

func TestResolveSeed(t *testing.T) {
	if got := resolveSeed(0, 42); got != 42 {
		t.Errorf("resolveSeed(0, 42) = %d", got)
	}
	if got := resolveSeed(5, 42); got != 5 {
		t.Errorf("resolveSeed(5, 42) = %d", got)
	}
	if got := resolveSeed(0, 0); got == 0 {
		t.Error("resolveSeed(0, 0) returned 0")
	}
}
