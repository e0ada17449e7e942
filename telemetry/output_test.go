package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Every method tolerates a nil manager
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePopulation(PopulationRows(0, nil)); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesHeadersOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for _, end := range []int32{300, 600} {
		if err := om.WriteTelemetry(WindowStats{WindowEndFrame: end, Points: 10}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
		if err := om.WritePerf(PerfStats{}, end); err != nil {
			t.Fatalf("WritePerf: %v", err)
		}
		if err := om.WritePopulation(PopulationRows(end, map[materials.Kind]int{materials.Sand: 10})); err != nil {
			t.Fatalf("WritePopulation: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkSettled, Frame: 600, Description: "at rest"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	read := func(name string) []string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	tel := read("telemetry.csv")
	if len(tel) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2", len(tel))
	}
	if !strings.HasPrefix(tel[0], "window_end,points,") {
		t.Errorf("telemetry header = %q", tel[0])
	}
	if strings.Contains(tel[0], "WindowStartFrame") {
		t.Error("skipped column written")
	}
	if !strings.HasPrefix(tel[2], "600,10,") {
		t.Errorf("second row = %q", tel[2])
	}

	if perf := read("perf.csv"); len(perf) != 3 || !strings.Contains(perf[0], "temperature_pct") {
		t.Errorf("perf.csv = %q", perf)
	}

	pop := read("population.csv")
	perWindow := len(materials.All()) - 1
	if len(pop) != 1+2*perWindow {
		t.Errorf("population.csv has %d lines, want %d", len(pop), 1+2*perWindow)
	}
	if pop[0] != "window_end,kind,count" {
		t.Errorf("population header = %q", pop[0])
	}
	if !strings.Contains(strings.Join(pop, "\n"), "600,sand,10") {
		t.Error("population.csv missing the sand count")
	}

	if bm := read("bookmarks.csv"); len(bm) != 2 || bm[1] != "settled,600,at rest" {
		t.Errorf("bookmarks.csv = %q", bm)
	}

	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if cfg.Grid.Width != config.Default().Grid.Width {
		t.Errorf("reloaded grid width = %d", cfg.Grid.Width)
	}
}
