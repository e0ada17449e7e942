package scene

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/points"
)

// storePlacer places points straight into a store.
type storePlacer struct {
	store *points.Store
}

func (p storePlacer) Spawn(x, y int, kind materials.Kind) (ecs.Entity, bool) {
	return p.store.Add(x, y, kind)
}

func generate(t *testing.T, name string, w, h int, seed int64) *points.Store {
	t.Helper()
	store := points.New(w, h)
	cfg := config.Default().Scene
	cfg.Name = name
	placed, err := Generate(storePlacer{store}, w, h, cfg, seed)
	if err != nil {
		t.Fatalf("Generate(%s): %v", name, err)
	}
	if placed != store.Len() {
		t.Errorf("%s: reported %d placed, store holds %d", name, placed, store.Len())
	}
	if c := store.Conflicts(); c != 0 {
		t.Errorf("%s: Conflicts() = %d", name, c)
	}
	return store
}

func TestEveryScenePlacesPoints(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			store := generate(t, name, 60, 40, 7)
			if store.Len() == 0 {
				t.Fatal("scene placed nothing")
			}
			// The bottom row is always solid ground
			for x := 0; x < 60; x++ {
				if store.IsFree(x, 39) {
					t.Errorf("bottom cell (%d,39) is empty", x)
				}
			}
		})
	}
}

func TestSceneIsDeterministic(t *testing.T) {
	a := generate(t, "dunes", 50, 30, 3)
	b := generate(t, "dunes", 50, 30, 3)

	for y := 0; y < 30; y++ {
		for x := 0; x < 50; x++ {
			ea, oka := a.At(x, y)
			eb, okb := b.At(x, y)
			if oka != okb || (oka && a.Kind(ea) != b.Kind(eb)) {
				t.Fatalf("cell (%d,%d) differs between runs with the same seed", x, y)
			}
		}
	}
}

func TestLakeHoldsWater(t *testing.T) {
	const w, h = 60, 40
	store := generate(t, "lake", w, h, 11)
	counts := store.CountsByKind()
	if counts[materials.Water] == 0 {
		t.Fatal("lake has no water")
	}

	level := 22 // round(0.55 * 40)
	for _, r := range store.Records() {
		if r.Kind != materials.Water {
			continue
		}
		if r.Y < level {
			t.Errorf("water at (%d,%d) above the lake level %d", r.X, r.Y, level)
		}
		// Water rests on ground or more water
		below, ok := store.At(r.X, r.Y+1)
		if !ok {
			t.Errorf("water at (%d,%d) floats", r.X, r.Y)
			continue
		}
		if k := store.Kind(below); k == materials.Plant {
			t.Errorf("water at (%d,%d) rests on a plant", r.X, r.Y)
		}
	}
}

func TestVolcanoVent(t *testing.T) {
	const w, h = 60, 40
	store := generate(t, "volcano", w, h, 5)
	if store.CountsByKind()[materials.Lava] == 0 {
		t.Fatal("volcano has no lava")
	}
	for y := h - 3; y < h; y++ {
		e, ok := store.At(w/2, y)
		if !ok || store.Kind(e) != materials.Lava {
			t.Errorf("vent cell (%d,%d) is not lava", w/2, y)
		}
	}
}

func TestMetalVeins(t *testing.T) {
	tests := []struct {
		veins float64
		metal bool
	}{
		{0, false},
		{0.1, true},
	}
	for _, tc := range tests {
		store := points.New(60, 40)
		cfg := config.Default().Scene
		cfg.Name = "volcano"
		cfg.Veins = tc.veins
		if _, err := Generate(storePlacer{store}, 60, 40, cfg, 9); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		metal := store.CountsByKind()[materials.Metal]
		if (metal > 0) != tc.metal {
			t.Errorf("veins=%v: %d metal points, want any=%v", tc.veins, metal, tc.metal)
		}
		if metal >= store.CountsByKind()[materials.Stone] {
			t.Errorf("veins=%v: %d metal outnumbers stone", tc.veins, metal)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	store := points.New(10, 10)
	cfg := config.Default().Scene

	cfg.Name = ""
	if n, err := Generate(storePlacer{store}, 10, 10, cfg, 1); n != 0 || err != nil {
		t.Errorf("empty scene = %d, %v; want 0, nil", n, err)
	}

	cfg.Name = "atlantis"
	if _, err := Generate(storePlacer{store}, 10, 10, cfg, 1); err == nil {
		t.Error("unknown scene accepted")
	}

	cfg.Name = "dunes"
	if _, err := Generate(storePlacer{store}, 0, 10, cfg, 1); err == nil {
		t.Error("zero-width grid accepted")
	}
}
