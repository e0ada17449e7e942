package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/points"
	"github.com/pthm-cable/powder/rng"
)

func tempConfig(quad bool) config.TemperatureConfig {
	cfg := config.Default().Temperature
	cfg.Base = 20
	cfg.QuadTree = quad
	cfg.QuadTreeMinCell = 4
	return cfg
}

func TestTemperatureFieldInvalidDimensions(t *testing.T) {
	tests := []struct {
		w, h int
	}{
		{0, 10},
		{10, 0},
		{-3, 5},
		{5, -1},
	}
	for _, tc := range tests {
		if _, err := NewTemperatureField(tc.w, tc.h, tempConfig(false)); err == nil {
			t.Errorf("NewTemperatureField(%d, %d) returned no error", tc.w, tc.h)
		}
	}

	f, err := NewTemperatureField(4, 4, tempConfig(false))
	if err != nil {
		t.Fatalf("NewTemperatureField(4, 4): %v", err)
	}
	if err := f.Reset(0, 4); err == nil {
		t.Error("Reset(0, 4) returned no error")
	}
}

func TestUniformFieldIsStable(t *testing.T) {
	for _, quad := range []bool{false, true} {
		f, _ := NewTemperatureField(12, 9, tempConfig(quad))

		// Occupied cells at the same temperature must not change either
		store := points.New(12, 9)
		store.Add(3, 3, materials.Sand)
		store.Add(4, 3, materials.Water)
		table := materials.NewNeutralTable()
		table.Define(materials.Props{Kind: materials.Water, HeatCapacity: 4})
		f.UpdateFromParticles(store, table, 20)

		for i := 0; i < 100; i++ {
			if err := f.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
		}
		for i, v := range f.Cells() {
			if v != 20 {
				t.Fatalf("quad=%v: cell %d = %v after 100 steps, want 20", quad, i, v)
			}
		}
		if got := f.Total(); got != 20*12*9 {
			t.Errorf("Total() = %v, want %v", got, 20*12*9)
		}
	}
}

func TestHotCellDecays(t *testing.T) {
	f, _ := NewTemperatureField(9, 9, tempConfig(false))
	f.Set(4, 4, 100)

	prev := 100.0
	for step := 1; step <= 50; step++ {
		f.Step()
		hot, _ := f.At(4, 4)
		if hot >= prev {
			t.Fatalf("step %d: hot cell %v did not decrease from %v", step, hot, prev)
		}
		prev = hot
		if step == 1 {
			for _, c := range [][2]int{{3, 4}, {5, 4}, {4, 3}, {3, 3}} {
				if v, _ := f.At(c[0], c[1]); v <= 20 {
					t.Errorf("neighbour %v = %v after one step, want > 20", c, v)
				}
			}
		}
	}

	for i := 0; i < 3000; i++ {
		f.Step()
	}
	for i, v := range f.Cells() {
		if math.Abs(v-20) > 0.5 {
			t.Fatalf("cell %d = %v, want near ambient 20", i, v)
		}
	}
}

func TestHeatCapacitySlowsChange(t *testing.T) {
	table := materials.NewNeutralTable()
	table.Define(materials.Props{Kind: materials.Water, HeatCapacity: 4})
	table.Define(materials.Props{Kind: materials.Sand, HeatCapacity: 1})

	measure := func(kind materials.Kind) float64 {
		store := points.New(5, 5)
		e, _ := store.Add(2, 2, kind)
		store.Data(e).SetTemperature(100)
		f, _ := NewTemperatureField(5, 5, tempConfig(false))
		f.UpdateFromParticles(store, table, 20)
		f.Step()
		v, _ := f.At(2, 2)
		return 100 - v
	}

	sand, water := measure(materials.Sand), measure(materials.Water)
	if math.Abs(sand-4*water) > 1e-9 {
		t.Errorf("sand lost %v, water lost %v; want a 4:1 ratio", sand, water)
	}
}

func TestExchangeWithParticles(t *testing.T) {
	store := points.New(4, 4)
	hot, _ := store.Add(1, 1, materials.Sand)
	store.Data(hot).SetTemperature(50)
	plain, _ := store.Add(2, 2, materials.Sand)

	f, _ := NewTemperatureField(4, 4, tempConfig(false))
	f.UpdateFromParticles(store, materials.NewNeutralTable(), 20)

	if v, _ := f.At(1, 1); v != 50 {
		t.Errorf("At(1,1) = %v, want 50", v)
	}
	if v, _ := f.At(2, 2); v != 20 {
		t.Errorf("At(2,2) = %v, want base 20 for unset point", v)
	}

	f.Set(1, 1, 70)
	f.Adjust(2, 2, 5)
	f.WriteBack(store)

	if got := store.Data(hot).TemperatureOr(0); got != 70 {
		t.Errorf("hot point temperature = %v, want 70", got)
	}
	if got := store.Data(plain).TemperatureOr(0); got != 25 {
		t.Errorf("plain point temperature = %v, want 25", got)
	}
	if _, ok := f.At(4, 0); ok {
		t.Error("At outside the grid reported a cell")
	}
}

func TestQuadTreeMatchesFlatStep(t *testing.T) {
	const w, h = 40, 24
	table := materials.NewNeutralTable()
	table.Define(materials.Props{Kind: materials.Water, HeatCapacity: 4})
	table.Define(materials.Props{Kind: materials.Stone, HeatCapacity: 0.8})

	store := points.New(w, h)
	src := rng.New(9, 0)
	kinds := []materials.Kind{materials.Sand, materials.Water, materials.Stone}
	// Points only in the left half so the right half starts settled
	for i := 0; i < 200; i++ {
		x, y := src.Intn(w/2), src.Intn(h)
		if e, ok := store.Add(x, y, kinds[src.Intn(len(kinds))]); ok {
			store.Data(e).SetTemperature(src.Float64() * 400)
		}
	}

	flat, _ := NewTemperatureField(w, h, tempConfig(false))
	quad, _ := NewTemperatureField(w, h, tempConfig(true))
	flat.UpdateFromParticles(store, table, 20)
	quad.UpdateFromParticles(store, table, 20)

	if quad.quad.Leaves() < 4 {
		t.Fatalf("quad-tree has %d leaves, want a subdivided grid", quad.quad.Leaves())
	}

	for step := 0; step < 30; step++ {
		flat.Step()
		if err := quad.Step(); err != nil {
			t.Fatalf("quad Step: %v", err)
		}
		if step == 0 && quad.quad.Skipped() == 0 {
			t.Error("first step skipped no settled leaves")
		}
		for i := range flat.Cells() {
			if flat.Cells()[i] != quad.Cells()[i] {
				t.Fatalf("step %d cell %d: flat %v, quad %v", step, i, flat.Cells()[i], quad.Cells()[i])
			}
		}
	}
}

func TestQuadTreeCoversGrid(t *testing.T) {
	tests := []struct {
		w, h, min int
	}{
		{1, 1, 8},
		{17, 5, 4},
		{64, 64, 8},
		{33, 100, 7},
	}
	for _, tc := range tests {
		q := NewQuadTree(tc.w, tc.h, tc.min)
		seen := make([]int, tc.w*tc.h)
		for _, l := range q.leaves {
			if l.x1-l.x0 > tc.min || l.y1-l.y0 > tc.min {
				t.Errorf("%dx%d: leaf %+v larger than %d", tc.w, tc.h, l, tc.min)
			}
			for y := l.y0; y < l.y1; y++ {
				for x := l.x0; x < l.x1; x++ {
					seen[y*tc.w+x]++
				}
			}
		}
		for i, n := range seen {
			if n != 1 {
				t.Fatalf("%dx%d: cell %d covered %d times", tc.w, tc.h, i, n)
			}
		}
	}
}
