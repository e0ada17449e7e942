package systems

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/points"
)

// TemperatureField is a dense W×H temperature grid coupled to the points.
// Every cell holds a temperature; cells without a point are air.
type TemperatureField struct {
	W, H int

	cur  []float64
	next []float64

	occupied []bool
	capacity []float64 // Occupant heat capacity, 1 for air

	// Parameters
	Rate     float64 // Fraction moved toward the neighbour average
	AirLoss  float64 // Fraction air relaxes toward Ambient
	Diagonal float64 // Diagonal neighbour weight, cardinal = 1
	Ambient  float64

	quad *QuadTree
}

// NewTemperatureField creates a field at the base temperature. Dimensions
// must be positive. With cfg.QuadTree set, steps run through a region
// quad-tree that skips settled air.
func NewTemperatureField(w, h int, cfg config.TemperatureConfig) (*TemperatureField, error) {
	f := &TemperatureField{
		Rate:     cfg.DiffusionRate,
		AirLoss:  cfg.AirLoss,
		Diagonal: cfg.DiagonalWeight,
		Ambient:  cfg.Base,
	}
	if err := f.Reset(w, h); err != nil {
		return nil, err
	}
	if cfg.QuadTree {
		f.quad = NewQuadTree(w, h, cfg.QuadTreeMinCell)
	}
	return f, nil
}

// Reset reallocates the field for new bounds, every cell at ambient.
func (f *TemperatureField) Reset(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("temperature field: invalid dimensions %dx%d", w, h)
	}
	f.W, f.H = w, h
	n := w * h
	f.cur = make([]float64, n)
	f.next = make([]float64, n)
	f.occupied = make([]bool, n)
	f.capacity = make([]float64, n)
	for i := range f.cur {
		f.cur[i] = f.Ambient
		f.capacity[i] = 1
	}
	if f.quad != nil {
		f.quad = NewQuadTree(w, h, f.quad.minCell)
	}
	return nil
}

// At returns the temperature of cell (x, y).
func (f *TemperatureField) At(x, y int) (float64, bool) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return 0, false
	}
	return f.cur[y*f.W+x], true
}

// Set overwrites the temperature of cell (x, y).
func (f *TemperatureField) Set(x, y int, t float64) bool {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return false
	}
	f.cur[y*f.W+x] = t
	return true
}

// Adjust adds delta to cell (x, y).
func (f *TemperatureField) Adjust(x, y int, delta float64) bool {
	t, ok := f.At(x, y)
	if !ok {
		return false
	}
	return f.Set(x, y, t+delta)
}

// Total returns the sum of all cell temperatures.
func (f *TemperatureField) Total() float64 {
	return floats.Sum(f.cur)
}

// Cells returns the current grid in row-major order. Read only.
func (f *TemperatureField) Cells() []float64 {
	return f.cur
}

// UpdateFromParticles copies each point's temperature into its cell and
// records occupant heat capacities. Points without a temperature read as
// base. base also becomes the ambient target for air.
func (f *TemperatureField) UpdateFromParticles(store *points.Store, table *materials.Table, base float64) {
	f.Ambient = base
	for i := range f.occupied {
		f.occupied[i] = false
		f.capacity[i] = 1
	}
	for _, e := range store.Active() {
		if !store.Alive(e) {
			continue
		}
		pos := store.Position(e)
		if pos.X >= f.W || pos.Y >= f.H {
			continue
		}
		i := pos.Y*f.W + pos.X
		f.cur[i] = store.Data(e).TemperatureOr(base)
		f.capacity[i] = table.HeatCapacity(store.Kind(e))
		f.occupied[i] = true
	}
}

// WriteBack copies each cell's temperature into the point occupying it.
func (f *TemperatureField) WriteBack(store *points.Store) {
	for _, e := range store.Active() {
		if !store.Alive(e) {
			continue
		}
		pos := store.Position(e)
		if pos.X >= f.W || pos.Y >= f.H {
			continue
		}
		store.Data(e).SetTemperature(f.cur[pos.Y*f.W+pos.X])
	}
}

// Step diffuses the field once.
func (f *TemperatureField) Step() error {
	if f.quad != nil {
		if err := f.quad.Step(f); err != nil {
			return err
		}
	} else {
		f.stepRect(0, 0, f.W, f.H)
	}
	f.cur, f.next = f.next, f.cur
	return nil
}

// stepRect writes the diffused value of every cell in [x0,x1)×[y0,y1) into
// next, reading only cur.
func (f *TemperatureField) stepRect(x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			f.next[y*f.W+x] = f.cell(x, y)
		}
	}
}

// copyRect carries [x0,x1)×[y0,y1) over unchanged.
func (f *TemperatureField) copyRect(x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		row := y * f.W
		copy(f.next[row+x0:row+x1], f.cur[row+x0:row+x1])
	}
}

// cell computes the next temperature of (x, y). Neighbour differences are
// averaged rather than raw temperatures so a uniform neighbourhood yields
// exactly zero change.
func (f *TemperatureField) cell(x, y int) float64 {
	i := y*f.W + x
	t := f.cur[i]

	var sum, wsum float64
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= f.H {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if (dx == 0 && dy == 0) || nx < 0 || nx >= f.W {
				continue
			}
			w := 1.0
			if dx != 0 && dy != 0 {
				w = f.Diagonal
			}
			j := ny*f.W + nx
			if f.occupied[j] {
				w *= f.capacity[j]
			}
			sum += w * (f.cur[j] - t)
			wsum += w
		}
	}

	var delta float64
	if wsum > 0 {
		delta = f.Rate * sum / wsum
	}
	if f.occupied[i] {
		return t + delta/f.capacity[i]
	}
	return t + delta + f.AirLoss*(f.Ambient-t)
}

// settled reports whether every cell of the rect and its one-cell halo is
// air at exactly ambient, in which case a step leaves the rect unchanged.
func (f *TemperatureField) settled(x0, y0, x1, y1 int) bool {
	x0, y0 = max(x0-1, 0), max(y0-1, 0)
	x1, y1 = min(x1+1, f.W), min(y1+1, f.H)
	for y := y0; y < y1; y++ {
		row := y * f.W
		for x := x0; x < x1; x++ {
			if f.occupied[row+x] || f.cur[row+x] != f.Ambient {
				return false
			}
		}
	}
	return true
}
