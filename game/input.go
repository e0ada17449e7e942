package game

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pthm-cable/powder/materials"
)

// request is one queued input, applied on the frame goroutine.
type request func(s *Simulation)

// requestQueue collects input from other goroutines between frames.
type requestQueue struct {
	mu      sync.Mutex
	pending []request
}

func (q *requestQueue) push(r request) {
	q.mu.Lock()
	q.pending = append(q.pending, r)
	q.mu.Unlock()
}

// drain takes every pending request in arrival order.
func (q *requestQueue) drain() []request {
	q.mu.Lock()
	out := q.pending
	q.pending = nil
	q.mu.Unlock()
	return out
}

// applyInput runs queued requests before the frame's passes.
func (s *Simulation) applyInput() {
	for _, r := range s.input.drain() {
		r(s)
	}
}

// Spawn requests a new point at (x, y). Occupied or out-of-bounds cells are
// ignored.
func (s *Simulation) Spawn(x, y int, kind materials.Kind) {
	s.input.push(func(s *Simulation) {
		s.env.Spawn(x, y, kind)
	})
}

// Erase requests removal of the point at (x, y), if any.
func (s *Simulation) Erase(x, y int) {
	s.input.push(func(s *Simulation) {
		if e, ok := s.store.At(x, y); ok {
			s.store.Delete(e)
		}
	})
}

// AdjustTemperature requests a temperature change at (x, y). A point there
// is heated directly; an empty cell heats the air.
func (s *Simulation) AdjustTemperature(x, y int, delta float64) {
	s.input.push(func(s *Simulation) {
		if e, ok := s.store.At(x, y); ok && s.store.InBounds(x, y) {
			d := s.store.Data(e)
			d.SetTemperature(d.TemperatureOr(s.env.Toggles.BaseTemperature) + delta)
			s.store.Touch(e, s.frame)
			return
		}
		s.field.Adjust(x, y, delta)
	})
}

// SetBaseTemperature requests a new ambient temperature.
func (s *Simulation) SetBaseTemperature(t float64) {
	s.input.push(func(s *Simulation) {
		s.env.Toggles.BaseTemperature = t
	})
}

// SetProcessing requests behaviour rules on or off. Forces keep running.
func (s *Simulation) SetProcessing(on bool) {
	s.input.push(func(s *Simulation) {
		s.env.Toggles.Processing = on
	})
}

// Resize requests new playable bounds. Points outside them are dropped and
// the temperature field restarts at the base temperature.
func (s *Simulation) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid grid size %dx%d", w, h)
	}
	s.input.push(func(s *Simulation) {
		before := s.store.Len()
		s.store.Resize(w, h)
		s.field.Ambient = s.env.Toggles.BaseTemperature
		if err := s.field.Reset(w, h); err != nil {
			slog.Error("resetting temperature field", "error", err)
		}
		slog.Info("grid resized", "width", w, "height", h, "dropped", before-s.store.Len())
	})
	return nil
}
