package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/materials"
)

// PointView is a read-only copy of one point for renderers and tools.
type PointView struct {
	ID       uint32
	X, Y     int
	Kind     materials.Kind
	Data     components.Data
	Velocity components.Velocity

	// Render interpolation coordinates, when set
	Visual    components.Visual
	HasVisual bool
}

func (s *Simulation) view(e ecs.Entity) PointView {
	pos := s.store.Position(e)
	v := PointView{
		ID:       s.store.Activity(e).ID,
		X:        pos.X,
		Y:        pos.Y,
		Kind:     s.store.Kind(e),
		Data:     *s.store.Data(e),
		Velocity: *s.store.Velocity(e),
	}
	v.Visual, v.HasVisual = s.store.Visual(e)
	return v
}

// EachPoint calls fn for every live point in iteration order until fn
// returns false.
func (s *Simulation) EachPoint(fn func(PointView) bool) {
	for _, e := range s.store.Active() {
		if !s.store.Alive(e) {
			continue
		}
		if !fn(s.view(e)) {
			return
		}
	}
}

// EachBorder calls fn for every border point until fn returns false.
func (s *Simulation) EachBorder(fn func(PointView) bool) {
	for _, e := range s.store.Borders() {
		if !fn(s.view(e)) {
			return
		}
	}
}

// PointAt returns the point at (x, y), borders included.
func (s *Simulation) PointAt(x, y int) (PointView, bool) {
	e, ok := s.store.At(x, y)
	if !ok {
		return PointView{}, false
	}
	return s.view(e), true
}

// TemperatureAt returns the temperature at (x, y): the point's own value
// when occupied, the air cell otherwise.
func (s *Simulation) TemperatureAt(x, y int) (float64, bool) {
	if !s.store.InBounds(x, y) {
		return 0, false
	}
	if e, ok := s.store.At(x, y); ok {
		return s.store.Data(e).TemperatureOr(s.env.Toggles.BaseTemperature), true
	}
	return s.field.At(x, y)
}

// CountsByKind returns the number of live points per kind.
func (s *Simulation) CountsByKind() map[materials.Kind]int {
	return s.store.CountsByKind()
}

// LightSources returns the positions of every light-emitting point.
func (s *Simulation) LightSources() []components.Position {
	sources := s.store.LightSources(s.table, nil)
	out := make([]components.Position, len(sources))
	for i, e := range sources {
		out[i] = s.store.Position(e)
	}
	return out
}

// Len returns the number of live points.
func (s *Simulation) Len() int {
	return s.store.Len()
}

// Size returns the playable grid dimensions.
func (s *Simulation) Size() (w, h int) {
	return s.store.Width(), s.store.Height()
}

// BaseTemperature returns the ambient temperature toggle.
func (s *Simulation) BaseTemperature() float64 {
	return s.env.Toggles.BaseTemperature
}

// Processing reports whether behaviour rules are enabled.
func (s *Simulation) Processing() bool {
	return s.env.Toggles.Processing
}

// Conflicts audits the point index; 0 for a healthy store.
func (s *Simulation) Conflicts() int {
	return s.store.Conflicts()
}
