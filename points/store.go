// Package points owns all simulation points and the coordinate index over them.
//
// Points live in an ark ECS world and are referenced by entity handle. The
// store keeps a dense cell grid mapping each coordinate to at most one point,
// and every coordinate change goes through the store so the grid never holds
// stale entries. The playable area is [0,W)x[0,H); border points fill the ring
// just outside it.
package points

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/materials"
)

// Record is a plain copy of one point, used for bulk load and export.
type Record struct {
	ID     uint32
	X, Y   int
	VX, VY float64
	Kind   materials.Kind
	Data   components.Data
	LinkID uint32 // ID of Data.Link when FieldLink is set
}

// Counters accumulates store mutations for telemetry.
type Counters struct {
	Created     uint64
	Deleted     uint64
	Transformed uint64
	Moved       uint64
}

// Store holds every point and answers occupancy and neighbour queries.
type Store struct {
	world *ecs.World

	mapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Material,
		components.Data,
		components.Activity,
	]
	posMap    *ecs.Map1[components.Position]
	velMap    *ecs.Map1[components.Velocity]
	kindMap   *ecs.Map1[components.Material]
	dataMap   *ecs.Map1[components.Data]
	actMap    *ecs.Map1[components.Activity]
	visualMap *ecs.Map1[components.Visual]

	kindFilter  *ecs.Filter1[components.Material]
	lightFilter *ecs.Filter2[components.Position, components.Material]

	width, height int
	stride        int          // width + 2, the index covers the border ring
	cells         []ecs.Entity // (width+2)*(height+2)
	occupied      []bool

	active  []ecs.Entity // non-border points in insertion order
	borders []ecs.Entity
	removed int // deleted entries still present in active

	nextID   uint32
	counters Counters
}

// New creates an empty store with borders around a width x height area.
// Negative dimensions are treated as zero.
func New(width, height int) *Store {
	world := ecs.NewWorld()

	s := &Store{
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Material,
			components.Data,
			components.Activity,
		](world),
		posMap:      ecs.NewMap1[components.Position](world),
		velMap:      ecs.NewMap1[components.Velocity](world),
		kindMap:     ecs.NewMap1[components.Material](world),
		dataMap:     ecs.NewMap1[components.Data](world),
		actMap:      ecs.NewMap1[components.Activity](world),
		visualMap:   ecs.NewMap1[components.Visual](world),
		kindFilter:  ecs.NewFilter1[components.Material](world),
		lightFilter: ecs.NewFilter2[components.Position, components.Material](world),
	}
	s.allocate(width, height)
	s.generateBorders()
	return s
}

// allocate sizes the index for the given bounds and clears it.
func (s *Store) allocate(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s.width, s.height = width, height
	s.stride = width + 2
	n := s.stride * (height + 2)
	s.cells = make([]ecs.Entity, n)
	s.occupied = make([]bool, n)
}

// Width returns the playable width.
func (s *Store) Width() int { return s.width }

// Height returns the playable height.
func (s *Store) Height() int { return s.height }

// InBounds reports whether (x, y) lies in the playable area.
func (s *Store) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.width && y < s.height
}

// inRing reports whether (x, y) is covered by the index (playable area or border ring).
func (s *Store) inRing(x, y int) bool {
	return x >= -1 && y >= -1 && x <= s.width && y <= s.height
}

func (s *Store) index(x, y int) int {
	return (y+1)*s.stride + (x + 1)
}

// At returns the point occupying (x, y). Border points are returned for ring
// cells; empty cells and coordinates beyond the ring report false.
func (s *Store) At(x, y int) (ecs.Entity, bool) {
	if !s.inRing(x, y) {
		return ecs.Entity{}, false
	}
	i := s.index(x, y)
	if !s.occupied[i] {
		return ecs.Entity{}, false
	}
	return s.cells[i], true
}

// IsFree reports whether (x, y) is an empty playable cell.
func (s *Store) IsFree(x, y int) bool {
	return s.InBounds(x, y) && !s.occupied[s.index(x, y)]
}

// Insert adds a point described by r. It returns false without side effects
// when the cell is outside the playable area or already occupied, or when r
// names no storable kind.
func (s *Store) Insert(r Record) (ecs.Entity, bool) {
	if r.Kind == materials.None || r.Kind == materials.Border || r.Kind >= materials.NumKinds {
		return ecs.Entity{}, false
	}
	if !s.IsFree(r.X, r.Y) {
		return ecs.Entity{}, false
	}

	id := r.ID
	if id == 0 {
		s.nextID++
		id = s.nextID
	} else if id > s.nextID {
		s.nextID = id
	}

	data := r.Data
	data.Clear(components.FieldLink) // links are resolved by Load
	e := s.mapper.NewEntity(
		&components.Position{X: r.X, Y: r.Y},
		&components.Velocity{X: r.VX, Y: r.VY},
		&components.Material{Kind: r.Kind},
		&data,
		&components.Activity{ID: id, MovedAt: -1},
	)

	i := s.index(r.X, r.Y)
	s.cells[i] = e
	s.occupied[i] = true
	s.active = append(s.active, e)
	s.counters.Created++
	return e, true
}

// Add inserts a stationary point of the given kind.
func (s *Store) Add(x, y int, kind materials.Kind) (ecs.Entity, bool) {
	return s.Insert(Record{X: x, Y: y, Kind: kind})
}

// Delete removes a point. It is safe during a pass over Active: the entry
// stays in the active list, reads as dead, and is dropped by Compact.
// Border points cannot be deleted.
func (s *Store) Delete(e ecs.Entity) bool {
	if !s.world.Alive(e) {
		return false
	}
	if s.kindMap.Get(e).Kind == materials.Border {
		return false
	}

	pos := s.posMap.Get(e)
	i := s.index(pos.X, pos.Y)
	if s.occupied[i] && s.cells[i] == e {
		s.occupied[i] = false
		s.cells[i] = ecs.Entity{}
	}

	s.world.RemoveEntity(e)
	s.removed++
	s.counters.Deleted++
	return true
}

// Compact drops deleted points from the active list, preserving order.
func (s *Store) Compact() {
	if s.removed == 0 {
		return
	}
	kept := s.active[:0]
	for _, e := range s.active {
		if s.world.Alive(e) {
			kept = append(kept, e)
		}
	}
	// Release handles past the new length
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = ecs.Entity{}
	}
	s.active = kept
	s.removed = 0
}

// Active returns the non-border points in stable insertion order. The slice
// is owned by the store: it may include points deleted since the last
// Compact (check Alive) and may grow when points are inserted.
func (s *Store) Active() []ecs.Entity {
	return s.active
}

// Len returns the number of live non-border points.
func (s *Store) Len() int {
	return len(s.active) - s.removed
}

// Borders returns the border points.
func (s *Store) Borders() []ecs.Entity {
	return s.borders
}

// Alive reports whether e is a live point.
func (s *Store) Alive(e ecs.Entity) bool {
	return s.world.Alive(e)
}

// Position returns the cell of e. e must be alive.
func (s *Store) Position(e ecs.Entity) components.Position {
	return *s.posMap.Get(e)
}

// Kind returns the kind of e. e must be alive.
func (s *Store) Kind(e ecs.Entity) materials.Kind {
	return s.kindMap.Get(e).Kind
}

// Velocity returns a mutable velocity for e. The pointer is invalidated by
// the next Insert, Delete or SetVisual.
func (s *Store) Velocity(e ecs.Entity) *components.Velocity {
	return s.velMap.Get(e)
}

// Data returns the mutable data bag for e. The pointer is invalidated by
// the next Insert, Delete or SetVisual.
func (s *Store) Data(e ecs.Entity) *components.Data {
	return s.dataMap.Get(e)
}

// Activity returns the bookkeeping component of e.
func (s *Store) Activity(e ecs.Entity) components.Activity {
	return *s.actMap.Get(e)
}

// SetKind changes the kind of e in place. Borders cannot change kind and
// nothing can become a border.
func (s *Store) SetKind(e ecs.Entity, kind materials.Kind) bool {
	if kind == materials.None || kind == materials.Border || kind >= materials.NumKinds {
		return false
	}
	m := s.kindMap.Get(e)
	if m.Kind == materials.Border {
		return false
	}
	if m.Kind != kind {
		m.Kind = kind
		s.counters.Transformed++
	}
	return true
}

// Move relocates e to (x, y). It fails if the target is not a free playable cell.
func (s *Store) Move(e ecs.Entity, x, y int) bool {
	if !s.IsFree(x, y) {
		return false
	}
	pos := s.posMap.Get(e)
	from := s.index(pos.X, pos.Y)
	s.occupied[from] = false
	s.cells[from] = ecs.Entity{}

	to := s.index(x, y)
	s.cells[to] = e
	s.occupied[to] = true
	pos.X, pos.Y = x, y
	s.counters.Moved++
	return true
}

// Swap exchanges the cells of two non-border points.
func (s *Store) Swap(a, b ecs.Entity) bool {
	if a == b {
		return false
	}
	if s.Kind(a) == materials.Border || s.Kind(b) == materials.Border {
		return false
	}
	pa, pb := s.posMap.Get(a), s.posMap.Get(b)
	*pa, *pb = *pb, *pa
	s.cells[s.index(pa.X, pa.Y)] = a
	s.cells[s.index(pb.X, pb.Y)] = b
	s.counters.Moved += 2
	return true
}

// MarkMoved records that e moved during frame and flags its neighbourhood active.
func (s *Store) MarkMoved(e ecs.Entity, frame int32) {
	s.actMap.Get(e).MovedAt = frame
	s.Touch(e, frame)
}

// Touch flags e and its neighbours as active since frame. This is a
// scheduling hint only; no rule depends on it for correctness.
func (s *Store) Touch(e ecs.Entity, frame int32) {
	s.actMap.Get(e).ActiveSince = frame
	pos := s.Position(e)
	for _, d := range components.Neighbourhood {
		n, ok := s.At(pos.X+d.X, pos.Y+d.Y)
		if !ok || s.Kind(n) == materials.Border {
			continue
		}
		s.actMap.Get(n).ActiveSince = frame
	}
}

// Neighbours appends the points adjacent to e (Chebyshev distance 1) to dst
// in row-major order. Results reflect the index at call time.
func (s *Store) Neighbours(e ecs.Entity, includeBorder bool, dst []ecs.Entity) []ecs.Entity {
	pos := s.Position(e)
	return s.NeighboursAt(pos.X, pos.Y, includeBorder, dst)
}

// NeighboursAt is Neighbours for an arbitrary cell.
func (s *Store) NeighboursAt(x, y int, includeBorder bool, dst []ecs.Entity) []ecs.Entity {
	for _, d := range components.Neighbourhood {
		n, ok := s.At(x+d.X, y+d.Y)
		if !ok {
			continue
		}
		if !includeBorder && s.Kind(n) == materials.Border {
			continue
		}
		dst = append(dst, n)
	}
	return dst
}

// SetVisual sets the render interpolation coordinates of e.
func (s *Store) SetVisual(e ecs.Entity, x, y float64) {
	if s.visualMap.HasAll(e) {
		v := s.visualMap.Get(e)
		v.X, v.Y = x, y
		return
	}
	s.visualMap.Add(e, &components.Visual{X: x, Y: y})
}

// Visual returns the render coordinates of e, if set.
func (s *Store) Visual(e ecs.Entity) (components.Visual, bool) {
	if !s.visualMap.HasAll(e) {
		return components.Visual{}, false
	}
	return *s.visualMap.Get(e), true
}

// Counters returns the accumulated mutation counters.
func (s *Store) Counters() Counters {
	return s.counters
}
