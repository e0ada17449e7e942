package points

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/materials"
)

// generateBorders places border points on the ring around the playable area.
func (s *Store) generateBorders() {
	for _, e := range s.borders {
		if s.world.Alive(e) {
			s.world.RemoveEntity(e)
		}
	}
	s.borders = s.borders[:0]

	place := func(x, y int) {
		e := s.mapper.NewEntity(
			&components.Position{X: x, Y: y},
			&components.Velocity{},
			&components.Material{Kind: materials.Border},
			&components.Data{},
			&components.Activity{MovedAt: -1},
		)
		i := s.index(x, y)
		s.cells[i] = e
		s.occupied[i] = true
		s.borders = append(s.borders, e)
	}

	for x := -1; x <= s.width; x++ {
		place(x, -1)
		place(x, s.height)
	}
	for y := 0; y < s.height; y++ {
		place(-1, y)
		place(s.width, y)
	}
}

// Resize changes the playable bounds. Points outside the new bounds are
// deleted, the rest keep their cells and order, and borders are regenerated.
func (s *Store) Resize(width, height int) {
	s.Compact()

	// Drop the old borders before the index is reallocated
	for _, e := range s.borders {
		s.world.RemoveEntity(e)
	}
	s.borders = s.borders[:0]

	s.allocate(width, height)

	kept := s.active[:0]
	for _, e := range s.active {
		pos := s.Position(e)
		if !s.InBounds(pos.X, pos.Y) {
			s.world.RemoveEntity(e)
			s.counters.Deleted++
			continue
		}
		i := s.index(pos.X, pos.Y)
		s.cells[i] = e
		s.occupied[i] = true
		kept = append(kept, e)
	}
	s.active = kept

	s.generateBorders()
}

// Clear deletes every non-border point.
func (s *Store) Clear() {
	for _, e := range s.active {
		if s.world.Alive(e) {
			s.Delete(e)
		}
	}
	s.Compact()
}

// Records exports every live non-border point in iteration order.
func (s *Store) Records() []Record {
	out := make([]Record, 0, s.Len())
	for _, e := range s.active {
		if !s.world.Alive(e) {
			continue
		}
		pos := s.posMap.Get(e)
		vel := s.velMap.Get(e)
		data := *s.dataMap.Get(e)

		r := Record{
			ID:   s.actMap.Get(e).ID,
			X:    pos.X,
			Y:    pos.Y,
			VX:   vel.X,
			VY:   vel.Y,
			Kind: s.kindMap.Get(e).Kind,
		}
		if data.Has(components.FieldLink) {
			if s.world.Alive(data.Link) {
				r.LinkID = s.actMap.Get(data.Link).ID
			}
			data.Clear(components.FieldLink)
			data.Link = ecs.Entity{}
		}
		r.Data = data
		out = append(out, r)
	}
	return out
}

// Load replaces all points with records inside a width x height area.
// Records that conflict or fall outside the bounds are skipped; the number
// skipped is returned. Chain links are restored by ID.
func (s *Store) Load(width, height int, records []Record) int {
	s.Clear()
	s.Resize(width, height)
	s.nextID = 0

	byID := make(map[uint32]ecs.Entity, len(records))
	type pendingLink struct {
		from ecs.Entity
		to   uint32
	}
	var links []pendingLink
	skipped := 0

	for _, r := range records {
		e, ok := s.Insert(r)
		if !ok {
			skipped++
			continue
		}
		byID[s.actMap.Get(e).ID] = e
		if r.LinkID != 0 {
			links = append(links, pendingLink{from: e, to: r.LinkID})
		}
	}

	for _, l := range links {
		if to, ok := byID[l.to]; ok {
			s.dataMap.Get(l.from).SetLink(to)
		}
	}
	return skipped
}

// Conflicts audits the index against point positions and returns the number
// of inconsistencies: points whose cell does not map back to them, and
// occupied cells holding dead or misplaced points. A healthy store reports 0.
func (s *Store) Conflicts() int {
	conflicts := 0
	check := func(e ecs.Entity) {
		pos := s.posMap.Get(e)
		i := s.index(pos.X, pos.Y)
		if !s.occupied[i] || s.cells[i] != e {
			conflicts++
		}
	}
	for _, e := range s.active {
		if s.world.Alive(e) {
			check(e)
		}
	}
	for _, e := range s.borders {
		check(e)
	}

	for y := -1; y <= s.height; y++ {
		for x := -1; x <= s.width; x++ {
			i := s.index(x, y)
			if !s.occupied[i] {
				continue
			}
			e := s.cells[i]
			if !s.world.Alive(e) {
				conflicts++
				continue
			}
			if pos := s.posMap.Get(e); pos.X != x || pos.Y != y {
				conflicts++
			}
		}
	}
	return conflicts
}

// CountsByKind returns the number of live non-border points per kind.
func (s *Store) CountsByKind() map[materials.Kind]int {
	counts := make(map[materials.Kind]int)
	query := s.kindFilter.Query()
	for query.Next() {
		m := query.Get()
		if m.Kind != materials.Border {
			counts[m.Kind]++
		}
	}
	return counts
}

// LightSources appends every point whose kind is a light source to dst.
func (s *Store) LightSources(table *materials.Table, dst []ecs.Entity) []ecs.Entity {
	query := s.lightFilter.Query()
	for query.Next() {
		_, m := query.Get()
		if m.Kind != materials.Border && table.Props(m.Kind).LightSource {
			dst = append(dst, query.Entity())
		}
	}
	return dst
}
