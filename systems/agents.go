package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/rng"
)

// route picks the next step for an agent at pos over its 3x3 neighbourhood.
// The previous heading is kept when allowed and passable; otherwise any
// passable direction except reversal is taken at random, and reversal is
// the last resort.
func (env *Env) route(pos components.Position, heading components.Dir, hasHeading, keepHeading bool, passable func(components.Position) bool) (components.Dir, bool) {
	if hasHeading && keepHeading && !heading.IsZero() && passable(pos.Add(heading)) {
		return heading, true
	}

	back := heading.Neg()
	var buf [8]components.Dir
	options := buf[:0]
	for _, d := range components.Neighbourhood {
		if hasHeading && d == back {
			continue
		}
		if passable(pos.Add(d)) {
			options = append(options, d)
		}
	}
	if len(options) > 0 {
		return env.pick(options), true
	}
	if hasHeading && !back.IsZero() && passable(pos.Add(back)) {
		return back, true
	}
	return components.Dir{}, false
}

// touches reports whether any point other than those accepted by skip
// occupies a neighbour of pos. Borders count.
func (env *Env) touches(pos components.Position, skip func(ecs.Entity) bool) bool {
	for _, d := range components.Neighbourhood {
		n, ok := env.Store.At(pos.X+d.X, pos.Y+d.Y)
		if ok && !skip(n) {
			return true
		}
	}
	return false
}

// Crawl moves an ant along surfaces. An ant touching nothing falls under
// gravity; a supported ant holds still and steps every interval frames into
// a free cell that also touches a surface. Reads and writes: Heading.
func Crawl(interval int, gravity float64) Processor {
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		self := func(n ecs.Entity) bool { return n == e }
		pos := store.Position(e)

		if !env.touches(pos, self) {
			store.Velocity(e).Y += gravity
			return
		}
		v := store.Velocity(e)
		v.X, v.Y = 0, 0

		if interval > 1 && int(env.Frame)%interval != 0 {
			return
		}

		data := store.Data(e)
		dir, ok := env.route(pos, data.Heading, data.Has(components.FieldHeading), true, func(c components.Position) bool {
			return store.IsFree(c.X, c.Y) && env.touches(c, self)
		})
		if !ok {
			return
		}
		store.Move(e, pos.X+dir.X, pos.Y+dir.Y)
		store.Data(e).SetHeading(dir)
		store.MarkMoved(e, env.Frame)
	}
}

// Wriggle moves a worm head every interval frames and drags its body chain
// behind it, growing a segment per step until the worm reaches its length.
// A head with nothing but its own body around it sinks.
// Reads and writes: Heading, Link.
func Wriggle(cfg config.AgentsConfig) Processor {
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		v := store.Velocity(e)
		v.X, v.Y = 0, 0

		if cfg.WormInterval > 1 && int(env.Frame)%cfg.WormInterval != 0 {
			return
		}

		isWorm := func(n ecs.Entity) bool {
			k := store.Kind(n)
			return k == materials.Worm || k == materials.WormBody
		}
		pos := store.Position(e)
		supported := env.touches(pos, isWorm)
		passable := func(c components.Position) bool {
			if !store.IsFree(c.X, c.Y) {
				return false
			}
			if !supported {
				return c.Y > pos.Y
			}
			return env.touches(c, isWorm)
		}

		data := store.Data(e)
		keep := !rng.Chance(env.Rand, cfg.WormTurnChance)
		dir, ok := env.route(pos, data.Heading, data.Has(components.FieldHeading), keep, passable)
		if !ok {
			return
		}

		store.Move(e, pos.X+dir.X, pos.Y+dir.Y)
		store.Data(e).SetHeading(dir)
		store.MarkMoved(e, env.Frame)

		// Each segment takes the cell its predecessor left
		prev := pos
		tail := e
		length := 1
		for {
			d := store.Data(tail)
			if !d.Has(components.FieldLink) {
				break
			}
			next := d.Link
			if !store.Alive(next) || store.Kind(next) != materials.WormBody {
				d.Clear(components.FieldLink)
				break
			}
			np := store.Position(next)
			store.Move(next, prev.X, prev.Y)
			store.MarkMoved(next, env.Frame)
			prev = np
			tail = next
			length++
		}

		if length < cfg.WormLength {
			if body, ok := env.Spawn(prev.X, prev.Y, materials.WormBody); ok {
				store.Data(tail).SetLink(body)
			}
		}
	}
}
