package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/rng"
)

// Processor is one behaviour rule applied to a point once per frame.
// It may mutate the point, its neighbours, or add and delete points
// through env.Store.
type Processor func(env *Env, e ecs.Entity)

// Chance runs inner only when a draw from the shared source falls below p.
func Chance(p float64, inner Processor) Processor {
	return func(env *Env, e ecs.Entity) {
		if rng.Chance(env.Rand, p) {
			inner(env, e)
		}
	}
}

// Every runs inner once every n invocations. The counter belongs to the
// returned processor and is shared by every point that runs it.
func Every(n int, inner Processor) Processor {
	if n <= 1 {
		return inner
	}
	count := 0
	return func(env *Env, e ecs.Entity) {
		count++
		if count < n {
			return
		}
		count = 0
		inner(env, e)
	}
}

// OnFrames runs inner only on frames divisible by n.
func OnFrames(n int, inner Processor) Processor {
	if n <= 1 {
		return inner
	}
	return func(env *Env, e ecs.Entity) {
		if int(env.Frame)%n == 0 {
			inner(env, e)
		}
	}
}

// Gated runs inner only while processing is enabled.
func Gated(inner Processor) Processor {
	return func(env *Env, e ecs.Entity) {
		if env.Toggles.Processing {
			inner(env, e)
		}
	}
}

// Sequence runs each processor in order. It stops early once the point is
// deleted or changes kind, since the rest of the list no longer applies.
func Sequence(procs ...Processor) Processor {
	return func(env *Env, e ecs.Entity) {
		kind := env.Store.Kind(e)
		for _, p := range procs {
			p(env, e)
			if !env.Store.Alive(e) || env.Store.Kind(e) != kind {
				return
			}
		}
	}
}

// SlotFill places a new point into one free cell of a direction set.
type SlotFill struct {
	Dirs   []components.Dir
	Chance float64 // Fill probability per invocation

	// Kind returns what to place next to e; None skips the fill.
	Kind func(env *Env, e ecs.Entity) materials.Kind
}

// Fill tries to place a point next to e. It returns the new point, or false
// if the draw failed, no slot was free, or there was nothing to place.
func (s SlotFill) Fill(env *Env, e ecs.Entity) (ecs.Entity, bool) {
	if !rng.Chance(env.Rand, s.Chance) {
		return ecs.Entity{}, false
	}
	kind := s.Kind(env, e)
	if kind == materials.None {
		return ecs.Entity{}, false
	}

	var buf [8]components.Dir
	pos := env.Store.Position(e)
	free := env.free(pos, s.Dirs, buf[:0])
	if len(free) == 0 {
		return ecs.Entity{}, false
	}
	d := env.pick(free)
	return env.Spawn(pos.X+d.X, pos.Y+d.Y, kind)
}

// Processor returns the fill as a rule.
func (s SlotFill) Processor() Processor {
	return func(env *Env, e ecs.Entity) {
		s.Fill(env, e)
	}
}

// Place returns a Kind func that always yields kind.
func Place(kind materials.Kind) func(*Env, ecs.Entity) materials.Kind {
	return func(*Env, ecs.Entity) materials.Kind { return kind }
}
