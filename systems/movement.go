package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/materials"
)

// Round converts a velocity into a grid step. Each axis maps independently:
// positive to +1, negative to -1, zero to 0.
func Round(v components.Velocity) components.Dir {
	return components.Dir{X: sign(v.X), Y: sign(v.Y)}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Resolver advances points by their rounded velocity, one cell per frame,
// resolving collisions by weight displacement or momentum transfer.
type Resolver struct {
	nudge float64
	moved int
}

// NewResolver creates a resolver. nudge is the speed given to a displaced
// point, opposite the mover's direction.
func NewResolver(nudge float64) *Resolver {
	return &Resolver{nudge: nudge}
}

// Run resolves every active point in store order.
func (r *Resolver) Run(env *Env) {
	r.moved = 0
	active := env.Store.Active()
	for _, e := range active {
		if !env.Store.Alive(e) {
			continue
		}
		if r.Step(env, e) {
			r.moved++
		}
	}
}

// Moved returns the number of points that moved under their own velocity in
// the last Run.
func (r *Resolver) Moved() int {
	return r.moved
}

// Step resolves one point and reports whether it changed cell.
// Points already moved this frame (displaced or swapped) are not stepped again.
func (r *Resolver) Step(env *Env, e ecs.Entity) bool {
	store := env.Store
	kind := store.Kind(e)
	if kind == materials.Border || env.Table.IsStatic(kind) {
		return false
	}
	if store.Activity(e).MovedAt == env.Frame {
		return false
	}

	vel := store.Velocity(e)
	step := Round(*vel)
	if step.IsZero() {
		return false
	}

	from := store.Position(e)
	to := from.Add(step)

	occupant, occupied := store.At(to.X, to.Y)
	if !occupied {
		if !store.Move(e, to.X, to.Y) {
			// Beyond the ring; nothing to push against
			return false
		}
		store.MarkMoved(e, env.Frame)
		return true
	}

	okind := store.Kind(occupant)
	movable := okind != materials.Border && !env.Table.IsStatic(okind)

	if movable && env.Table.Weight(kind) > env.Table.Weight(okind) {
		r.displace(env, e, occupant, from, to, step)
		return true
	}

	// Blocked: keep half the speed on each stepped axis and hand the other
	// half of the step to a movable occupant.
	if step.X != 0 {
		vel.X *= 0.5
	}
	if step.Y != 0 {
		vel.Y *= 0.5
	}
	if movable {
		ov := store.Velocity(occupant)
		ov.X += 0.5 * float64(step.X)
		ov.Y += 0.5 * float64(step.Y)
		store.Touch(occupant, env.Frame)
	}
	return false
}

// displace moves the heavier mover into the occupant's cell. The occupant
// goes to a random free neighbour of its own cell, excluding the mover's
// origin, or swaps with the mover when there is none.
func (r *Resolver) displace(env *Env, mover, occupant ecs.Entity, from, to components.Position, step components.Dir) {
	store := env.Store

	var buf [8]components.Dir
	free := buf[:0]
	for _, d := range components.Neighbourhood {
		c := to.Add(d)
		if c == from {
			continue
		}
		if store.IsFree(c.X, c.Y) {
			free = append(free, d)
		}
	}

	if len(free) > 0 {
		c := to.Add(env.pick(free))
		store.Move(occupant, c.X, c.Y)
		store.Move(mover, to.X, to.Y)
	} else {
		store.Swap(mover, occupant)
	}

	ov := store.Velocity(occupant)
	ov.X -= r.nudge * float64(step.X)
	ov.Y -= r.nudge * float64(step.Y)

	store.MarkMoved(mover, env.Frame)
	store.MarkMoved(occupant, env.Frame)
}
