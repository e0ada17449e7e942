package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
)

// Gravity accelerates a point downward by g each frame.
func Gravity(g float64) Processor {
	return func(env *Env, e ecs.Entity) {
		env.Store.Velocity(e).Y += g
	}
}

// Lift accelerates a point upward by l each frame.
func Lift(l float64) Processor {
	return func(env *Env, e ecs.Entity) {
		env.Store.Velocity(e).Y -= l
	}
}

// AirFriction removes a fraction of a point's velocity and caps its speed.
func AirFriction(friction, maxSpeed float64) Processor {
	keep := 1 - friction
	return func(env *Env, e ecs.Entity) {
		v := env.Store.Velocity(e)
		v.X *= keep
		v.Y *= keep
		if maxSpeed <= 0 {
			return
		}
		if speed := math.Hypot(v.X, v.Y); speed > maxSpeed {
			s := maxSpeed / speed
			v.X *= s
			v.Y *= s
		}
	}
}

// Drowning lets a point rise through a heavier fluid directly above it by
// swapping the two.
func Drowning() Processor {
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		pos := store.Position(e)
		above, ok := store.At(pos.X, pos.Y-1)
		if !ok {
			return
		}
		ap := env.Table.Props(store.Kind(above))
		if ap.Static || !ap.Phase.IsFluid() {
			return
		}
		if ap.Weight <= env.Props(e).Weight {
			return
		}
		if store.Swap(e, above) {
			store.MarkMoved(e, env.Frame)
			store.MarkMoved(above, env.Frame)
		}
	}
}

var (
	// PowderSlots are the fallback directions for granular solids.
	PowderSlots = []components.Dir{components.Down, components.DownLeft, components.DownRight}
	// LiquidSlots add sideways flow to the powder slots.
	LiquidSlots = []components.Dir{components.Down, components.DownLeft, components.DownRight, components.Left, components.Right}
	// GasSlots mirror the liquid slots upward.
	GasSlots = []components.Dir{components.Up, components.UpLeft, components.UpRight, components.Left, components.Right}
)

// SlotMove redirects a point that is blocked along its rounded velocity.
// It picks a free slot uniformly from slots and sets the velocity to that
// direction scaled by damping times the current speed. The point does not
// move here; the resolver steps it on a later pass.
func SlotMove(slots []components.Dir, damping float64) Processor {
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		vel := store.Velocity(e)
		pos := store.Position(e)

		step := Round(*vel)
		if !step.IsZero() && store.IsFree(pos.X+step.X, pos.Y+step.Y) {
			return
		}

		var buf [8]components.Dir
		free := env.free(pos, slots, buf[:0])
		if len(free) == 0 {
			return
		}
		d := env.pick(free)
		speed := math.Hypot(vel.X, vel.Y) * damping
		vel.X = float64(d.X) * speed
		vel.Y = float64(d.Y) * speed
	}
}
