package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/rng"
)

// HeatSource pins a point at its kind's temperature every frame.
// Reads and writes: Temperature.
func HeatSource() Processor {
	return func(env *Env, e ecs.Entity) {
		p := env.Props(e)
		if p.HasTemperature {
			env.Store.Data(e).SetTemperature(p.Temperature)
		}
	}
}

// PhaseChange applies the first triggered temperature transition of the
// point's kind. Reads: Temperature.
func PhaseChange() Processor {
	return func(env *Env, e ecs.Entity) {
		p := env.Props(e)
		if len(p.Transitions) == 0 {
			return
		}
		t := env.Temperature(e)
		for _, tr := range p.Transitions {
			if !tr.Triggered(t) {
				continue
			}
			if tr.Chance > 0 && !rng.Chance(env.Rand, tr.Chance) {
				continue
			}
			env.Transform(e, tr.To)
			return
		}
	}
}

// Ignite turns a flammable point at or above its ignition temperature into
// fire. Explosive points explode instead. Reads: Temperature.
func Ignite(blast Blast) Processor {
	return func(env *Env, e ecs.Entity) {
		p := env.Props(e)
		if !p.Flammable() || env.Temperature(e) < p.Ignition {
			return
		}
		if p.Explosive {
			blast.Explode(env, e)
			return
		}
		env.Transform(e, materials.Fire)
	}
}
