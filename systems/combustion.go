package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/rng"
)

// Burn spreads fire. A fire touching water is quenched into smoke and cools
// the water; otherwise flammable neighbours catch fire with spreadChance
// (explosives detonate) and smoke rises into a free slot above.
func Burn(cfg config.BehaviourConfig, blast Blast) Processor {
	smoke := SlotFill{
		Dirs:   []components.Dir{components.Up, components.UpLeft, components.UpRight},
		Chance: cfg.SmokeChance,
		Kind:   Place(materials.Smoke),
	}
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		var buf [8]ecs.Entity
		around := store.Neighbours(e, false, buf[:0])

		for _, n := range around {
			if store.Kind(n) == materials.Water {
				store.Data(n).SetTemperature(cfg.QuenchTemperature)
				env.Transform(e, materials.Smoke)
				return
			}
		}

		for _, n := range around {
			if !store.Alive(n) {
				continue
			}
			p := env.Table.Props(store.Kind(n))
			if !p.Flammable() || !rng.Chance(env.Rand, cfg.FireSpreadChance) {
				continue
			}
			if p.Explosive {
				blast.Explode(env, n)
				continue
			}
			env.Transform(n, materials.Fire)
		}

		if store.Alive(e) {
			smoke.Fill(env, e)
		}
	}
}

// Expire counts a point's lifetime down and deletes it at zero. Points of a
// kind with a lifetime that lack the field start counting on first sight.
// Reads and writes: Lifetime.
func Expire() Processor {
	return func(env *Env, e ecs.Entity) {
		data := env.Store.Data(e)
		if !data.Has(components.FieldLifetime) {
			lt := env.Props(e).Lifetime
			if lt <= 0 {
				return
			}
			data.SetLifetime(lt)
		}
		data.Lifetime--
		if data.Lifetime <= 0 {
			env.Store.Delete(e)
		}
	}
}
