package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/config"
)

// SparkDischarge delivers a spark's charge into touching conductors and sets
// off touching explosives. A spark that discharged is consumed.
// Writes on neighbours: Charge.
func SparkDischarge(cfg config.ElectricityConfig, blast Blast) Processor {
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		var buf [8]ecs.Entity
		discharged := false
		for _, n := range store.Neighbours(e, false, buf[:0]) {
			if !store.Alive(n) {
				continue
			}
			p := env.Table.Props(store.Kind(n))
			switch {
			case p.Conductive:
				d := store.Data(n)
				if d.Has(components.FieldCooldown) || d.Has(components.FieldCharge) {
					continue
				}
				d.SetCharge(cfg.Charge)
				discharged = true
			case p.Explosive:
				blast.Explode(env, n)
				discharged = true
			}
		}
		if discharged && store.Alive(e) {
			store.Delete(e)
		}
	}
}

// ChargeRouting passes a conductor's charge on to every idle conducting
// neighbour, losing decay per hop, heating the conductor and detonating
// touching explosives. A conductor that passed its charge rests for the
// cooldown. Reads and writes: Charge, Cooldown, Temperature.
func ChargeRouting(cfg config.ElectricityConfig, blast Blast) Processor {
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		data := store.Data(e)

		if data.Has(components.FieldCooldown) {
			data.Cooldown--
			if data.Cooldown <= 0 {
				data.Clear(components.FieldCooldown)
			}
		}
		if !data.Has(components.FieldCharge) {
			return
		}
		charge := data.Charge
		data.Clear(components.FieldCharge)
		if charge < cfg.MinCharge {
			return
		}
		data.SetTemperature(env.Temperature(e) + charge*cfg.HeatPerCharge)
		data.SetCooldown(int32(cfg.Cooldown))

		passed := charge * (1 - cfg.Decay)
		var buf [8]ecs.Entity
		for _, n := range store.Neighbours(e, false, buf[:0]) {
			if !store.Alive(n) {
				continue
			}
			p := env.Table.Props(store.Kind(n))
			switch {
			case p.Conductive:
				nd := store.Data(n)
				if nd.Has(components.FieldCooldown) || nd.Has(components.FieldCharge) {
					continue
				}
				nd.SetCharge(passed)
			case p.Explosive:
				blast.Explode(env, n)
			}
		}
	}
}
