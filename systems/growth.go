package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
)

// Corrode dissolves one random neighbour that is not acid. Each dissolved
// point costs one unit of strength; the acid is used up at zero.
// Reads and writes: Energy.
func Corrode(strength float64) Processor {
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		var buf, prey [8]ecs.Entity
		targets := prey[:0]
		for _, n := range store.Neighbours(e, false, buf[:0]) {
			if store.Kind(n) != materials.Acid {
				targets = append(targets, n)
			}
		}
		if len(targets) == 0 {
			return
		}

		data := store.Data(e)
		if !data.Has(components.FieldEnergy) {
			data.SetEnergy(strength)
		}
		data.Energy--
		left := data.Energy

		store.Delete(targets[env.Rand.Intn(len(targets))])
		if left <= 0 {
			store.Delete(e)
		}
	}
}

// Infect converts one random living neighbour into virus. The infected point
// inherits half the remaining lifetime so outbreaks burn out.
// Reads and writes: Lifetime.
func Infect() Processor {
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		var buf, hosts [8]ecs.Entity
		targets := hosts[:0]
		for _, n := range store.Neighbours(e, false, buf[:0]) {
			k := store.Kind(n)
			if k == materials.Virus || env.Table.IsStatic(k) {
				continue
			}
			targets = append(targets, n)
		}
		if len(targets) == 0 {
			return
		}

		remaining := env.Props(e).Lifetime
		if d := store.Data(e); d.Has(components.FieldLifetime) {
			remaining = d.Lifetime
		}
		host := targets[env.Rand.Intn(len(targets))]
		env.Transform(host, materials.Virus)
		store.Data(host).SetLifetime(remaining / 2)
	}
}

// Clone remembers the first kind a cloner touches and emits copies of it
// into free neighbouring cells. Reads and writes: CloneKind.
func Clone(chance float64) Processor {
	fill := SlotFill{
		Dirs:   components.Neighbourhood[:],
		Chance: chance,
		Kind: func(env *Env, e ecs.Entity) materials.Kind {
			d := env.Store.Data(e)
			if !d.Has(components.FieldCloneKind) {
				return materials.None
			}
			return d.CloneKind
		},
	}
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		if d := store.Data(e); !d.Has(components.FieldCloneKind) {
			var buf [8]ecs.Entity
			for _, n := range store.Neighbours(e, false, buf[:0]) {
				if k := store.Kind(n); k != materials.Cloner {
					store.Data(e).SetCloneKind(k)
					break
				}
			}
		}
		fill.Fill(env, e)
	}
}

// Grow lets a plant drink touching water and, once it has stored enough
// energy, sprout into a free cell above or beside it.
// Reads and writes: Energy.
func Grow(cfg config.BehaviourConfig) Processor {
	sprout := SlotFill{
		Dirs: []components.Dir{
			components.Up, components.UpLeft, components.UpRight,
			components.Left, components.Right,
		},
		Chance: cfg.PlantGrowChance,
		Kind:   Place(materials.Plant),
	}
	return func(env *Env, e ecs.Entity) {
		store := env.Store
		var buf [8]ecs.Entity
		gained := 0.0
		for _, n := range store.Neighbours(e, false, buf[:0]) {
			if store.Kind(n) == materials.Water {
				store.Delete(n)
				gained += cfg.PlantWaterEnergy
				break
			}
		}

		data := store.Data(e)
		energy := data.Energy + gained
		data.SetEnergy(energy)
		if energy < cfg.PlantGrowthCost {
			return
		}
		if _, ok := sprout.Fill(env, e); ok {
			store.Data(e).SetEnergy(energy - cfg.PlantGrowthCost)
		}
	}
}
