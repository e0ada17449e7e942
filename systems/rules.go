package systems

import (
	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
)

// DefaultRules builds the processor list of every kind in table.
//
// Each list starts with the universal forces for the kind's phase, which run
// regardless of the processing toggle, followed by thermal and behaviour
// rules gated on it. Lifetimes are counted down last.
func DefaultRules(cfg *config.Config, table *materials.Table) Rules {
	blast := NewBlast(cfg.Explosion)
	rules := make(Rules)

	for _, k := range materials.All() {
		if k == materials.Border {
			continue
		}
		p := table.Props(k)

		list := forces(cfg, p)

		var thermal []Processor
		if p.HeatSource {
			thermal = append(thermal, HeatSource())
		}
		if len(p.Transitions) > 0 {
			thermal = append(thermal, PhaseChange())
		}
		if p.Flammable() {
			thermal = append(thermal, Ignite(blast))
		}
		if len(thermal) > 0 {
			list = append(list, Gated(Sequence(thermal...)))
		}
		if p.Conductive {
			list = append(list, Gated(ChargeRouting(cfg.Electricity, blast)))
		}
		if b := behaviour(cfg, k, blast); b != nil {
			list = append(list, Gated(b))
		}
		if p.Lifetime > 0 {
			list = append(list, Gated(Expire()))
		}
		rules[k] = list
	}
	return rules
}

// forces returns the universal movement rules for a kind.
func forces(cfg *config.Config, p *materials.Props) []Processor {
	if p.Static {
		return nil
	}
	ph := cfg.Physics
	damping := cfg.Movement.SlotDamping
	drown := Chance(ph.DrowningChance, Drowning())

	switch p.Phase {
	case materials.Powder:
		return []Processor{Gravity(ph.Gravity), AirFriction(ph.AirFriction, ph.MaxSpeed), drown, SlotMove(PowderSlots, damping)}
	case materials.Liquid:
		return []Processor{Gravity(ph.Gravity), AirFriction(ph.AirFriction, ph.MaxSpeed), drown, SlotMove(LiquidSlots, damping)}
	case materials.Gas:
		return []Processor{Lift(ph.Lift), AirFriction(ph.AirFriction, ph.MaxSpeed), SlotMove(GasSlots, damping)}
	case materials.Solid:
		return []Processor{Gravity(ph.Gravity), AirFriction(ph.AirFriction, ph.MaxSpeed)}
	}
	// Agents move themselves; energy stays put
	return nil
}

// behaviour returns the kind-specific rule, or nil.
func behaviour(cfg *config.Config, k materials.Kind, blast Blast) Processor {
	b := cfg.Behaviour
	switch k {
	case materials.Fire:
		return Burn(b, blast)
	case materials.Spark:
		return SparkDischarge(cfg.Electricity, blast)
	case materials.Acid:
		return Chance(b.AcidChance, Corrode(b.AcidStrength))
	case materials.Virus:
		return Chance(b.VirusChance, Infect())
	case materials.Cloner:
		return Clone(b.ClonerChance)
	case materials.Plant:
		return Every(2, Grow(b))
	case materials.Ant:
		return Crawl(cfg.Agents.AntInterval, cfg.Physics.Gravity)
	case materials.Worm:
		return Wriggle(cfg.Agents)
	}
	return nil
}
