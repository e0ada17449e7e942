package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/rng"
)

// Blast holds explosion propagation parameters.
type Blast struct {
	Force         float64
	Depth         int
	Jitter        float64 // Impulse spread: each hit scales by 1 ± Jitter
	ConvertChance float64 // Chance a flammable point catches fire on impact
}

// NewBlast reads the blast parameters from cfg.
func NewBlast(cfg config.ExplosionConfig) Blast {
	return Blast{
		Force:         cfg.Force,
		Depth:         cfg.Depth,
		Jitter:        cfg.Jitter,
		ConvertChance: cfg.ConvertChance,
	}
}

// BlastStats describes one explosion call tree.
type BlastStats struct {
	Calls   int // Propagation calls, including the origin
	Visited int // Distinct points hit, excluding the origin
}

// Explode detonates origin. At each level every unvisited neighbour is
// marked, receives an outward impulse of Force × remaining depth × jitter
// and may catch fire; only then does each propagate the blast with depth-1. Borders stop propagation and no point
// is hit twice. The origin becomes fire and empty cells around it fill with
// fire.
func (b Blast) Explode(env *Env, origin ecs.Entity) BlastStats {
	var stats BlastStats
	if !env.Store.Alive(origin) {
		return stats
	}
	visited := map[ecs.Entity]bool{origin: true}
	b.propagate(env, origin, b.Depth, visited, &stats)

	env.Transform(origin, materials.Fire)
	fire := SlotFill{Dirs: components.Neighbourhood[:], Chance: 1, Kind: Place(materials.Fire)}
	for i := 0; i < len(components.Neighbourhood); i++ {
		if _, ok := fire.Fill(env, origin); !ok {
			break
		}
	}
	return stats
}

func (b Blast) propagate(env *Env, center ecs.Entity, depth int, visited map[ecs.Entity]bool, stats *BlastStats) {
	stats.Calls++
	if depth <= 0 {
		return
	}
	store := env.Store
	cpos := store.Position(center)

	// The whole ring is hit and claimed before any of it propagates, so
	// every impulse at this level points away from center.
	ring := store.Neighbours(center, false, make([]ecs.Entity, 0, 8))
	hits := ring[:0]
	for _, n := range ring {
		if visited[n] || !store.Alive(n) {
			continue
		}
		visited[n] = true
		stats.Visited++
		hits = append(hits, n)
	}

	for _, n := range hits {
		npos := store.Position(n)
		dx, dy := float64(npos.X-cpos.X), float64(npos.Y-cpos.Y)
		l := math.Hypot(dx, dy)
		jitter := 1 + b.Jitter*(2*env.Rand.Float64()-1)
		impulse := b.Force * float64(depth) * jitter / l

		if !env.Table.IsStatic(store.Kind(n)) {
			v := store.Velocity(n)
			v.X += dx * impulse
			v.Y += dy * impulse
		}

		p := env.Table.Props(store.Kind(n))
		if (p.Flammable() || p.Explosive) && rng.Chance(env.Rand, b.ConvertChance) {
			env.Transform(n, materials.Fire)
		}
	}

	for _, n := range hits {
		b.propagate(env, n, depth-1, visited, stats)
	}
}

// MaxBlastCalls bounds the propagation calls of a blast of the given depth
// on an 8-neighbour grid.
func MaxBlastCalls(depth int) int {
	total, level := 0, 1
	for i := 0; i <= depth; i++ {
		total += level
		level *= 8
	}
	return total
}
