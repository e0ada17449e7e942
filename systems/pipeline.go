package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/materials"
)

// Rules maps each kind to its ordered processor list.
type Rules map[materials.Kind][]Processor

// Pipeline applies every point's processor list once per frame in store order.
type Pipeline struct {
	lists      [materials.NumKinds][]Processor
	registered [materials.NumKinds]bool
	warned     [materials.NumKinds]bool

	processed int // points processed in the last pass
}

// NewPipeline creates a pipeline from a rule set.
func NewPipeline(rules Rules) *Pipeline {
	p := &Pipeline{}
	for kind, procs := range rules {
		p.Register(kind, procs...)
	}
	return p
}

// Register sets the processor list for kind. An empty list registers the
// kind as intentionally inert.
func (p *Pipeline) Register(kind materials.Kind, procs ...Processor) {
	if kind >= materials.NumKinds {
		return
	}
	p.lists[kind] = procs
	p.registered[kind] = true
	p.warned[kind] = false
}

// Registered reports whether kind has a processor list.
func (p *Pipeline) Registered(kind materials.Kind) bool {
	return kind < materials.NumKinds && p.registered[kind]
}

// Run processes every active point. Points inserted during the pass are
// first processed next frame; points deleted during the pass are skipped.
func (p *Pipeline) Run(env *Env) {
	p.processed = 0
	active := env.Store.Active()
	n := len(active)
	for i := 0; i < n; i++ {
		// Re-read: inserts may have grown the backing array
		e := env.Store.Active()[i]
		if !env.Store.Alive(e) {
			continue
		}
		p.Process(env, e)
		p.processed++
	}
}

// Process runs the list registered for e's kind. Processing stops when e is
// deleted or changes kind.
func (p *Pipeline) Process(env *Env, e ecs.Entity) {
	kind := env.Store.Kind(e)
	if !p.registered[kind] {
		if !p.warned[kind] {
			p.warned[kind] = true
			slog.Warn("no processors registered", "kind", kind.String())
		}
		return
	}
	for _, proc := range p.lists[kind] {
		proc(env, e)
		if !env.Store.Alive(e) || env.Store.Kind(e) != kind {
			return
		}
	}
}

// Processed returns the number of points processed in the last Run.
func (p *Pipeline) Processed() int {
	return p.processed
}
