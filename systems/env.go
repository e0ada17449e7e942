// Package systems contains the per-frame simulation passes: the force
// processor pipeline and its rule library, the movement resolver and the
// temperature field.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/points"
	"github.com/pthm-cable/powder/rng"
)

// Toggles are the global switches rules read on every invocation.
type Toggles struct {
	BaseTemperature float64 // Ambient target and default for points without a temperature
	Processing      bool    // Behaviour rules run only while set
}

// Env is the shared state handed to every processor.
type Env struct {
	Store   *points.Store
	Table   *materials.Table
	Rand    rng.Source
	Cfg     *config.Config
	Toggles *Toggles
	Frame   int32
}

// NewEnv creates an environment with processing enabled and the configured
// base temperature.
func NewEnv(store *points.Store, table *materials.Table, src rng.Source, cfg *config.Config) *Env {
	return &Env{
		Store: store,
		Table: table,
		Rand:  src,
		Cfg:   cfg,
		Toggles: &Toggles{
			BaseTemperature: cfg.Temperature.Base,
			Processing:      true,
		},
	}
}

// Props returns the material properties of e.
func (env *Env) Props(e ecs.Entity) *materials.Props {
	return env.Table.Props(env.Store.Kind(e))
}

// Temperature returns the temperature of e, or the base temperature if unset.
func (env *Env) Temperature(e ecs.Entity) float64 {
	return env.Store.Data(e).TemperatureOr(env.Toggles.BaseTemperature)
}

// Spawn inserts a new point with the initial state its kind declares.
func (env *Env) Spawn(x, y int, kind materials.Kind) (ecs.Entity, bool) {
	r := points.Record{X: x, Y: y, Kind: kind}
	initData(&r.Data, env.Table.Props(kind))
	return env.Store.Insert(r)
}

// Transform changes the kind of e in place. The temperature carries over;
// the lifetime restarts from the new kind's value.
func (env *Env) Transform(e ecs.Entity, kind materials.Kind) bool {
	if !env.Store.SetKind(e, kind) {
		return false
	}
	data := env.Store.Data(e)
	data.Clear(components.FieldLifetime)
	data.Clear(components.FieldCharge)
	data.Clear(components.FieldEnergy)
	if p := env.Table.Props(kind); p.Lifetime > 0 {
		data.SetLifetime(p.Lifetime)
	}
	env.Store.Touch(e, env.Frame)
	return true
}

// initData applies the initial per-kind state to a fresh data bag.
func initData(d *components.Data, p *materials.Props) {
	if p.HasTemperature {
		d.SetTemperature(p.Temperature)
	}
	if p.Lifetime > 0 {
		d.SetLifetime(p.Lifetime)
	}
}

// free returns the directions in dirs whose target cell next to pos is empty.
func (env *Env) free(pos components.Position, dirs []components.Dir, dst []components.Dir) []components.Dir {
	for _, d := range dirs {
		if env.Store.IsFree(pos.X+d.X, pos.Y+d.Y) {
			dst = append(dst, d)
		}
	}
	return dst
}

// pick returns a uniformly random element of dirs.
func (env *Env) pick(dirs []components.Dir) components.Dir {
	return dirs[env.Rand.Intn(len(dirs))]
}
