package main

import (
	"github.com/pthm-cable/powder/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Column name in the eval log
	Path    string  // Config path
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters. Defaults
// are read from cfg.
func NewParamVector(cfg *config.Config) *ParamVector {
	ph, mv, tc := cfg.Physics, cfg.Movement, cfg.Temperature
	return &ParamVector{
		Specs: []ParamSpec{
			// Forces
			{Name: "gravity", Path: "physics.gravity", Min: 0.1, Max: 2.0, Default: ph.Gravity},
			{Name: "lift", Path: "physics.lift", Min: 0.05, Max: 1.0, Default: ph.Lift},
			{Name: "max_speed", Path: "physics.max_speed", Min: 1.0, Max: 8.0, Default: ph.MaxSpeed},
			{Name: "air_friction", Path: "physics.air_friction", Min: 0, Max: 0.2, Default: ph.AirFriction},
			{Name: "drowning_chance", Path: "physics.drowning_chance", Min: 0, Max: 0.5, Default: ph.DrowningChance},
			// Collisions
			{Name: "displace_nudge", Path: "movement.displace_nudge", Min: 0, Max: 0.5, Default: mv.DisplaceNudge},
			{Name: "slot_damping", Path: "movement.slot_damping", Min: 0.1, Max: 1.0, Default: mv.SlotDamping},
			// Heat
			{Name: "diffusion_rate", Path: "temperature.diffusion_rate", Min: 0.01, Max: 0.2, Default: tc.DiffusionRate},
			{Name: "air_loss", Path: "temperature.air_loss", Min: 0, Max: 0.05, Default: tc.AirLoss},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize maps raw values to [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize maps [0,1] values back to raw values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp keeps every value within its bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Physics.Gravity = c[0]
	cfg.Physics.Lift = c[1]
	cfg.Physics.MaxSpeed = c[2]
	cfg.Physics.AirFriction = c[3]
	cfg.Physics.DrowningChance = c[4]
	cfg.Movement.DisplaceNudge = c[5]
	cfg.Movement.SlotDamping = c[6]
	cfg.Temperature.DiffusionRate = c[7]
	cfg.Temperature.AirLoss = c[8]
}

// ExtractFromConfig reads the current values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Physics.Gravity,
		cfg.Physics.Lift,
		cfg.Physics.MaxSpeed,
		cfg.Physics.AirFriction,
		cfg.Physics.DrowningChance,
		cfg.Movement.DisplaceNudge,
		cfg.Movement.SlotDamping,
		cfg.Temperature.DiffusionRate,
		cfg.Temperature.AirLoss,
	}
}
