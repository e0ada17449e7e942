// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid        GridConfig        `yaml:"grid"`
	Frame       FrameConfig       `yaml:"frame"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Movement    MovementConfig    `yaml:"movement"`
	Temperature TemperatureConfig `yaml:"temperature"`
	Electricity ElectricityConfig `yaml:"electricity"`
	Explosion   ExplosionConfig   `yaml:"explosion"`
	Behaviour   BehaviourConfig   `yaml:"behaviour"`
	Agents      AgentsConfig      `yaml:"agents"`
	Random      RandomConfig      `yaml:"random"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Scene       SceneConfig       `yaml:"scene"`
	Materials   []MaterialConfig  `yaml:"materials"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the playable area dimensions in cells.
// Border points occupy the ring just outside this rectangle.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// FrameConfig holds frame loop pacing.
type FrameConfig struct {
	TargetFPS int `yaml:"target_fps"` // 0 = run unthrottled
	MaxFrames int `yaml:"max_frames"` // 0 = unlimited
}

// PhysicsConfig holds the universal force parameters.
type PhysicsConfig struct {
	Gravity        float64 `yaml:"gravity"`         // Added to vy each frame
	Lift           float64 `yaml:"lift"`            // Subtracted from vy each frame for gases
	MaxSpeed       float64 `yaml:"max_speed"`       // Velocity magnitude cap
	AirFriction    float64 `yaml:"air_friction"`    // Fraction of velocity lost per frame
	DrowningChance float64 `yaml:"drowning_chance"` // Chance a lighter point rises through a heavier fluid
}

// MovementConfig holds movement resolver parameters.
type MovementConfig struct {
	DisplaceNudge float64 `yaml:"displace_nudge"` // Velocity given to a displaced point, opposite the mover
	SlotDamping   float64 `yaml:"slot_damping"`   // Speed factor applied on slot redirection
}

// TemperatureConfig holds temperature field parameters.
type TemperatureConfig struct {
	Base            float64 `yaml:"base"`              // Ambient temperature and default for unset points
	DiffusionRate   float64 `yaml:"diffusion_rate"`    // Fraction moved toward the neighbour average
	AirLoss         float64 `yaml:"air_loss"`          // Fraction empty cells relax toward ambient
	DiagonalWeight  float64 `yaml:"diagonal_weight"`   // Weight of diagonal neighbours (cardinal = 1)
	QuadTree        bool    `yaml:"quadtree"`          // Use the region quad-tree stepper
	QuadTreeMinCell int     `yaml:"quadtree_min_cell"` // Smallest leaf edge in cells
}

// ElectricityConfig holds charge routing parameters.
type ElectricityConfig struct {
	Charge        float64 `yaml:"charge"`          // Charge a spark delivers to metal
	Decay         float64 `yaml:"decay"`           // Fraction of charge lost per hop
	MinCharge     float64 `yaml:"min_charge"`      // Below this a charge dissipates
	Cooldown      int     `yaml:"cooldown"`        // Frames a conductor refuses charge after passing it on
	HeatPerCharge float64 `yaml:"heat_per_charge"` // Temperature added per unit of charge carried
}

// ExplosionConfig holds explosion propagation parameters.
type ExplosionConfig struct {
	Force         float64 `yaml:"force"`          // Base impulse
	Depth         int     `yaml:"depth"`          // Recursion depth
	Jitter        float64 `yaml:"jitter"`         // Random impulse spread, 0..1
	ConvertChance float64 `yaml:"convert_chance"` // Chance a flammable neighbour catches fire on impact
}

// BehaviourConfig holds type-specific rule parameters.
type BehaviourConfig struct {
	FireSpreadChance  float64 `yaml:"fire_spread_chance"`
	SmokeChance       float64 `yaml:"smoke_chance"`
	AcidChance        float64 `yaml:"acid_chance"`
	AcidStrength      float64 `yaml:"acid_strength"` // Points an acid particle can dissolve
	VirusChance       float64 `yaml:"virus_chance"`
	PlantGrowChance   float64 `yaml:"plant_grow_chance"`
	PlantWaterEnergy  float64 `yaml:"plant_water_energy"` // Energy gained per absorbed water point
	PlantGrowthCost   float64 `yaml:"plant_growth_cost"`
	ClonerChance      float64 `yaml:"cloner_chance"`
	QuenchTemperature float64 `yaml:"quench_temperature"` // Temperature water brings fire down to
}

// AgentsConfig holds ant and worm parameters.
type AgentsConfig struct {
	AntInterval    int     `yaml:"ant_interval"`  // Frames between ant steps
	WormInterval   int     `yaml:"worm_interval"` // Frames between worm steps
	WormTurnChance float64 `yaml:"worm_turn_chance"`
	WormLength     int     `yaml:"worm_length"` // Segments including the head
}

// RandomConfig holds randomness service parameters.
type RandomConfig struct {
	Seed     int64 `yaml:"seed"`      // 0 = time-based
	PoolSize int   `yaml:"pool_size"` // Buffered draws; 0 disables the background refill
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // Frames per stats window
	PerfWindow  int `yaml:"perf_window"`  // Frames averaged by the perf collector
}

// PersistenceConfig holds snapshot parameters.
type PersistenceConfig struct {
	AutosaveFrames int    `yaml:"autosave_frames"` // 0 disables autosave
	Dir            string `yaml:"dir"`
}

// SceneConfig holds procedural scene parameters.
type SceneConfig struct {
	Name      string  `yaml:"name"` // empty, "dunes", "lake" or "volcano"
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int32   `yaml:"octaves"`
	Scale     float64 `yaml:"scale"`     // Noise frequency across the width
	Roughness float64 `yaml:"roughness"` // Height amplitude as a fraction of grid height
	Veins     float64 `yaml:"veins"`     // Metal vein half-width in simplex noise units, 0 = none
}

// MaterialConfig describes one particle kind.
type MaterialConfig struct {
	Name         string             `yaml:"name"`
	Phase        string             `yaml:"phase"` // solid, powder, liquid, gas, agent, energy
	Weight       float64            `yaml:"weight"`
	HeatCapacity float64            `yaml:"heat_capacity"`
	Static       bool               `yaml:"static"`
	LightSource  bool               `yaml:"light_source"`
	Conductive   bool               `yaml:"conductive"`
	Explosive    bool               `yaml:"explosive"`
	HeatSource   bool               `yaml:"heat_source"` // Holds its temperature every frame
	Ignition     float64            `yaml:"ignition"`    // 0 = not flammable
	Temperature  *float64           `yaml:"temperature"` // Initial temperature, nil = ambient
	Lifetime     int                `yaml:"lifetime"`    // Frames, 0 = unlimited
	Transitions  []TransitionConfig `yaml:"transitions"`
}

// TransitionConfig describes a temperature-driven change of kind.
type TransitionConfig struct {
	To     string   `yaml:"to"`
	Above  *float64 `yaml:"above"`
	Below  *float64 `yaml:"below"`
	Chance float64  `yaml:"chance"` // 0 = always
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FrameInterval time.Duration  // 1/TargetFPS, 0 when unthrottled
	MaterialIndex map[string]int // name -> index into Materials
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
// A materials list in the file replaces the default table entirely.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	if c.Frame.TargetFPS > 0 {
		c.Derived.FrameInterval = time.Second / time.Duration(c.Frame.TargetFPS)
	} else {
		c.Derived.FrameInterval = 0
	}

	if c.Temperature.QuadTreeMinCell < 1 {
		c.Temperature.QuadTreeMinCell = 1
	}
	if c.Agents.WormLength < 1 {
		c.Agents.WormLength = 1
	}

	c.Derived.MaterialIndex = make(map[string]int, len(c.Materials))
	for i := range c.Materials {
		m := &c.Materials[i]
		if m.Name == "" {
			return fmt.Errorf("material %d: missing name", i)
		}
		if _, dup := c.Derived.MaterialIndex[m.Name]; dup {
			return fmt.Errorf("material %q: defined twice", m.Name)
		}
		// Unset table entries fall back to neutral values
		if m.Weight == 0 {
			m.Weight = 1
		}
		if m.HeatCapacity == 0 {
			m.HeatCapacity = 1
		}
		c.Derived.MaterialIndex[m.Name] = i
	}
	return nil
}

// Material returns the material entry with the given name.
func (c *Config) Material(name string) (*MaterialConfig, bool) {
	i, ok := c.Derived.MaterialIndex[name]
	if !ok {
		return nil, false
	}
	return &c.Materials[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
