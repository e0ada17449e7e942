// Package materials defines particle kinds and their static properties.
package materials

import "fmt"

// Kind identifies what a point is made of.
type Kind uint8

const (
	None Kind = iota // Empty cell, never stored
	Border
	Sand
	Water
	Stone
	Ice
	Steam
	Fire
	Smoke
	Wood
	Oil
	Acid
	Lava
	Metal
	Spark
	Gunpowder
	Plant
	Virus
	Cloner
	Ant
	Worm
	WormBody
	Lamp

	NumKinds
)

var kindNames = [NumKinds]string{
	None:      "none",
	Border:    "border",
	Sand:      "sand",
	Water:     "water",
	Stone:     "stone",
	Ice:       "ice",
	Steam:     "steam",
	Fire:      "fire",
	Smoke:     "smoke",
	Wood:      "wood",
	Oil:       "oil",
	Acid:      "acid",
	Lava:      "lava",
	Metal:     "metal",
	Spark:     "spark",
	Gunpowder: "gunpowder",
	Plant:     "plant",
	Virus:     "virus",
	Cloner:    "cloner",
	Ant:       "ant",
	Worm:      "worm",
	WormBody:  "worm_body",
	Lamp:      "lamp",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, NumKinds)
	for k, name := range kindNames {
		m[name] = Kind(k)
	}
	return m
}()

// String returns the config name of the kind.
func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Parse looks up a kind by its config name.
func Parse(name string) (Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k Kind) MarshalText() ([]byte, error) {
	if k >= NumKinds {
		return nil, fmt.Errorf("invalid kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("unknown kind %q", text)
	}
	*k = parsed
	return nil
}

// All returns every storable kind in enumeration order.
func All() []Kind {
	kinds := make([]Kind, 0, NumKinds-1)
	for k := Border; k < NumKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Phase groups kinds by how they move.
type Phase uint8

const (
	Solid Phase = iota
	Powder
	Liquid
	Gas
	Agent
	Energy
)

var phaseNames = map[string]Phase{
	"solid":  Solid,
	"powder": Powder,
	"liquid": Liquid,
	"gas":    Gas,
	"agent":  Agent,
	"energy": Energy,
}

// ParsePhase looks up a phase by its config name. Empty means solid.
func ParsePhase(name string) (Phase, bool) {
	if name == "" {
		return Solid, true
	}
	p, ok := phaseNames[name]
	return p, ok
}

// IsFluid reports whether the phase flows sideways.
func (p Phase) IsFluid() bool {
	return p == Liquid || p == Gas
}
