package materials

import (
	"fmt"

	"github.com/pthm-cable/powder/config"
)

// Transition is a temperature-driven change of kind.
type Transition struct {
	To       Kind
	Above    float64
	Below    float64
	HasAbove bool
	HasBelow bool
	Chance   float64 // 0 = always
}

// Triggered reports whether temperature t satisfies the thresholds.
func (tr Transition) Triggered(t float64) bool {
	if tr.HasAbove && t > tr.Above {
		return true
	}
	if tr.HasBelow && t < tr.Below {
		return true
	}
	return false
}

// Props holds the static properties of one kind.
type Props struct {
	Kind         Kind
	Phase        Phase
	Weight       float64
	HeatCapacity float64
	Static       bool // Never moved by the resolver
	LightSource  bool
	Conductive   bool
	Explosive    bool
	HeatSource   bool
	Ignition     float64 // 0 = not flammable

	Temperature    float64 // Initial temperature when HasTemperature
	HasTemperature bool
	Lifetime       int32 // Frames, 0 = unlimited

	Transitions []Transition
}

// Flammable reports whether the kind can catch fire.
func (p *Props) Flammable() bool {
	return p.Ignition > 0
}

// Table maps kinds to their properties. Kinds without an entry
// read as neutral (weight 1, heat capacity 1, powder).
type Table struct {
	props   [NumKinds]Props
	defined [NumKinds]bool
}

// NewTable builds a table from config material entries.
func NewTable(entries []config.MaterialConfig) (*Table, error) {
	t := &Table{}
	for k := range t.props {
		t.props[k] = neutral(Kind(k))
	}

	for _, m := range entries {
		kind, ok := Parse(m.Name)
		if !ok || kind == None {
			return nil, fmt.Errorf("material %q: unknown kind", m.Name)
		}
		phase, ok := ParsePhase(m.Phase)
		if !ok {
			return nil, fmt.Errorf("material %q: unknown phase %q", m.Name, m.Phase)
		}

		p := Props{
			Kind:         kind,
			Phase:        phase,
			Weight:       m.Weight,
			HeatCapacity: m.HeatCapacity,
			Static:       m.Static,
			LightSource:  m.LightSource,
			Conductive:   m.Conductive,
			Explosive:    m.Explosive,
			HeatSource:   m.HeatSource,
			Ignition:     m.Ignition,
			Lifetime:     int32(m.Lifetime),
		}
		if m.Temperature != nil {
			p.Temperature = *m.Temperature
			p.HasTemperature = true
		}
		for _, tc := range m.Transitions {
			to, ok := Parse(tc.To)
			if !ok || to == None {
				return nil, fmt.Errorf("material %q: transition to unknown kind %q", m.Name, tc.To)
			}
			tr := Transition{To: to, Chance: tc.Chance}
			if tc.Above != nil {
				tr.Above, tr.HasAbove = *tc.Above, true
			}
			if tc.Below != nil {
				tr.Below, tr.HasBelow = *tc.Below, true
			}
			p.Transitions = append(p.Transitions, tr)
		}
		t.Define(p)
	}

	// Borders are immovable regardless of what the table says
	t.props[Border].Static = true
	return t, nil
}

// NewNeutralTable returns a table where every kind has neutral properties.
func NewNeutralTable() *Table {
	t := &Table{}
	for k := range t.props {
		t.props[k] = neutral(Kind(k))
	}
	t.props[Border].Static = true
	t.props[Border].Weight = 1000
	return t
}

func neutral(k Kind) Props {
	return Props{Kind: k, Phase: Powder, Weight: 1, HeatCapacity: 1}
}

// Define sets the properties for p.Kind, replacing any previous entry.
func (t *Table) Define(p Props) {
	if p.Kind >= NumKinds {
		return
	}
	if p.Weight == 0 {
		p.Weight = 1
	}
	if p.HeatCapacity == 0 {
		p.HeatCapacity = 1
	}
	t.props[p.Kind] = p
	t.defined[p.Kind] = true
}

// Defined reports whether the kind came from an explicit entry.
func (t *Table) Defined(k Kind) bool {
	return k < NumKinds && t.defined[k]
}

// Props returns the properties of k. The result must not be modified.
func (t *Table) Props(k Kind) *Props {
	if k >= NumKinds {
		k = None
	}
	return &t.props[k]
}

// Weight returns the displacement weight of k.
func (t *Table) Weight(k Kind) float64 {
	return t.Props(k).Weight
}

// HeatCapacity returns the heat capacity of k.
func (t *Table) HeatCapacity(k Kind) float64 {
	return t.Props(k).HeatCapacity
}

// IsStatic reports whether k never moves.
func (t *Table) IsStatic(k Kind) bool {
	return t.Props(k).Static
}
