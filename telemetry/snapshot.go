package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/materials"
	"github.com/pthm-cable/powder/points"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`
	Frame   int32 `json:"frame"`

	Width  int `json:"width"`
	Height int `json:"height"`

	BaseTemperature float64 `json:"base_temperature"`
	Processing      bool    `json:"processing"`

	Points []PointState `json:"points"`

	// Row-major temperature cells; empty when not captured
	Field []float64 `json:"field,omitempty"`
}

// PointState is the JSON form of one point. Optional data fields are
// omitted when unset.
type PointState struct {
	ID   uint32         `json:"id"`
	X    int            `json:"x"`
	Y    int            `json:"y"`
	VX   float64        `json:"vx,omitempty"`
	VY   float64        `json:"vy,omitempty"`
	Kind materials.Kind `json:"kind"`

	Temperature *float64        `json:"temperature,omitempty"`
	Charge      *float64        `json:"charge,omitempty"`
	Cooldown    *int32          `json:"cooldown,omitempty"`
	Lifetime    *int32          `json:"lifetime,omitempty"`
	Energy      *float64        `json:"energy,omitempty"`
	Heading     *[2]int         `json:"heading,omitempty"`
	CloneKind   *materials.Kind `json:"clone_kind,omitempty"`
	Link        uint32          `json:"link,omitempty"` // ID of the next worm segment
}

// NewPointState converts a store record to its JSON form.
func NewPointState(r points.Record) PointState {
	ps := PointState{
		ID:   r.ID,
		X:    r.X,
		Y:    r.Y,
		VX:   r.VX,
		VY:   r.VY,
		Kind: r.Kind,
		Link: r.LinkID,
	}
	d := r.Data
	if d.Has(components.FieldTemperature) {
		ps.Temperature = &d.Temperature
	}
	if d.Has(components.FieldCharge) {
		ps.Charge = &d.Charge
	}
	if d.Has(components.FieldCooldown) {
		ps.Cooldown = &d.Cooldown
	}
	if d.Has(components.FieldLifetime) {
		ps.Lifetime = &d.Lifetime
	}
	if d.Has(components.FieldEnergy) {
		ps.Energy = &d.Energy
	}
	if d.Has(components.FieldHeading) {
		ps.Heading = &[2]int{d.Heading.X, d.Heading.Y}
	}
	if d.Has(components.FieldCloneKind) {
		ps.CloneKind = &d.CloneKind
	}
	return ps
}

// Record converts the JSON form back to a store record.
func (ps PointState) Record() points.Record {
	r := points.Record{
		ID:     ps.ID,
		X:      ps.X,
		Y:      ps.Y,
		VX:     ps.VX,
		VY:     ps.VY,
		Kind:   ps.Kind,
		LinkID: ps.Link,
	}
	d := &r.Data
	if ps.Temperature != nil {
		d.SetTemperature(*ps.Temperature)
	}
	if ps.Charge != nil {
		d.SetCharge(*ps.Charge)
	}
	if ps.Cooldown != nil {
		d.SetCooldown(*ps.Cooldown)
	}
	if ps.Lifetime != nil {
		d.SetLifetime(*ps.Lifetime)
	}
	if ps.Energy != nil {
		d.SetEnergy(*ps.Energy)
	}
	if ps.Heading != nil {
		d.SetHeading(components.Dir{X: ps.Heading[0], Y: ps.Heading[1]})
	}
	if ps.CloneKind != nil {
		d.SetCloneKind(*ps.CloneKind)
	}
	return r
}

// Records converts every point in the snapshot to store records.
func (s *Snapshot) Records() []points.Record {
	out := make([]points.Record, len(s.Points))
	for i, ps := range s.Points {
		out[i] = ps.Record()
	}
	return out
}

// Validate reports structural problems that make the snapshot unusable.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid snapshot dimensions %dx%d", s.Width, s.Height)
	}
	if len(s.Field) != 0 && len(s.Field) != s.Width*s.Height {
		return fmt.Errorf("temperature field has %d cells, want %d", len(s.Field), s.Width*s.Height)
	}
	for i, ps := range s.Points {
		if ps.Kind == materials.None || ps.Kind == materials.Border {
			return fmt.Errorf("point %d: kind %v cannot be stored", i, ps.Kind)
		}
	}
	return nil
}

// SaveSnapshot writes a snapshot into dir as snapshot_<frame>.json and
// returns the file path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Frame))
	if err := WriteSnapshot(snapshot, path); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSnapshot writes a snapshot to path, replacing the file atomically.
func WriteSnapshot(snapshot *Snapshot, path string) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads and validates a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("validate snapshot: %w", err)
	}
	return &snapshot, nil
}
