// Package components defines ECS components for simulation points.
package components

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/powder/materials"
)

// Position is a point's integer grid cell.
// Only the point store may write it, so the spatial index stays consistent.
type Position struct {
	X, Y int
}

// Add returns the position offset by d.
func (p Position) Add(d Dir) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Velocity is a point's continuous velocity in cells per frame.
type Velocity struct {
	X, Y float64
}

// Material holds the point's kind.
type Material struct {
	Kind materials.Kind
}

// Activity holds bookkeeping used for dirty tracking.
type Activity struct {
	ID          uint32 // Stable across snapshots, unlike entity handles
	MovedAt     int32  // Frame of the last move, -1 if never
	ActiveSince int32  // Frame the point or a neighbour last changed
}

// Visual holds interpolated render coordinates. Optional.
type Visual struct {
	X, Y float64
}

// Dir is a step on the grid, each axis in {-1, 0, 1}.
type Dir struct {
	X, Y int
}

// Common directions. Y grows downward.
var (
	Up        = Dir{0, -1}
	Down      = Dir{0, 1}
	Left      = Dir{-1, 0}
	Right     = Dir{1, 0}
	UpLeft    = Dir{-1, -1}
	UpRight   = Dir{1, -1}
	DownLeft  = Dir{-1, 1}
	DownRight = Dir{1, 1}
)

// Neighbourhood lists the 8 Chebyshev neighbours in row-major order.
var Neighbourhood = [8]Dir{
	UpLeft, Up, UpRight,
	Left, Right,
	DownLeft, Down, DownRight,
}

// Neg returns the opposite direction.
func (d Dir) Neg() Dir {
	return Dir{X: -d.X, Y: -d.Y}
}

// IsZero reports whether d is no step at all.
func (d Dir) IsZero() bool {
	return d.X == 0 && d.Y == 0
}

// Diagonal reports whether d moves on both axes.
func (d Dir) Diagonal() bool {
	return d.X != 0 && d.Y != 0
}

// Field marks which optional Data fields are set.
type Field uint16

const (
	FieldTemperature Field = 1 << iota
	FieldCharge
	FieldCooldown
	FieldLifetime
	FieldEnergy
	FieldHeading
	FieldCloneKind
	FieldLink
)

// Data holds the optional per-point state read by individual rules.
// A field is meaningful only while its bit is set in Fields.
type Data struct {
	Fields Field

	Temperature float64        // Thermal rules, temperature field
	Charge      float64        // Electricity
	Cooldown    int32          // Electricity refractory frames
	Lifetime    int32          // Frames left for expiring kinds
	Energy      float64        // Acid strength, plant growth budget
	Heading     Dir            // Agent previous direction
	CloneKind   materials.Kind // Cloner source kind
	Link        ecs.Entity     // Worm: next body segment
}

// Has reports whether field f is set.
func (d *Data) Has(f Field) bool {
	return d.Fields&f != 0
}

// Clear unsets field f.
func (d *Data) Clear(f Field) {
	d.Fields &^= f
}

// TemperatureOr returns the temperature, or def if unset.
func (d *Data) TemperatureOr(def float64) float64 {
	if d.Has(FieldTemperature) {
		return d.Temperature
	}
	return def
}

// SetTemperature sets the temperature field.
func (d *Data) SetTemperature(t float64) {
	d.Temperature = t
	d.Fields |= FieldTemperature
}

// SetCharge sets the charge field.
func (d *Data) SetCharge(c float64) {
	d.Charge = c
	d.Fields |= FieldCharge
}

// SetCooldown sets the cooldown field.
func (d *Data) SetCooldown(frames int32) {
	d.Cooldown = frames
	d.Fields |= FieldCooldown
}

// SetLifetime sets the lifetime field.
func (d *Data) SetLifetime(frames int32) {
	d.Lifetime = frames
	d.Fields |= FieldLifetime
}

// SetEnergy sets the energy field.
func (d *Data) SetEnergy(e float64) {
	d.Energy = e
	d.Fields |= FieldEnergy
}

// SetHeading sets the heading field.
func (d *Data) SetHeading(h Dir) {
	d.Heading = h
	d.Fields |= FieldHeading
}

// SetCloneKind sets the clone source field.
func (d *Data) SetCloneKind(k materials.Kind) {
	d.CloneKind = k
	d.Fields |= FieldCloneKind
}

// SetLink sets the chain successor field.
func (d *Data) SetLink(e ecs.Entity) {
	d.Link = e
	d.Fields |= FieldLink
}
