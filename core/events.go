package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Event is one user or host action that may change what the session shows
type Event interface {
	isEvent()
}

// LoadEvent replaces the current mesh. A non-zero Ticket must match the one
// returned by the latest BeginLoad, otherwise the load is stale.
type LoadEvent struct {
	Mesh   *Mesh
	Ticket uint64
}

// ClearEvent unloads the current mesh
type ClearEvent struct{}

// StrengthEvent sets the deformation strength. Out of range values are
// clamped to [-1, 1]; non-finite values are rejected.
type StrengthEvent struct {
	Value float64
}

// CenterEvent moves the deformation center, given in the mesh's local frame
type CenterEvent struct {
	Point mgl64.Vec3
}

// ClampEvent switches the flat base clamp on or off
type ClampEvent struct {
	Enabled bool
}

// TransformEvent replaces the object world transform
type TransformEvent struct {
	Matrix mgl64.Mat4
}

// ResetEvent restores strength 0, clamp off and the identity transform
type ResetEvent struct{}

func (LoadEvent) isEvent()      {}
func (ClearEvent) isEvent()     {}
func (StrengthEvent) isEvent()  {}
func (CenterEvent) isEvent()    {}
func (ClampEvent) isEvent()     {}
func (TransformEvent) isEvent() {}
func (ResetEvent) isEvent()     {}

// SanitizeStrength clamps v into [-1, 1]. ok is false for NaN and infinities,
// which callers should ignore rather than apply.
func SanitizeStrength(v float64) (float64, bool) {
	if !finite(v) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, v)), true
}
