package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"inflate3d/core"
)

// Action is a viewer command, independent of the key that triggers it
type Action int

const (
	ActionNone Action = iota
	ActionStrengthUp
	ActionStrengthDown
	ActionStrengthZero
	ActionToggleClamp
	ActionReset
	ActionExport
	ActionCenterXNeg
	ActionCenterXPos
	ActionCenterYNeg
	ActionCenterYPos
	ActionCenterZNeg
	ActionCenterZPos
	ActionRotateZ
	ActionRotateZBack
	ActionRotateX
	ActionRotateXBack
	ActionQuit
)

var centerSteps = map[Action]mgl64.Vec3{
	ActionCenterXNeg: {-1, 0, 0},
	ActionCenterXPos: {1, 0, 0},
	ActionCenterYNeg: {0, -1, 0},
	ActionCenterYPos: {0, 1, 0},
	ActionCenterZNeg: {0, 0, -1},
	ActionCenterZPos: {0, 0, 1},
}

// Bindings turns actions into session events
type Bindings struct {
	StrengthStep float64 // per press
	CenterStep   float64 // fraction of the bounding radius per press
	RotateStep   float64 // degrees per press
}

// DefaultBindings mirrors the defaults of the [viewer] config section
func DefaultBindings() Bindings {
	return Bindings{StrengthStep: 0.05, CenterStep: 0.05, RotateStep: 15}
}

// Event returns the session event for a, given the currently displayed
// frame. ok is false for actions the host handles itself (export, quit)
// and for everything while nothing is loaded.
func (b Bindings) Event(a Action, f core.Frame) (core.Event, bool) {
	if !f.Loaded {
		return nil, false
	}
	p := f.Params

	switch a {
	case ActionStrengthUp:
		return core.StrengthEvent{Value: p.Strength + b.StrengthStep}, true
	case ActionStrengthDown:
		return core.StrengthEvent{Value: p.Strength - b.StrengthStep}, true
	case ActionStrengthZero:
		return core.StrengthEvent{Value: 0}, true
	case ActionToggleClamp:
		return core.ClampEvent{Enabled: !p.Clamp}, true
	case ActionReset:
		return core.ResetEvent{}, true
	case ActionRotateZ, ActionRotateZBack, ActionRotateX, ActionRotateXBack:
		return core.TransformEvent{Matrix: p.Transform.Mul4(b.rotation(a))}, true
	}

	if dir, ok := centerSteps[a]; ok {
		step := b.CenterStep * f.Radius
		return core.CenterEvent{Point: f.Center.Add(dir.Mul(step))}, true
	}
	return nil, false
}

func (b Bindings) rotation(a Action) mgl64.Mat4 {
	angle := mgl64.DegToRad(b.RotateStep)
	switch a {
	case ActionRotateZ:
		return mgl64.HomogRotate3DZ(angle)
	case ActionRotateZBack:
		return mgl64.HomogRotate3DZ(-angle)
	case ActionRotateX:
		return mgl64.HomogRotate3DX(angle)
	default:
		return mgl64.HomogRotate3DX(-angle)
	}
}
