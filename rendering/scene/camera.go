// Package scene holds the GL-free parts of the native viewer: the orbit
// camera, picking, helper geometry and key bindings.
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	fovDegrees    = 50
	distanceScale = 1.6
	maxPitch      = 1.5
)

// Orbit is a Z-up orbit camera looking at Target
type Orbit struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32 // around Z, radians; 0 looks from -Y
	Pitch    float32 // above the XY plane, radians

	MinDistance, MaxDistance float32
	Near, Far                float32
}

// NewOrbit returns a camera framing a unit sized model
func NewOrbit() *Orbit {
	o := &Orbit{}
	o.Frame(mgl32.Vec3{}, 1)
	return o
}

// Frame points the camera at target from a gentle angle, far enough away
// for a model whose largest bounding box side is maxDim.
func (o *Orbit) Frame(target mgl32.Vec3, maxDim float32) {
	if !(maxDim > 0) || math.IsInf(float64(maxDim), 0) {
		maxDim = 1
	}
	fov := mgl32.DegToRad(fovDegrees)
	base := maxDim / (2 * float32(math.Tan(float64(fov/2))))

	o.Target = target
	o.Distance = base * distanceScale
	o.Yaw = mgl32.DegToRad(30)
	o.Pitch = mgl32.DegToRad(20)
	o.Near = max(0.001, o.Distance/1000)
	o.Far = o.Distance * 100
	o.MinDistance = max(0.001, maxDim*0.02)
	o.MaxDistance = max(10, maxDim*50)
}

// Eye returns the camera position
func (o *Orbit) Eye() mgl32.Vec3 {
	sy, cy := math.Sincos(float64(o.Yaw))
	sp, cp := math.Sincos(float64(o.Pitch))
	horiz := float32(cp) * o.Distance
	offset := mgl32.Vec3{
		float32(sy) * horiz,
		-float32(cy) * horiz,
		float32(sp) * o.Distance,
	}
	return o.Target.Add(offset)
}

// View returns the view matrix
func (o *Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(o.Eye(), o.Target, mgl32.Vec3{0, 0, 1})
}

// Projection returns the perspective matrix for the given aspect ratio
func (o *Orbit) Projection(aspect float32) mgl32.Mat4 {
	if !(aspect > 0) {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(fovDegrees), aspect, o.Near, o.Far)
}

// Drag rotates the camera by a mouse movement in pixels
func (o *Orbit) Drag(dx, dy float32) {
	const sensitivity = 0.008
	o.Yaw -= dx * sensitivity
	o.Pitch += dy * sensitivity
	o.Pitch = mgl32.Clamp(o.Pitch, -maxPitch, maxPitch)
}

// Zoom moves the camera towards the target for positive steps
func (o *Orbit) Zoom(steps float32) {
	d := o.Distance * (1 - steps*0.1)
	o.Distance = mgl32.Clamp(d, o.MinDistance, o.MaxDistance)
}
