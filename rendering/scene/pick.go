package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half line in world space
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3 // unit length
}

// ScreenRay builds the world space ray under the cursor at (x, y) pixels
// in a width x height viewport.
func ScreenRay(x, y float64, width, height int, view, proj mgl32.Mat4) Ray {
	// Convert screen coordinates to NDC
	nx := 2*x/float64(width) - 1
	ny := 1 - 2*y/float64(height)

	invViewProj := mat4To64(proj.Mul4(view)).Inv()
	near := invViewProj.Mul4x1(mgl64.Vec4{nx, ny, -1, 1})
	far := invViewProj.Mul4x1(mgl64.Vec4{nx, ny, 1, 1})
	near = near.Mul(1 / near[3])
	far = far.Mul(1 / far[3])

	origin := near.Vec3()
	return Ray{Origin: origin, Dir: far.Vec3().Sub(origin).Normalize()}
}

// PickTriangle intersects r with a triangle soup drawn with the model
// matrix and returns the closest hit in the soup's local frame.
func PickTriangle(r Ray, positions []mgl64.Vec3, model mgl64.Mat4) (mgl64.Vec3, bool) {
	if math.Abs(model.Det()) < 1e-12 {
		return mgl64.Vec3{}, false
	}
	inv := model.Inv()
	origin := mgl64.TransformCoordinate(r.Origin, inv)
	dir := mgl64.TransformNormal(r.Dir, inv)

	best := math.Inf(1)
	for i := 0; i+2 < len(positions); i += 3 {
		t, ok := intersect(origin, dir, positions[i], positions[i+1], positions[i+2])
		if ok && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return mgl64.Vec3{}, false
	}
	return origin.Add(dir.Mul(best)), true
}

// intersect is the Moller-Trumbore ray/triangle test, both faces
func intersect(origin, dir, a, b, c mgl64.Vec3) (float64, bool) {
	const eps = 1e-12
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det
	s := origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= eps {
		return 0, false
	}
	return t, true
}

func mat4To64(m mgl32.Mat4) mgl64.Mat4 {
	var out mgl64.Mat4
	for i, v := range m {
		out[i] = float64(v)
	}
	return out
}

// Mat4To32 narrows a transform for upload to the GPU
func Mat4To32(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
