package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// singularRatio is the lower bound on |det| relative to the product of the
// basis column lengths. Below it the transform is treated as non-invertible.
const singularRatio = 1e-12

// ClampToPlane keeps positions (local frame) from dropping below the world
// plane z = planeZ. Each vertex is taken to world space with world; if its
// world Z is below the plane it is raised onto the plane, X and Y kept, and
// mapped back with the inverse transform. Vertices on or above the plane are
// left untouched. It returns how many vertices were moved.
//
// A singular or non-finite world transform returns ErrSingularTransform and
// leaves positions unchanged.
func ClampToPlane(positions []mgl64.Vec3, world mgl64.Mat4, planeZ float64) (int, error) {
	inv, err := invertTransform(world)
	if err != nil {
		return 0, err
	}

	moved := 0
	for i, p := range positions {
		w := mgl64.TransformCoordinate(p, world)
		if !(w[2] < planeZ) {
			continue
		}
		w[2] = planeZ
		positions[i] = mgl64.TransformCoordinate(w, inv)
		moved++
	}
	return moved, nil
}

func invertTransform(m mgl64.Mat4) (mgl64.Mat4, error) {
	if !finiteMat(m) {
		return mgl64.Mat4{}, ErrSingularTransform
	}
	scale := m.Col(0).Vec3().Len() * m.Col(1).Vec3().Len() * m.Col(2).Vec3().Len()
	det := m.Det()
	if scale == 0 || math.Abs(det) <= singularRatio*scale {
		return mgl64.Mat4{}, ErrSingularTransform
	}
	inv := m.Inv()
	if !finiteMat(inv) {
		return mgl64.Mat4{}, ErrSingularTransform
	}
	return inv, nil
}
