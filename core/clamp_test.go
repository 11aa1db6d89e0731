package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampIdentityScenario(t *testing.T) {
	positions := []mgl64.Vec3{{0, 0, -2}}

	moved, err := ClampToPlane(positions, mgl64.Ident4(), 0)

	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, positions[0])
}

func TestClampLeavesVerticesAbovePlane(t *testing.T) {
	world := mgl64.Translate3D(0.5, -1, 2).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(35))).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(-70)))
	positions := Icosphere(2, 1).Positions()
	original := make([]mgl64.Vec3, len(positions))
	copy(original, positions)
	planeZ := 1.6

	moved, err := ClampToPlane(positions, world, planeZ)
	require.NoError(t, err)
	require.Greater(t, moved, 0)

	count := 0
	for i, p := range original {
		w := mgl64.TransformCoordinate(p, world)
		if w.Z() >= planeZ {
			// Bit-for-bit untouched
			assert.Equal(t, p, positions[i])
			continue
		}
		count++
		got := mgl64.TransformCoordinate(positions[i], world)
		assert.InDelta(t, planeZ, got.Z(), 1e-9)
		assert.InDelta(t, w.X(), got.X(), 1e-9)
		assert.InDelta(t, w.Y(), got.Y(), 1e-9)
	}
	assert.Equal(t, count, moved)
}

func TestClampIdentityIsExact(t *testing.T) {
	positions := []mgl64.Vec3{{1, 2, -3}, {-4, 0.25, 0.5}, {7, 7, -0.125}, {3, 3, -0.5}, {5, 6, -0.75}}

	moved, err := ClampToPlane(positions, mgl64.Ident4(), -0.5)
	require.NoError(t, err)

	// at or above the plane stays bit for bit
	assert.Equal(t, []mgl64.Vec3{{1, 2, -0.5}, {-4, 0.25, 0.5}, {7, 7, -0.125}, {3, 3, -0.5}, {5, 6, -0.5}}, positions)
	assert.Equal(t, 2, moved)
}

func TestClampFailsClosed(t *testing.T) {
	nan := mgl64.Ident4()
	nan[5] = math.NaN()

	tests := []struct {
		name  string
		world mgl64.Mat4
	}{
		{"flattened z", mgl64.Scale3D(1, 1, 0)},
		{"zero matrix", mgl64.Mat4{}},
		{"not finite", nan},
		{"collapsed columns", mgl64.Mat4{1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			positions := []mgl64.Vec3{{0, 0, -5}, {1, 1, 1}}
			original := append([]mgl64.Vec3(nil), positions...)

			moved, err := ClampToPlane(positions, tc.world, 0)

			assert.ErrorIs(t, err, ErrSingularTransform)
			assert.Zero(t, moved)
			assert.Equal(t, original, positions)
		})
	}
}

func TestClampSmallUniformScaleIsInvertible(t *testing.T) {
	positions := []mgl64.Vec3{{0, 0, -1000}}

	_, err := ClampToPlane(positions, mgl64.Scale3D(1e-4, 1e-4, 1e-4), 0)

	require.NoError(t, err)
	assert.InDelta(t, 0, positions[0].Z(), 1e-9)
}
