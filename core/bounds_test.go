package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingSphere(t *testing.T) {
	points := []mgl64.Vec3{{-1, 0, 0}, {3, 0, 0}, {1, 1, -2}}

	center, radius := BoundingSphere(points)

	assert.Equal(t, mgl64.Vec3{1, 0.5, -1}, center)
	// farthest point from the box center
	assert.InDelta(t, mgl64.Vec3{2, -0.5, 1}.Len(), radius, 1e-12)
}

func TestBoundingSphereEmpty(t *testing.T) {
	center, radius := BoundingSphere(nil)
	assert.Equal(t, mgl64.Vec3{}, center)
	assert.Equal(t, 1.0, radius)
}

func TestLowestWorldZ(t *testing.T) {
	points := []mgl64.Vec3{{0, 0, 1}, {0, 0, -2}, {5, 5, 0}}

	assert.Equal(t, -2.0, LowestWorldZ(points, mgl64.Ident4()))
	assert.Equal(t, 1.0, LowestWorldZ(points, mgl64.Translate3D(0, 0, 3)))
	assert.Equal(t, 0.0, LowestWorldZ(nil, mgl64.Ident4()))
}

func TestMeshRecentered(t *testing.T) {
	m, err := NewMesh("box", []mgl64.Vec3{{2, 2, 2}, {4, 2, 2}, {4, 6, 10}})
	require.NoError(t, err)

	centered, offset := m.Recentered()

	assert.Equal(t, mgl64.Vec3{3, 4, 6}, offset)
	assert.Equal(t, mgl64.Vec3{}, BoundingBox(centered.Positions()).Center())
	// The source is unchanged
	assert.Equal(t, mgl64.Vec3{2, 2, 2}, m.Positions()[0])
}

func TestNewMeshValidates(t *testing.T) {
	_, err := NewMesh("partial", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}})
	assert.Error(t, err)

	_, err = NewMesh("nan", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, math.NaN(), 0}})
	assert.Error(t, err)
}

func TestVertexNormalsPointOutward(t *testing.T) {
	positions := Icosphere(1, 2).Positions()

	normals := VertexNormals(positions)

	require.Len(t, normals, len(positions))
	for i := 0; i < len(positions); i += 3 {
		centroid := positions[i].Add(positions[i+1]).Add(positions[i+2]).Mul(1.0 / 3)
		assert.InDelta(t, 1, normals[i].Len(), 1e-12)
		assert.Greater(t, normals[i].Dot(centroid), 0.0)
		assert.Equal(t, normals[i], normals[i+2])
	}
}

func TestVertexNormalsDegenerateFacet(t *testing.T) {
	normals := VertexNormals([]mgl64.Vec3{{1, 1, 1}, {1, 1, 1}, {2, 2, 2}})
	assert.Equal(t, []mgl64.Vec3{{}, {}, {}}, normals)
}

func TestIcosphereOnRadius(t *testing.T) {
	m := Icosphere(1, 2.5)

	assert.Equal(t, 80, m.TriangleCount())
	for _, p := range m.Positions() {
		assert.InDelta(t, 2.5, p.Len(), 1e-12)
	}
}
