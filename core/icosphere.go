package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Icosphere builds a subdivided icosahedron of the given radius centered on
// the origin and returns it as a triangle soup. It is the built-in model used
// when no STL is available.
func Icosphere(subdivisions int, radius float64) *Mesh {
	// Golden ratio
	t := (1.0 + math.Sqrt(5.0)) / 2.0

	vertices := []mgl64.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}

	indices := []int32{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}

	for i := 0; i < subdivisions; i++ {
		vertices, indices = subdivide(vertices, indices)
	}

	soup := make([]mgl64.Vec3, len(indices))
	for i, idx := range indices {
		soup[i] = vertices[idx].Normalize().Mul(radius)
	}
	return &Mesh{Name: fmt.Sprintf("icosphere-%d", subdivisions), positions: soup}
}

// subdivide splits every face into four, sharing edge midpoints
func subdivide(vertices []mgl64.Vec3, indices []int32) ([]mgl64.Vec3, []int32) {
	midpoints := make(map[[2]int32]int32)
	newVertices := make([]mgl64.Vec3, len(vertices), len(vertices)*4)
	copy(newVertices, vertices)
	newIndices := make([]int32, 0, len(indices)*4)

	getMidpoint := func(i1, i2 int32) int32 {
		key := [2]int32{i1, i2}
		if i1 > i2 {
			key = [2]int32{i2, i1}
		}
		if mid, exists := midpoints[key]; exists {
			return mid
		}
		newVertices = append(newVertices, vertices[i1].Add(vertices[i2]).Mul(0.5))
		midpoints[key] = int32(len(newVertices) - 1)
		return midpoints[key]
	}

	for i := 0; i < len(indices); i += 3 {
		v1, v2, v3 := indices[i], indices[i+1], indices[i+2]
		m1 := getMidpoint(v1, v2)
		m2 := getMidpoint(v2, v3)
		m3 := getMidpoint(v3, v1)

		newIndices = append(newIndices, v1, m1, m3, v2, m2, m1, v3, m3, m2, m1, m2, m3)
	}

	return newVertices, newIndices
}
