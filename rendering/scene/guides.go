package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

const GridDivisions = 20

// GridSize is the side of the ground grid for a model whose largest bounding
// box side is maxDim
func GridSize(maxDim float64) float64 {
	if !(maxDim > 0) || math.IsInf(maxDim, 0) {
		maxDim = 1
	}
	return math.Max(1, math.Ceil(maxDim*1.5))
}

// GridLines returns line segment endpoints (pairs) for a square XY grid of
// the given size centered on the origin at height z
func GridLines(size float64, divisions int, z float64) []mgl32.Vec3 {
	if divisions < 1 {
		divisions = 1
	}
	half := float32(size / 2)
	step := float32(size) / float32(divisions)
	zf := float32(z)

	lines := make([]mgl32.Vec3, 0, 4*(divisions+1))
	for i := 0; i <= divisions; i++ {
		k := -half + float32(i)*step
		lines = append(lines,
			mgl32.Vec3{k, -half, zf}, mgl32.Vec3{k, half, zf},
			mgl32.Vec3{-half, k, zf}, mgl32.Vec3{half, k, zf},
		)
	}
	return lines
}

// MarkerSize is the half extent of the deformation center marker
func MarkerSize(radius float64) float64 {
	return math.Max(0.01, radius*0.03)
}

// MarkerLines returns a 3D cross at center, as segment pairs
func MarkerLines(center mgl64.Vec3, size float64) []mgl32.Vec3 {
	c := mgl32.Vec3{float32(center[0]), float32(center[1]), float32(center[2])}
	s := float32(size)
	return []mgl32.Vec3{
		c.Sub(mgl32.Vec3{s, 0, 0}), c.Add(mgl32.Vec3{s, 0, 0}),
		c.Sub(mgl32.Vec3{0, s, 0}), c.Add(mgl32.Vec3{0, s, 0}),
		c.Sub(mgl32.Vec3{0, 0, s}), c.Add(mgl32.Vec3{0, 0, s}),
	}
}

// Interleave packs positions and normals as x,y,z,nx,ny,nz float32s for a
// vertex buffer
func Interleave(positions, normals []mgl64.Vec3) []float32 {
	out := make([]float32, 0, len(positions)*6)
	for i, p := range positions {
		var n mgl64.Vec3
		if i < len(normals) {
			n = normals[i]
		}
		out = append(out,
			float32(p[0]), float32(p[1]), float32(p[2]),
			float32(n[0]), float32(n[1]), float32(n[2]))
	}
	return out
}
