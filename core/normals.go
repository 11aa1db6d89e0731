package core

import "github.com/go-gl/mathgl/mgl64"

// VertexNormals returns one unit normal per vertex of a triangle soup. Every
// vertex of a facet gets the facet normal (counter-clockwise winding);
// degenerate facets get a zero normal.
func VertexNormals(positions []mgl64.Vec3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(positions))
	VertexNormalsInto(out, positions)
	return out
}

// VertexNormalsInto is VertexNormals writing into dst
func VertexNormalsInto(dst, positions []mgl64.Vec3) {
	n := len(positions) - len(positions)%3
	for i := 0; i < n; i += 3 {
		a, b, c := positions[i], positions[i+1], positions[i+2]
		fn := b.Sub(a).Cross(c.Sub(a))
		if l := fn.Len(); l > 0 {
			fn = fn.Mul(1 / l)
		} else {
			fn = mgl64.Vec3{}
		}
		dst[i], dst[i+1], dst[i+2] = fn, fn, fn
	}
	for i := n; i < len(positions); i++ {
		dst[i] = mgl64.Vec3{}
	}
}
