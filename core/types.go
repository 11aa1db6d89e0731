package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an immutable triangle soup in the mesh's local frame.
// Every three consecutive positions form one facet.
type Mesh struct {
	Name      string
	positions []mgl64.Vec3
}

// NewMesh copies positions into a new Mesh. The position count must be a
// multiple of three and every coordinate must be finite.
func NewMesh(name string, positions []mgl64.Vec3) (*Mesh, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("mesh %q: %d positions is not a whole number of triangles", name, len(positions))
	}
	for i, p := range positions {
		if !finiteVec(p) {
			return nil, fmt.Errorf("mesh %q: vertex %d is not finite", name, i)
		}
	}
	own := make([]mgl64.Vec3, len(positions))
	copy(own, positions)
	return &Mesh{Name: name, positions: own}, nil
}

// Positions returns a copy of the vertex positions
func (m *Mesh) Positions() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(m.positions))
	copy(out, m.positions)
	return out
}

// VertexCount returns the number of vertices (three per triangle)
func (m *Mesh) VertexCount() int {
	return len(m.positions)
}

// TriangleCount returns the number of facets
func (m *Mesh) TriangleCount() int {
	return len(m.positions) / 3
}

// Recentered returns a copy of the mesh translated so that its bounding box
// center sits on the local origin, along with the offset that was removed.
func (m *Mesh) Recentered() (*Mesh, mgl64.Vec3) {
	if len(m.positions) == 0 {
		return &Mesh{Name: m.Name}, mgl64.Vec3{}
	}
	c := BoundingBox(m.positions).Center()
	out := make([]mgl64.Vec3, len(m.positions))
	for i, p := range m.positions {
		out[i] = p.Sub(c)
	}
	return &Mesh{Name: m.Name, positions: out}, c
}

// Params is the set of user-controlled inputs that a recompute depends on
type Params struct {
	Strength  float64    // -1..1, 0 = no deformation
	Clamp     bool       // flat base on/off
	Transform mgl64.Mat4 // object world transform, column-major
}

// DefaultParams is the state a freshly loaded or reset mesh starts from
func DefaultParams() Params {
	return Params{Transform: mgl64.Ident4()}
}

// Frame is a read-only snapshot of a session for hosts to render or send
type Frame struct {
	Loaded    bool
	Name      string
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	Center    mgl64.Vec3
	Radius    float64
	PlaneZ    float64
	Params    Params
	Status    string
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteVec(v mgl64.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}

func finiteMat(m mgl64.Mat4) bool {
	for _, v := range m {
		if !finite(v) {
			return false
		}
	}
	return true
}
