package server

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"inflate3d/core"
)

// MeshUpdate is pushed to every websocket client after each change
type MeshUpdate struct {
	Type      string       `json:"type"`
	Loaded    bool         `json:"loaded"`
	Name      string       `json:"name,omitempty"`
	Vertices  [][3]float64 `json:"vertices"`
	Normals   [][3]float64 `json:"normals"`
	Center    [3]float64   `json:"center"`
	Radius    float64      `json:"radius"`
	PlaneZ    float64      `json:"planeZ"`
	Strength  float64      `json:"strength"`
	Clamp     bool         `json:"clamp"`
	Transform [16]float64  `json:"transform"`
	Status    string       `json:"status"`
}

// ErrorMessage is sent to the one client whose request failed
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// State is the summary returned by GET /state and POST /upload
type State struct {
	Loaded    bool       `json:"loaded"`
	Name      string     `json:"name,omitempty"`
	Triangles int        `json:"triangles"`
	Center    [3]float64 `json:"center"`
	Radius    float64    `json:"radius"`
	PlaneZ    float64    `json:"planeZ"`
	Strength  float64    `json:"strength"`
	Clamp     bool       `json:"clamp"`
	Status    string     `json:"status"`
}

// ClientEvent is a message received from a websocket client
type ClientEvent struct {
	Type    string       `json:"type"`
	Value   *float64     `json:"value,omitempty"`
	Point   *[3]float64  `json:"point,omitempty"`
	Enabled *bool        `json:"enabled,omitempty"`
	Matrix  *[16]float64 `json:"matrix,omitempty"` // column-major
	URL     string       `json:"url,omitempty"`
}

// Event converts a client message into a session event. "load" is not a
// session event and is handled by the server itself.
func (m ClientEvent) Event() (core.Event, error) {
	switch m.Type {
	case "strength":
		if m.Value == nil {
			return nil, fmt.Errorf("%w: strength needs a value", core.ErrInvalidParameter)
		}
		return core.StrengthEvent{Value: *m.Value}, nil
	case "center":
		if m.Point == nil {
			return nil, fmt.Errorf("%w: center needs a point", core.ErrInvalidParameter)
		}
		return core.CenterEvent{Point: mgl64.Vec3(*m.Point)}, nil
	case "clamp":
		if m.Enabled == nil {
			return nil, fmt.Errorf("%w: clamp needs enabled", core.ErrInvalidParameter)
		}
		return core.ClampEvent{Enabled: *m.Enabled}, nil
	case "transform":
		if m.Matrix == nil {
			return nil, fmt.Errorf("%w: transform needs a matrix", core.ErrInvalidParameter)
		}
		return core.TransformEvent{Matrix: mgl64.Mat4(*m.Matrix)}, nil
	case "reset":
		return core.ResetEvent{}, nil
	case "clear":
		return core.ClearEvent{}, nil
	}
	return nil, fmt.Errorf("%w: unknown message type %q", core.ErrInvalidParameter, m.Type)
}

func newMeshUpdate(f core.Frame) MeshUpdate {
	return MeshUpdate{
		Type:      "mesh_update",
		Loaded:    f.Loaded,
		Name:      f.Name,
		Vertices:  toArrays(f.Positions),
		Normals:   toArrays(f.Normals),
		Center:    f.Center,
		Radius:    f.Radius,
		PlaneZ:    f.PlaneZ,
		Strength:  f.Params.Strength,
		Clamp:     f.Params.Clamp,
		Transform: f.Params.Transform,
		Status:    f.Status,
	}
}

func newState(s *core.Session) State {
	p := s.Params()
	return State{
		Loaded:    s.Loaded(),
		Name:      s.Name(),
		Triangles: s.TriangleCount(),
		Center:    s.Center(),
		Radius:    s.Radius(),
		PlaneZ:    s.PlaneZ(),
		Strength:  p.Strength,
		Clamp:     p.Clamp,
		Status:    s.Status(),
	}
}

func toArrays(v []mgl64.Vec3) [][3]float64 {
	out := make([][3]float64, len(v))
	for i, p := range v {
		out[i] = p
	}
	return out
}
