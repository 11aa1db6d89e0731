package core

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// Status lines shown to the user
const (
	StatusEmpty      = "Load an STL to begin"
	StatusLoading    = "Loading STL..."
	StatusReady      = "Use the slider to inflate/deflate."
	StatusLoadFailed = "Failed to load STL"
	StatusReset      = "Reset to original."
	StatusExported   = "Downloaded .STL"
	StatusExportFail = "STL export failed"
	StatusClampSkip  = "Flat Base skipped: object transform is not invertible"
	StatusFlatOn     = "Flat Base: ON"
	StatusFlatOff    = "Flat Base: OFF"
)

// Session owns one loaded mesh and everything derived from it. The displayed
// positions are always rebuilt from the immutable base:
//
//	working = Deform(base, center, strength, radius, decay)
//	if clamp { ClampToPlane(working, transform, planeZ) }
//
// A Session is not safe for concurrent use; hosts confine it to one goroutine.
type Session struct {
	decay    float64
	recenter bool
	logger   *slog.Logger

	// Set together on load, cleared together on unload
	loaded bool
	name   string
	base   []mgl64.Vec3
	center mgl64.Vec3
	radius float64
	planeZ float64

	params Params

	// Last recomputed state, used to skip redundant work
	applied     *Params
	centerDirty bool

	working []mgl64.Vec3
	normals []mgl64.Vec3

	ticket uint64
	status string
}

// Option configures a Session
type Option func(*Session)

// WithDecay overrides DefaultDecay
func WithDecay(decay float64) Option {
	return func(s *Session) { s.decay = decay }
}

// WithLogger sets the logger used for load and clamp diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRecenter controls whether loaded meshes are moved so their bounding box
// center is the local origin. Enabled by default.
func WithRecenter(on bool) Option {
	return func(s *Session) { s.recenter = on }
}

// NewSession returns an unloaded session
func NewSession(opts ...Option) *Session {
	s := &Session{
		decay:    DefaultDecay,
		recenter: true,
		logger:   slog.Default(),
		params:   DefaultParams(),
		status:   StatusEmpty,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle applies ev and, if the effective parameters changed, recomputes the
// working positions. It reports whether a recompute happened. Errors are
// never fatal: the session keeps its previous state.
func (s *Session) Handle(ev Event) (bool, error) {
	switch e := ev.(type) {
	case LoadEvent:
		return s.load(e)
	case ClearEvent:
		s.ticket++
		s.clear()
		s.status = StatusEmpty
		return false, nil
	case ResetEvent:
		if !s.loaded {
			return false, ErrNotLoaded
		}
		s.params = DefaultParams()
		s.applied = nil
		s.recompute()
		s.status = StatusReset
		return true, nil
	}

	if !s.loaded {
		return false, ErrNotLoaded
	}
	switch e := ev.(type) {
	case StrengthEvent:
		v, ok := SanitizeStrength(e.Value)
		if !ok {
			return false, fmt.Errorf("%w: strength %v", ErrInvalidParameter, e.Value)
		}
		s.params.Strength = v
	case CenterEvent:
		if !finiteVec(e.Point) {
			return false, fmt.Errorf("%w: center %v", ErrInvalidParameter, e.Point)
		}
		if e.Point != s.center {
			s.center = e.Point
			s.centerDirty = true
		}
	case ClampEvent:
		if e.Enabled != s.params.Clamp {
			s.status = StatusFlatOff
			if e.Enabled {
				s.status = StatusFlatOn
			}
		}
		s.params.Clamp = e.Enabled
	case TransformEvent:
		if !finiteMat(e.Matrix) {
			return false, fmt.Errorf("%w: transform is not finite", ErrInvalidParameter)
		}
		s.params.Transform = e.Matrix
	default:
		return false, fmt.Errorf("%w: unknown event %T", ErrInvalidParameter, ev)
	}

	if !s.dirty() {
		return false, nil
	}
	s.recompute()
	return true, nil
}

// BeginLoad marks the start of an asynchronous load and returns its ticket.
// Loads started earlier can no longer complete. The current mesh stays in
// place until the load event arrives so a failed load leaves it untouched.
func (s *Session) BeginLoad() uint64 {
	s.ticket++
	s.status = StatusLoading
	return s.ticket
}

// FailLoad records that the load with ticket failed and reports whether it
// was still current. Stale tickets are ignored so an old failure cannot
// overwrite the status of a newer load.
func (s *Session) FailLoad(ticket uint64, err error) bool {
	if ticket != 0 && ticket != s.ticket {
		return false
	}
	s.logger.Error("load failed", "err", err)
	s.status = StatusLoadFailed
	return true
}

// SetStatus overrides the status line, e.g. after an export
func (s *Session) SetStatus(status string) {
	s.status = status
}

func (s *Session) load(e LoadEvent) (bool, error) {
	if e.Mesh == nil {
		return false, fmt.Errorf("%w: nil mesh", ErrInvalidParameter)
	}
	if e.Ticket != 0 && e.Ticket != s.ticket {
		return false, ErrSuperseded
	}
	if e.Ticket == 0 {
		// a direct load also outdates anything still in flight
		s.ticket++
	}

	mesh := e.Mesh
	if s.recenter {
		mesh, _ = mesh.Recentered()
	}

	// Previous mesh and all its parameters go away in one step
	s.clear()
	s.loaded = true
	s.name = mesh.Name
	s.base = mesh.Positions()
	s.center, s.radius = BoundingSphere(s.base)
	if s.radius == 0 {
		s.radius = 1
	}
	s.planeZ = LowestWorldZ(s.base, s.params.Transform)
	s.working = make([]mgl64.Vec3, len(s.base))
	s.normals = make([]mgl64.Vec3, len(s.base))
	s.recompute()

	s.logger.Info("mesh loaded",
		"name", s.name,
		"triangles", len(s.base)/3,
		"radius", s.radius,
		"planeZ", s.planeZ)
	s.status = StatusReady
	return true, nil
}

func (s *Session) clear() {
	s.loaded = false
	s.name = ""
	s.base = nil
	s.center = mgl64.Vec3{}
	s.radius = 0
	s.planeZ = 0
	s.params = DefaultParams()
	s.applied = nil
	s.centerDirty = false
	s.working = nil
	s.normals = nil
}

func (s *Session) dirty() bool {
	if !s.loaded {
		return false
	}
	if s.applied == nil || s.centerDirty {
		return true
	}
	a := s.applied
	if a.Strength != s.params.Strength || a.Clamp != s.params.Clamp {
		return true
	}
	// Without the clamp the transform does not affect local positions
	return s.params.Clamp && a.Transform != s.params.Transform
}

func (s *Session) recompute() {
	DeformInto(s.working, s.base, s.center, s.params.Strength, s.radius, s.decay)

	if s.params.Clamp {
		moved, err := ClampToPlane(s.working, s.params.Transform, s.planeZ)
		if err != nil {
			s.logger.Warn("plane clamp skipped", "err", err)
			s.status = StatusClampSkip
		} else {
			s.logger.Debug("plane clamp", "moved", moved, "planeZ", s.planeZ)
			if s.status == StatusClampSkip {
				s.status = StatusReady
			}
		}
	} else if s.status == StatusClampSkip {
		s.status = StatusReady
	}

	VertexNormalsInto(s.normals, s.working)

	applied := s.params
	s.applied = &applied
	s.centerDirty = false
}

// Loaded reports whether a mesh is loaded
func (s *Session) Loaded() bool { return s.loaded }

// Status returns the current status line
func (s *Session) Status() string { return s.status }

// Name returns the loaded mesh's name
func (s *Session) Name() string { return s.name }

// TriangleCount returns the number of facets of the loaded mesh
func (s *Session) TriangleCount() int { return len(s.base) / 3 }

// Params returns the current parameters
func (s *Session) Params() Params { return s.params }

// Center returns the deformation center in the local frame
func (s *Session) Center() mgl64.Vec3 { return s.center }

// Radius returns the base bounding sphere radius
func (s *Session) Radius() float64 { return s.radius }

// PlaneZ returns the ground plane height in world space
func (s *Session) PlaneZ() float64 { return s.planeZ }

// Decay returns the decay rate used for recomputes
func (s *Session) Decay() float64 { return s.decay }

// Base returns a copy of the base positions
func (s *Session) Base() []mgl64.Vec3 {
	return cloneVecs(s.base)
}

// Positions returns a copy of the working positions
func (s *Session) Positions() []mgl64.Vec3 {
	return cloneVecs(s.working)
}

// Normals returns a copy of the vertex normals of the working positions
func (s *Session) Normals() []mgl64.Vec3 {
	return cloneVecs(s.normals)
}

// Frame returns a snapshot of everything a host needs to draw the session
func (s *Session) Frame() Frame {
	return Frame{
		Loaded:    s.loaded,
		Name:      s.name,
		Positions: s.Positions(),
		Normals:   s.Normals(),
		Center:    s.center,
		Radius:    s.radius,
		PlaneZ:    s.planeZ,
		Params:    s.params,
		Status:    s.status,
	}
}

// WorldTriangles returns the working positions with the world transform
// applied, ready for export.
func (s *Session) WorldTriangles() ([]mgl64.Vec3, error) {
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	out := make([]mgl64.Vec3, len(s.working))
	for i, p := range s.working {
		out[i] = mgl64.TransformCoordinate(p, s.params.Transform)
	}
	return out, nil
}

func cloneVecs(v []mgl64.Vec3) []mgl64.Vec3 {
	if v == nil {
		return nil
	}
	out := make([]mgl64.Vec3, len(v))
	copy(out, v)
	return out
}
