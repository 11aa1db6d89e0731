package core

import (
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(opts ...Option) *Session {
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return NewSession(opts...)
}

// offsetSphere is an icosphere whose bounding box is not centered on the origin
func offsetSphere(t *testing.T, offset mgl64.Vec3) *Mesh {
	t.Helper()
	ps := Icosphere(1, 1).Positions()
	for i := range ps {
		ps[i] = ps[i].Add(offset)
	}
	m, err := NewMesh("offset", ps)
	require.NoError(t, err)
	return m
}

func mustHandle(t *testing.T, s *Session, ev Event) bool {
	t.Helper()
	changed, err := s.Handle(ev)
	require.NoError(t, err)
	return changed
}

func TestSessionLoadSetsDerivedState(t *testing.T) {
	s := newTestSession(WithRecenter(false))
	mesh := offsetSphere(t, mgl64.Vec3{3, -1, 2})

	assert.True(t, mustHandle(t, s, LoadEvent{Mesh: mesh}))

	center, radius := BoundingSphere(mesh.Positions())
	assert.True(t, s.Loaded())
	assert.Equal(t, center, s.Center())
	assert.Equal(t, radius, s.Radius())
	assert.Equal(t, LowestWorldZ(mesh.Positions(), mgl64.Ident4()), s.PlaneZ())
	assert.Equal(t, mesh.Positions(), s.Positions())
	assert.Equal(t, DefaultParams(), s.Params())
	assert.Equal(t, StatusReady, s.Status())
	assert.Len(t, s.Normals(), mesh.VertexCount())
}

func TestSessionRecentersOnLoad(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: offsetSphere(t, mgl64.Vec3{10, 20, 30})})

	c := BoundingBox(s.Base()).Center()
	assert.InDelta(t, 0, c.Len(), 1e-12)
	assert.InDelta(t, 0, s.Center().Len(), 1e-12)
	assert.InDelta(t, -1, s.PlaneZ(), 1e-12)
}

func TestSessionRejectsParametersWhenUnloaded(t *testing.T) {
	s := newTestSession()

	for _, ev := range []Event{
		StrengthEvent{Value: 0.5},
		CenterEvent{Point: mgl64.Vec3{1, 1, 1}},
		ClampEvent{Enabled: true},
		TransformEvent{Matrix: mgl64.Ident4()},
		ResetEvent{},
	} {
		changed, err := s.Handle(ev)
		assert.ErrorIs(t, err, ErrNotLoaded, "%T", ev)
		assert.False(t, changed)
	}
	assert.Nil(t, s.Positions())
}

func TestSessionSecondLoadDropsPreviousParameters(t *testing.T) {
	s := newTestSession()
	meshA := offsetSphere(t, mgl64.Vec3{})
	meshB := Icosphere(2, 4)

	mustHandle(t, s, LoadEvent{Mesh: meshA})
	mustHandle(t, s, StrengthEvent{Value: 0.8})
	mustHandle(t, s, ClampEvent{Enabled: true})
	require.NotEqual(t, s.Base(), s.Positions())

	mustHandle(t, s, LoadEvent{Mesh: meshB})

	assert.Equal(t, s.Base(), s.Positions())
	assert.Equal(t, 0.0, s.Params().Strength)
	assert.False(t, s.Params().Clamp)
	assert.Equal(t, meshB.VertexCount(), len(s.Positions()))
}

func TestSessionStrengthInputBoundary(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})

	mustHandle(t, s, StrengthEvent{Value: 3})
	assert.Equal(t, 1.0, s.Params().Strength)

	mustHandle(t, s, StrengthEvent{Value: -7})
	assert.Equal(t, -1.0, s.Params().Strength)

	before := s.Positions()
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		changed, err := s.Handle(StrengthEvent{Value: bad})
		assert.ErrorIs(t, err, ErrInvalidParameter)
		assert.False(t, changed)
	}
	assert.Equal(t, -1.0, s.Params().Strength)
	assert.Equal(t, before, s.Positions())
}

func TestSessionInvalidCenterAndTransformIgnored(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})

	_, err := s.Handle(CenterEvent{Point: mgl64.Vec3{math.NaN(), 0, 0}})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, mgl64.Vec3{}, s.Center())

	bad := mgl64.Ident4()
	bad[12] = math.Inf(1)
	_, err = s.Handle(TransformEvent{Matrix: bad})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, mgl64.Ident4(), s.Params().Transform)
}

func TestSessionChangeDetection(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})

	assert.True(t, mustHandle(t, s, StrengthEvent{Value: 0.5}))
	assert.False(t, mustHandle(t, s, StrengthEvent{Value: 0.5}))

	// transform only matters while the clamp is on
	assert.False(t, mustHandle(t, s, TransformEvent{Matrix: mgl64.Translate3D(0, 0, 1)}))
	assert.True(t, mustHandle(t, s, ClampEvent{Enabled: true}))
	assert.True(t, mustHandle(t, s, TransformEvent{Matrix: mgl64.Translate3D(0, 0, 2)}))
	assert.False(t, mustHandle(t, s, ClampEvent{Enabled: true}))

	assert.True(t, mustHandle(t, s, CenterEvent{Point: mgl64.Vec3{0.1, 0, 0}}))
	assert.False(t, mustHandle(t, s, CenterEvent{Point: mgl64.Vec3{0.1, 0, 0}}))
}

func TestSessionMatchesPipeline(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(2, 1)})

	center := mgl64.Vec3{0.2, -0.1, -0.3}
	world := mgl64.Translate3D(0, 0, 0.4).Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(30)))
	mustHandle(t, s, CenterEvent{Point: center})
	mustHandle(t, s, StrengthEvent{Value: -0.4})
	mustHandle(t, s, TransformEvent{Matrix: world})
	mustHandle(t, s, ClampEvent{Enabled: true})

	want := Deform(s.Base(), center, -0.4, s.Radius(), s.Decay())
	_, err := ClampToPlane(want, world, s.PlaneZ())
	require.NoError(t, err)

	assert.Equal(t, want, s.Positions())
	assert.Equal(t, VertexNormals(want), s.Normals())
}

func TestSessionRecomputeHasNoHistory(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(2, 1)})

	mustHandle(t, s, StrengthEvent{Value: 0.3})
	first := s.Positions()

	mustHandle(t, s, StrengthEvent{Value: 0.9})
	mustHandle(t, s, CenterEvent{Point: mgl64.Vec3{0.5, 0.5, 0}})
	mustHandle(t, s, CenterEvent{Point: mgl64.Vec3{}})
	mustHandle(t, s, StrengthEvent{Value: 0.3})

	assert.Equal(t, first, s.Positions())

	mustHandle(t, s, StrengthEvent{Value: 0})
	assert.Equal(t, s.Base(), s.Positions())
}

func TestSessionReset(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})
	moved := mgl64.Vec3{0.2, 0.2, 0.2}
	mustHandle(t, s, CenterEvent{Point: moved})
	mustHandle(t, s, StrengthEvent{Value: 0.7})
	mustHandle(t, s, ClampEvent{Enabled: true})
	mustHandle(t, s, TransformEvent{Matrix: mgl64.HomogRotate3DX(1)})

	assert.True(t, mustHandle(t, s, ResetEvent{}))

	assert.Equal(t, DefaultParams(), s.Params())
	assert.Equal(t, s.Base(), s.Positions())
	assert.Equal(t, moved, s.Center())
	assert.Equal(t, StatusReset, s.Status())
}

func TestSessionSingularTransformSkipsClamp(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})
	mustHandle(t, s, StrengthEvent{Value: 0.5})
	mustHandle(t, s, ClampEvent{Enabled: true})
	assert.Equal(t, StatusFlatOn, s.Status())

	changed, err := s.Handle(TransformEvent{Matrix: mgl64.Scale3D(1, 1, 0)})

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusClampSkip, s.Status())
	assert.Equal(t, Deform(s.Base(), s.Center(), 0.5, s.Radius(), s.Decay()), s.Positions())
	for _, p := range s.Positions() {
		assert.True(t, finiteVec(p))
	}

	// An invertible transform brings the clamp back
	mustHandle(t, s, TransformEvent{Matrix: mgl64.Ident4()})
	assert.Equal(t, StatusReady, s.Status())
}

func TestSessionLoadTickets(t *testing.T) {
	s := newTestSession()
	older := s.BeginLoad()
	newer := s.BeginLoad()
	assert.Equal(t, StatusLoading, s.Status())

	changed, err := s.Handle(LoadEvent{Mesh: Icosphere(0, 1), Ticket: older})
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.False(t, changed)
	assert.False(t, s.Loaded())

	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 2), Ticket: newer})
	assert.True(t, s.Loaded())
	assert.InDelta(t, 2, s.Radius(), 1e-12)

	// A synchronous load outdates one still in flight
	pending := s.BeginLoad()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(0, 3)})
	_, err = s.Handle(LoadEvent{Mesh: Icosphere(1, 1), Ticket: pending})
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.InDelta(t, 3, s.Radius(), 1e-12)
}

func TestSessionFailedLoadKeepsMesh(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})
	mustHandle(t, s, StrengthEvent{Value: 0.25})
	before := s.Positions()

	ticket := s.BeginLoad()
	assert.True(t, s.FailLoad(ticket, errors.New("truncated")))

	assert.True(t, s.Loaded())
	assert.Equal(t, before, s.Positions())
	assert.Equal(t, 0.25, s.Params().Strength)
	assert.Equal(t, StatusLoadFailed, s.Status())

	// A stale failure does not touch the status of a newer load
	s.BeginLoad()
	assert.False(t, s.FailLoad(ticket, errors.New("late")))
	assert.Equal(t, StatusLoading, s.Status())
}

func TestSessionClear(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})
	pending := s.BeginLoad()

	changed, err := s.Handle(ClearEvent{})
	require.NoError(t, err)
	assert.False(t, changed)

	assert.False(t, s.Loaded())
	assert.Nil(t, s.Positions())
	assert.Nil(t, s.Base())
	assert.Equal(t, mgl64.Vec3{}, s.Center())
	assert.Equal(t, StatusEmpty, s.Status())

	_, err = s.Handle(LoadEvent{Mesh: Icosphere(1, 1), Ticket: pending})
	assert.ErrorIs(t, err, ErrSuperseded)
}

func TestSessionWorldTriangles(t *testing.T) {
	s := newTestSession()
	_, err := s.WorldTriangles()
	assert.ErrorIs(t, err, ErrNotLoaded)

	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})
	mustHandle(t, s, StrengthEvent{Value: 0.2})
	mustHandle(t, s, TransformEvent{Matrix: mgl64.Translate3D(1, 2, 5)})

	world, err := s.WorldTriangles()
	require.NoError(t, err)

	local := s.Positions()
	require.Len(t, world, len(local))
	for i := range local {
		assert.InDelta(t, 0, world[i].Sub(local[i].Add(mgl64.Vec3{1, 2, 5})).Len(), 1e-12)
	}
}

func TestSessionFrameIsACopy(t *testing.T) {
	s := newTestSession()
	mustHandle(t, s, LoadEvent{Mesh: Icosphere(1, 1)})

	f := s.Frame()
	f.Positions[0] = mgl64.Vec3{99, 99, 99}

	assert.NotEqual(t, mgl64.Vec3{99, 99, 99}, s.Positions()[0])
	assert.True(t, f.Loaded)
	assert.Equal(t, s.Status(), f.Status)
}

func BenchmarkSessionRecompute(b *testing.B) {
	s := newTestSession()
	_, err := s.Handle(LoadEvent{Mesh: Icosphere(5, 1)})
	require.NoError(b, err)
	_, err = s.Handle(ClampEvent{Enabled: true})
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// alternate so every event changes the parameters
		v := 0.5
		if i%2 == 1 {
			v = -0.5
		}
		if _, err := s.Handle(StrengthEvent{Value: v}); err != nil {
			b.Fatal(err)
		}
	}
}
