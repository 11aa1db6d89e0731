package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeformSingleVertex(t *testing.T) {
	base := []mgl64.Vec3{{1, 0, 0}}

	out := Deform(base, mgl64.Vec3{}, 0.5, 1, 0.01)

	require.Len(t, out, 1)
	assert.InDelta(t, 1+0.5*math.Exp(-0.01), out[0].X(), 1e-12)
	assert.InDelta(t, 1.4950, out[0].X(), 1e-4)
	assert.Equal(t, 0.0, out[0].Y())
	assert.Equal(t, 0.0, out[0].Z())
}

func TestDeformIdentityBelowEpsilon(t *testing.T) {
	base := Icosphere(1, 2).Positions()
	center := mgl64.Vec3{0.3, -0.2, 0.1}

	for _, s := range []float64{0, 5e-7, -9.99e-7} {
		assert.Equal(t, base, Deform(base, center, s, 2, DefaultDecay), "strength %g", s)
	}
}

func TestDeformLeavesCenterVertex(t *testing.T) {
	center := mgl64.Vec3{1, 2, 3}
	base := []mgl64.Vec3{
		center,
		center.Add(mgl64.Vec3{1e-13, 0, 0}),
		{4, 2, 3},
	}

	out := Deform(base, center, 1, 10, DefaultDecay)

	assert.Equal(t, base[0], out[0])
	assert.Equal(t, base[1], out[1])
	assert.NotEqual(t, base[2], out[2])
	for _, p := range out {
		assert.True(t, finiteVec(p))
	}
}

func TestDeformIsDeterministic(t *testing.T) {
	base := Icosphere(2, 1).Positions()
	center := mgl64.Vec3{0.1, 0.1, -0.4}

	first := Deform(base, center, -0.35, 1, DefaultDecay)
	second := Deform(base, center, -0.35, 1, DefaultDecay)

	assert.Equal(t, first, second)
}

func TestDeformDoesNotTouchBase(t *testing.T) {
	base := Icosphere(1, 3).Positions()
	original := make([]mgl64.Vec3, len(base))
	copy(original, base)

	_ = Deform(base, mgl64.Vec3{}, 0.9, 3, DefaultDecay)
	assert.Equal(t, original, base)

	// Going back to zero strength from the untouched base gives the base back
	assert.Equal(t, original, Deform(base, mgl64.Vec3{}, 0, 3, DefaultDecay))
}

func TestDeformMovesAlongRadius(t *testing.T) {
	center := mgl64.Vec3{0.5, 0, 0}
	base := []mgl64.Vec3{{2, 1, 0}, {-1, -1, 3}, {0.5, 0, -4}}

	tests := []struct {
		name     string
		strength float64
		grows    bool
	}{
		{"inflate", 0.6, true},
		{"deflate", -0.2, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := Deform(base, center, tc.strength, 1, DefaultDecay)
			for i, p := range base {
				before := p.Sub(center)
				after := out[i].Sub(center)
				assert.InDelta(t, 0, before.Cross(after).Len(), 1e-9, "vertex %d left its radius line", i)
				assert.Greater(t, before.Dot(after), 0.0)
				if tc.grows {
					assert.Greater(t, after.Len(), before.Len())
				} else {
					assert.Less(t, after.Len(), before.Len())
				}
			}
		})
	}
}

func TestDeformGrowthDecaysWithDistance(t *testing.T) {
	base := []mgl64.Vec3{{1, 0, 0}, {100, 0, 0}}

	out := Deform(base, mgl64.Vec3{}, 1, 1, 0.05)

	near := out[0].X() - 1
	far := out[1].X() - 100
	assert.Greater(t, near, far)
	assert.InDelta(t, math.Exp(-5), far, 1e-9)
}

func TestDeformIntoLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		DeformInto(make([]mgl64.Vec3, 1), make([]mgl64.Vec3, 2), mgl64.Vec3{}, 1, 1, 1)
	})
}

func BenchmarkDeform(b *testing.B) {
	base := Icosphere(5, 1).Positions()
	dst := make([]mgl64.Vec3, len(base))
	center := mgl64.Vec3{0.2, 0.1, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DeformInto(dst, base, center, 0.4, 1, DefaultDecay)
	}
}
