package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultDecay is the falloff rate of the radial growth with distance
	// from the deformation center.
	DefaultDecay = 0.01

	// StrengthEpsilon is the magnitude below which strength counts as zero
	StrengthEpsilon = 1e-6

	// DegenerateLength is the distance below which a vertex is considered to
	// sit on the center and is left where it is.
	DegenerateLength = 1e-12
)

// Deform returns base displaced radially around center. Each vertex moves
// along its own line through center; the added length is
// strength*baseRadius*exp(-len*decay), so the scaling is multiplicative and
// fades with distance. base is never modified.
func Deform(base []mgl64.Vec3, center mgl64.Vec3, strength, baseRadius, decay float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(base))
	DeformInto(out, base, center, strength, baseRadius, decay)
	return out
}

// DeformInto is Deform writing into dst, which must have len(base) elements.
// dst and base must not alias.
func DeformInto(dst, base []mgl64.Vec3, center mgl64.Vec3, strength, baseRadius, decay float64) {
	if len(dst) != len(base) {
		panic("core: DeformInto length mismatch")
	}
	if math.Abs(strength) < StrengthEpsilon {
		copy(dst, base)
		return
	}

	r := strength * baseRadius
	for i, p := range base {
		u := p.Sub(center)
		l := u.Len()
		if l < DegenerateLength {
			dst[i] = p
			continue
		}
		newLen := l + r*math.Exp(-l*decay)
		dst[i] = center.Add(u.Mul(newLen / l))
	}
}
