package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis aligned bounding box
type Box struct {
	Min, Max mgl64.Vec3
}

// BoundingBox returns the bounds of the given points. An empty input yields
// a zero box.
func BoundingBox(points []mgl64.Vec3) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for k := 0; k < 3; k++ {
			b.Min[k] = math.Min(b.Min[k], p[k])
			b.Max[k] = math.Max(b.Max[k], p[k])
		}
	}
	return b
}

// Center returns the midpoint of the box
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent along each axis
func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// BoundingSphere returns a sphere centered on the bounding box center whose
// radius reaches the farthest point. With no points it returns the origin
// and a radius of 1 so callers always get a usable scale.
func BoundingSphere(points []mgl64.Vec3) (mgl64.Vec3, float64) {
	if len(points) == 0 {
		return mgl64.Vec3{}, 1
	}
	center := BoundingBox(points).Center()
	maxSq := 0.0
	for _, p := range points {
		d := p.Sub(center)
		maxSq = math.Max(maxSq, d.Dot(d))
	}
	return center, math.Sqrt(maxSq)
}

// LowestWorldZ returns the minimum Z of the points after applying world.
// With no points it returns 0.
func LowestWorldZ(points []mgl64.Vec3, world mgl64.Mat4) float64 {
	if len(points) == 0 {
		return 0
	}
	low := math.Inf(1)
	for _, p := range points {
		low = math.Min(low, mgl64.TransformCoordinate(p, world).Z())
	}
	return low
}
