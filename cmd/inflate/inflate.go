package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"inflate3d/core"
	"inflate3d/meshio"
)

// job is one headless deform-and-export run
type job struct {
	Out       string
	Strength  float64
	Center    *mgl64.Vec3 // nil keeps the bounding sphere center
	Clamp     bool
	RotateX   float64 // degrees
	RotateZ   float64 // degrees
	Translate mgl64.Vec3
	Decay     float64
}

// Transform is the object world transform: translate * rotZ * rotX
func (j job) Transform() mgl64.Mat4 {
	return mgl64.Translate3D(j.Translate[0], j.Translate[1], j.Translate[2]).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(j.RotateZ))).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(j.RotateX)))
}

// Events lists the session events that configure a loaded mesh for this job
func (j job) Events() []core.Event {
	evs := []core.Event{
		core.TransformEvent{Matrix: j.Transform()},
		core.StrengthEvent{Value: j.Strength},
	}
	if j.Center != nil {
		evs = append(evs, core.CenterEvent{Point: *j.Center})
	}
	if j.Clamp {
		evs = append(evs, core.ClampEvent{Enabled: true})
	}
	return evs
}

// apply loads mesh into a fresh session, applies the job and writes the
// world space result
func (j job) apply(mesh *core.Mesh, logger *slog.Logger) error {
	s := core.NewSession(core.WithDecay(j.Decay), core.WithLogger(logger))
	if _, err := s.Handle(core.LoadEvent{Mesh: mesh}); err != nil {
		return err
	}
	for _, ev := range j.Events() {
		if _, err := s.Handle(ev); err != nil {
			return fmt.Errorf("%T: %w", ev, err)
		}
	}
	if s.Status() == core.StatusClampSkip {
		logger.Warn(core.StatusClampSkip)
	}

	tris, err := s.WorldTriangles()
	if err != nil {
		return err
	}
	if err := meshio.WriteFile(j.Out, tris); err != nil {
		return fmt.Errorf("write %s: %w", j.Out, err)
	}
	logger.Info("wrote mesh",
		"out", j.Out,
		"triangles", len(tris)/3,
		"strength", s.Params().Strength,
		"clamp", j.Clamp)
	return nil
}

// parseVec3 parses "x,y,z"
func parseVec3(s string) (mgl64.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v mgl64.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		v[i] = f
	}
	return v, nil
}

// vec3Flag is a flag.Value for an optional x,y,z triple
type vec3Flag struct {
	v   mgl64.Vec3
	set bool
}

func (f *vec3Flag) String() string {
	if f == nil || !f.set {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", f.v[0], f.v[1], f.v[2])
}

func (f *vec3Flag) Set(s string) error {
	v, err := parseVec3(s)
	if err != nil {
		return err
	}
	f.v, f.set = v, true
	return nil
}
