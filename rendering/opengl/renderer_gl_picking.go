package opengl

import (
	"inflate3d/rendering/scene"
)

// pick casts a ray through the cursor and reports the hit on the mesh to
// the OnPick callback
func (r *MeshRenderer) pick(xpos, ypos float64) {
	if r.controls.OnPick == nil || len(r.positions) == 0 {
		return
	}

	// Cursor positions are in window coordinates, the viewport in pixels
	winW, winH := r.window.GetSize()
	if winW == 0 || winH == 0 {
		return
	}
	x := xpos * float64(r.width) / float64(winW)
	y := ypos * float64(r.height) / float64(winH)

	ray := scene.ScreenRay(x, y, r.width, r.height, r.viewMatrix, r.projMatrix)
	hit, ok := scene.PickTriangle(ray, r.positions, r.transform)
	if !ok {
		return
	}
	r.logger.Debug("picked center", "x", hit[0], "y", hit[1], "z", hit[2])
	r.controls.OnPick(hit)
}
