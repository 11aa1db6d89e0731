package opengl

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"inflate3d/rendering/scene"
)

func (r *MeshRenderer) installCallbacks() {
	r.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		r.onResize(width, height)
	})
	r.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		r.onKey(key, action, mods)
	})
	r.window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		r.camera.Zoom(float32(yoff))
		r.updateMatrices()
	})
	r.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		r.onMouseButton(button, action, mods)
	})
	r.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		r.onMouseMove(xpos, ypos)
	})
	r.window.SetDropCallback(func(w *glfw.Window, names []string) {
		if r.controls.OnDrop != nil {
			r.controls.OnDrop(names)
		}
	})
}

// keyAction maps a key press to a viewer action
func keyAction(key glfw.Key, mods glfw.ModifierKey) scene.Action {
	shift := mods&glfw.ModShift != 0
	switch key {
	case glfw.KeyEscape:
		return scene.ActionQuit
	case glfw.KeyRightBracket, glfw.KeyEqual, glfw.KeyKPAdd:
		return scene.ActionStrengthUp
	case glfw.KeyLeftBracket, glfw.KeyMinus, glfw.KeyKPSubtract:
		return scene.ActionStrengthDown
	case glfw.Key0, glfw.KeyKP0:
		return scene.ActionStrengthZero
	case glfw.KeyF:
		return scene.ActionToggleClamp
	case glfw.KeyR:
		return scene.ActionReset
	case glfw.KeyE:
		return scene.ActionExport
	case glfw.KeyLeft:
		return scene.ActionCenterXNeg
	case glfw.KeyRight:
		return scene.ActionCenterXPos
	case glfw.KeyDown:
		return scene.ActionCenterYNeg
	case glfw.KeyUp:
		return scene.ActionCenterYPos
	case glfw.KeyPageDown:
		return scene.ActionCenterZNeg
	case glfw.KeyPageUp:
		return scene.ActionCenterZPos
	case glfw.KeyQ:
		if shift {
			return scene.ActionRotateZBack
		}
		return scene.ActionRotateZ
	case glfw.KeyW:
		if shift {
			return scene.ActionRotateXBack
		}
		return scene.ActionRotateX
	}
	return scene.ActionNone
}

func (r *MeshRenderer) onKey(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}
	a := keyAction(key, mods)
	switch a {
	case scene.ActionNone:
		return
	case scene.ActionQuit:
		r.window.SetShouldClose(true)
		return
	}
	if r.controls.OnAction != nil {
		r.controls.OnAction(a)
	}
}

func (r *MeshRenderer) onResize(width, height int) {
	r.width = width
	r.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	if r.status != nil {
		r.status.UpdateSize(width, height)
	}
	r.updateMatrices()
}

// Left drag orbits; shift+click places the deformation center
func (r *MeshRenderer) onMouseButton(button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	switch action {
	case glfw.Press:
		r.lastX, r.lastY = r.window.GetCursorPos()
		if mods&glfw.ModShift != 0 {
			r.pick(r.lastX, r.lastY)
			return
		}
		r.mouseDown = true
	case glfw.Release:
		r.mouseDown = false
	}
}

func (r *MeshRenderer) onMouseMove(xpos, ypos float64) {
	if !r.mouseDown {
		return
	}
	r.camera.Drag(float32(xpos-r.lastX), float32(ypos-r.lastY))
	r.lastX, r.lastY = xpos, ypos
	r.updateMatrices()
}
