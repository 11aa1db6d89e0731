package opengl

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"inflate3d/core"
	"inflate3d/rendering/opengl/overlay"
	"inflate3d/rendering/opengl/shaders"
	"inflate3d/rendering/scene"
)

var (
	meshColor   = mgl32.Vec3{0.97, 0.66, 0.85}
	gridColor   = mgl32.Vec4{0.61, 0.64, 0.69, 0.35}
	markerColor = mgl32.Vec4{0.0, 1.0, 0.84, 0.8}
	lightDir    = mgl32.Vec3{-0.5, 0.8, -1.0}
)

// Controls receives viewer input. Nil callbacks are skipped.
type Controls struct {
	OnAction func(scene.Action)
	// OnPick gets the clicked point in the mesh's local frame
	OnPick func(local mgl64.Vec3)
	// OnDrop gets files dropped onto the window
	OnDrop func(paths []string)
}

// lineBuffer is a VAO/VBO pair of position-only line segments
type lineBuffer struct {
	vao, vbo uint32
	count    int32
}

// MeshRenderer draws a session frame in a native glfw window
type MeshRenderer struct {
	window *glfw.Window
	logger *slog.Logger

	meshProgram uint32
	lineProgram uint32

	meshVAO, meshVBO uint32
	vertexCount      int32

	grid   lineBuffer
	marker lineBuffer

	status *overlay.StatusOverlay

	// Last uploaded frame, kept for picking and the overlay
	positions []mgl64.Vec3
	transform mgl64.Mat4
	model     mgl32.Mat4
	overlay   overlay.Status

	camera       *scene.Orbit
	viewMatrix   mgl32.Mat4
	projMatrix   mgl32.Mat4
	width        int
	height       int
	controls     Controls
	mouseDown    bool
	lastX, lastY float64
}

// NewMeshRenderer opens the window and sets up GL state. It must be called
// from the main goroutine, which stays locked to its OS thread.
func NewMeshRenderer(width, height int, controls Controls, logger *slog.Logger) (*MeshRenderer, error) {
	runtime.LockOSThread()
	if logger == nil {
		logger = slog.Default()
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 4)

	window, err := glfw.CreateWindow(width, height, "inflate3d", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	r := &MeshRenderer{
		window:    window,
		logger:    logger,
		camera:    scene.NewOrbit(),
		controls:  controls,
		transform: mgl64.Ident4(),
		model:     mgl32.Ident4(),
	}
	// Framebuffer size differs from window size on HiDPI displays
	r.width, r.height = window.GetFramebufferSize()

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.07, 0.07, 0.09, 1.0)

	if r.meshProgram, err = shaders.NewMeshProgram(); err != nil {
		r.Terminate()
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	if r.lineProgram, err = shaders.NewLineProgram(); err != nil {
		r.Terminate()
		return nil, fmt.Errorf("line shader: %w", err)
	}
	if r.status, err = overlay.NewStatusOverlay(r.width, r.height); err != nil {
		// The viewer still works without the overlay
		logger.Warn("status overlay disabled", "err", err)
	}

	r.createMeshBuffers()
	r.grid = newLineBuffer()
	r.marker = newLineBuffer()
	r.updateMatrices()
	r.installCallbacks()

	return r, nil
}

func (r *MeshRenderer) createMeshBuffers() {
	gl.GenVertexArrays(1, &r.meshVAO)
	gl.GenBuffers(1, &r.meshVBO)

	gl.BindVertexArray(r.meshVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.meshVBO)

	// x,y,z,nx,ny,nz
	stride := int32(6 * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
}

func newLineBuffer() lineBuffer {
	var b lineBuffer
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
	return b
}

func (b *lineBuffer) upload(points []mgl32.Vec3) {
	b.count = int32(len(points))
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if len(points) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
		return
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(points)*3*4, gl.Ptr(&points[0][0]), gl.DYNAMIC_DRAW)
}

func (b *lineBuffer) release() {
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteBuffers(1, &b.vbo)
}

// Upload replaces the drawn geometry with f. Positions and normals always go
// up together. With reframe the camera and grid are fitted to the mesh,
// which hosts do after a load.
func (r *MeshRenderer) Upload(f core.Frame, reframe bool) {
	r.overlay = overlay.Status{
		Loaded:   f.Loaded,
		Strength: f.Params.Strength,
		Clamp:    f.Params.Clamp,
		Busy:     f.Status == core.StatusLoading,
	}
	r.window.SetTitle(fmt.Sprintf("inflate3d - %s", f.Status))

	if !f.Loaded {
		r.positions = nil
		r.vertexCount = 0
		r.grid.upload(nil)
		r.marker.upload(nil)
		return
	}

	r.positions = f.Positions
	r.transform = f.Params.Transform
	r.model = scene.Mat4To32(f.Params.Transform)

	data := scene.Interleave(f.Positions, f.Normals)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.meshVBO)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.DYNAMIC_DRAW)
	}
	r.vertexCount = int32(len(f.Positions))

	r.marker.upload(scene.MarkerLines(f.Center, scene.MarkerSize(f.Radius)))

	if reframe {
		maxDim := 2 * f.Radius
		r.camera.Frame(mgl32.Vec3{}, float32(maxDim))
		r.grid.upload(scene.GridLines(scene.GridSize(maxDim), scene.GridDivisions, f.PlaneZ))
		r.updateMatrices()
	}
}

// Render draws one frame and swaps buffers
func (r *MeshRenderer) Render() {
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if r.vertexCount > 0 {
		eye := r.camera.Eye()
		gl.UseProgram(r.meshProgram)
		r.setMatrices(r.meshProgram, r.model)
		gl.Uniform3fv(shaders.Uniform(r.meshProgram, "baseColor"), 1, &meshColor[0])
		gl.Uniform3fv(shaders.Uniform(r.meshProgram, "eye"), 1, &eye[0])
		gl.Uniform3fv(shaders.Uniform(r.meshProgram, "lightDir"), 1, &lightDir[0])

		gl.BindVertexArray(r.meshVAO)
		gl.DrawArrays(gl.TRIANGLES, 0, r.vertexCount)
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.UseProgram(r.lineProgram)

	// The grid is already in world space; the marker lives in the mesh frame
	r.drawLines(r.grid, mgl32.Ident4(), gridColor)
	gl.Disable(gl.DEPTH_TEST)
	r.drawLines(r.marker, r.model, markerColor)
	gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)

	if r.status != nil {
		r.status.Render(r.overlay)
	}

	gl.BindVertexArray(0)
	r.window.SwapBuffers()
}

func (r *MeshRenderer) drawLines(b lineBuffer, model mgl32.Mat4, color mgl32.Vec4) {
	if b.count == 0 {
		return
	}
	r.setMatrices(r.lineProgram, model)
	gl.Uniform4fv(shaders.Uniform(r.lineProgram, "color"), 1, &color[0])
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.LINES, 0, b.count)
}

func (r *MeshRenderer) setMatrices(program uint32, model mgl32.Mat4) {
	gl.UniformMatrix4fv(shaders.Uniform(program, "model"), 1, false, &model[0])
	gl.UniformMatrix4fv(shaders.Uniform(program, "view"), 1, false, &r.viewMatrix[0])
	gl.UniformMatrix4fv(shaders.Uniform(program, "projection"), 1, false, &r.projMatrix[0])
}

// updateMatrices updates view and projection matrices
func (r *MeshRenderer) updateMatrices() {
	r.viewMatrix = r.camera.View()
	r.projMatrix = r.camera.Projection(float32(r.width) / float32(max(r.height, 1)))
}

// ShouldClose returns true if the window should close
func (r *MeshRenderer) ShouldClose() bool {
	return r.window.ShouldClose()
}

// Close asks the main loop to stop
func (r *MeshRenderer) Close() {
	r.window.SetShouldClose(true)
}

// WaitEvents blocks until there is input or timeout seconds pass
func (r *MeshRenderer) WaitEvents(timeout float64) {
	glfw.WaitEventsTimeout(timeout)
}

// Terminate cleans up OpenGL resources
func (r *MeshRenderer) Terminate() {
	if r.status != nil {
		r.status.Release()
	}
	if r.meshVAO != 0 {
		gl.DeleteVertexArrays(1, &r.meshVAO)
		gl.DeleteBuffers(1, &r.meshVBO)
	}
	if r.grid.vao != 0 {
		r.grid.release()
		r.marker.release()
	}
	if r.meshProgram != 0 {
		gl.DeleteProgram(r.meshProgram)
	}
	if r.lineProgram != 0 {
		gl.DeleteProgram(r.lineProgram)
	}
	r.window.Destroy()
	glfw.Terminate()
}
