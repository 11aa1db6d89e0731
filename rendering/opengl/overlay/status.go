package overlay

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"inflate3d/rendering/opengl/shaders"
)

var (
	trackColor    = mgl32.Vec4{0.2, 0.2, 0.25, 0.8}
	inflateColor  = mgl32.Vec4{0.97, 0.66, 0.85, 1.0}
	deflateColor  = mgl32.Vec4{0.42, 0.45, 0.5, 1.0}
	tickColor     = mgl32.Vec4{0.9, 0.9, 0.9, 1.0}
	clampOnColor  = mgl32.Vec4{0.86, 0.15, 0.47, 1.0} // pink
	clampOffColor = mgl32.Vec4{0.29, 0.33, 0.39, 1.0} // gray
	busyColor     = mgl32.Vec4{1.0, 0.8, 0.2, 1.0}
)

// Status is what the overlay shows
type Status struct {
	Loaded   bool
	Strength float64 // -1..1
	Clamp    bool
	Busy     bool // a load is in flight
}

// StatusOverlay draws the strength slider and flat base indicator as
// colored rectangles in the bottom left corner
type StatusOverlay struct {
	program uint32
	projLoc int32
	vao     uint32
	vbo     uint32

	width  float32
	height float32

	vertices []float32
}

func NewStatusOverlay(width, height int) (*StatusOverlay, error) {
	program, err := shaders.NewOverlayProgram()
	if err != nil {
		return nil, fmt.Errorf("status overlay: %w", err)
	}
	so := &StatusOverlay{
		program: program,
		projLoc: shaders.Uniform(program, "projection"),
		width:   float32(width),
		height:  float32(height),
	}

	gl.GenVertexArrays(1, &so.vao)
	gl.GenBuffers(1, &so.vbo)

	gl.BindVertexArray(so.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, so.vbo)

	// Each vertex has 6 floats: 2 for position, 4 for color
	stride := int32(6 * 4)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	return so, nil
}

// Layout returns the rectangles for st as x,y,r,g,b,a vertices, two
// triangles per rectangle. Exposed for tests; Render uploads the result.
func Layout(st Status, width, height float32) []float32 {
	var v []float32
	if !st.Loaded {
		if st.Busy {
			v = appendRect(v, 10, height-30, 20, 20, busyColor)
		}
		return v
	}

	const trackW, trackH = 300, 12
	x, y := float32(10), height-30

	v = appendRect(v, x, y, trackW, trackH, trackColor)

	// Fill from the middle towards the current strength
	mid := x + trackW/2
	fill := float32(st.Strength) * trackW / 2
	color := inflateColor
	if fill < 0 {
		color = deflateColor
		v = appendRect(v, mid+fill, y, -fill, trackH, color)
	} else {
		v = appendRect(v, mid, y, fill, trackH, color)
	}
	v = appendRect(v, mid-1, y-3, 2, trackH+6, tickColor)

	clamp := clampOffColor
	if st.Clamp {
		clamp = clampOnColor
	}
	v = appendRect(v, x+trackW+12, y-4, 20, 20, clamp)

	if st.Busy {
		v = appendRect(v, x+trackW+40, y-4, 20, 20, busyColor)
	}
	return v
}

// Render draws the overlay over the current frame
func (so *StatusOverlay) Render(st Status) {
	so.vertices = Layout(st, so.width, so.height)
	if len(so.vertices) == 0 {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	gl.UseProgram(so.program)
	projection := mgl32.Ortho2D(0, so.width, so.height, 0)
	gl.UniformMatrix4fv(so.projLoc, 1, false, &projection[0])

	gl.BindVertexArray(so.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, so.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(so.vertices)*4, gl.Ptr(so.vertices), gl.DYNAMIC_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(so.vertices)/6))

	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
}

func appendRect(v []float32, x, y, w, h float32, c mgl32.Vec4) []float32 {
	return append(v,
		x, y, c[0], c[1], c[2], c[3],
		x+w, y, c[0], c[1], c[2], c[3],
		x, y+h, c[0], c[1], c[2], c[3],
		x+w, y, c[0], c[1], c[2], c[3],
		x+w, y+h, c[0], c[1], c[2], c[3],
		x, y+h, c[0], c[1], c[2], c[3],
	)
}

// UpdateSize updates viewport size
func (so *StatusOverlay) UpdateSize(width, height int) {
	so.width = float32(width)
	so.height = float32(height)
}

// Release cleans up resources
func (so *StatusOverlay) Release() {
	if so.program != 0 {
		gl.DeleteProgram(so.program)
	}
	if so.vao != 0 {
		gl.DeleteVertexArrays(1, &so.vao)
	}
	if so.vbo != 0 {
		gl.DeleteBuffers(1, &so.vbo)
	}
}
