// Package meshio moves meshes between STL bytes, files, URLs and core.Mesh.
package meshio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/unixpickle/model3d/model3d"

	"inflate3d/core"
)

// BuiltinIcosphere names the built-in sphere model accepted by Open
const BuiltinIcosphere = "builtin:icosphere"

// ExportName is the file name offered for downloads
const ExportName = "inflate3D_model.stl"

// MaxBytes bounds how much of a file or response body is read
const MaxBytes = 512 << 20

// LoadError reports a mesh that could not be read or decoded
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var errNoTriangles = errors.New("mesh has no triangles")

// Decode parses STL data (binary or ASCII) into a mesh named name
func Decode(r io.Reader, name string) (*core.Mesh, error) {
	tris, err := model3d.ReadSTL(r)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	if len(tris) == 0 {
		return nil, &LoadError{Source: name, Err: errNoTriangles}
	}

	positions := make([]mgl64.Vec3, 0, len(tris)*3)
	for _, t := range tris {
		for _, c := range t {
			positions = append(positions, mgl64.Vec3{c.X, c.Y, c.Z})
		}
	}
	mesh, err := core.NewMesh(name, positions)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return mesh, nil
}

// DecodeBytes is Decode over an in-memory buffer
func DecodeBytes(data []byte, name string) (*core.Mesh, error) {
	return Decode(bytes.NewReader(data), name)
}

// Encode writes a triangle soup as binary STL
func Encode(w io.Writer, positions []mgl64.Vec3) error {
	if len(positions)%3 != 0 {
		return fmt.Errorf("encode stl: %d positions is not a whole number of triangles", len(positions))
	}
	tris := make([]*model3d.Triangle, len(positions)/3)
	for i := range tris {
		a, b, c := positions[3*i], positions[3*i+1], positions[3*i+2]
		tris[i] = &model3d.Triangle{
			model3d.XYZ(a[0], a[1], a[2]),
			model3d.XYZ(b[0], b[1], b[2]),
			model3d.XYZ(c[0], c[1], c[2]),
		}
	}
	if err := model3d.WriteSTL(w, tris); err != nil {
		return fmt.Errorf("encode stl: %w", err)
	}
	return nil
}

// ReadFile loads an STL file from disk
func ReadFile(filename string) (*core.Mesh, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &LoadError{Source: filename, Err: err}
	}
	defer f.Close()

	return Decode(io.LimitReader(f, MaxBytes), filepath.Base(filename))
}

// Fetch downloads an STL over HTTP. Non-2xx responses are load errors.
func Fetch(ctx context.Context, client *http.Client, url string) (*core.Mesh, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &LoadError{Source: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Source: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	// Read fully first so a dropped connection is a load error, not a short mesh
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBytes))
	if err != nil {
		return nil, &LoadError{Source: url, Err: err}
	}
	return DecodeBytes(data, path.Base(req.URL.Path))
}

// Open resolves src as a URL, the built-in sphere or a file path
func Open(ctx context.Context, client *http.Client, src string) (*core.Mesh, error) {
	switch {
	case src == BuiltinIcosphere:
		return core.Icosphere(4, 1), nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return Fetch(ctx, client, src)
	default:
		return ReadFile(src)
	}
}

// WriteFile writes a triangle soup to filename as STL
func WriteFile(filename string, positions []mgl64.Vec3) error {
	var buf bytes.Buffer
	if err := Encode(&buf, positions); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0o644)
}
