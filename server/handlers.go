package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"inflate3d/core"
	"inflate3d/meshio"
)

// Load starts loading src (file path, URL or built-in model) in the
// background and returns its ticket. Only the latest load can complete.
func (s *Server) Load(src string) (uint64, error) {
	return s.startLoad(func(ctx context.Context) (*core.Mesh, error) {
		return meshio.Open(ctx, s.client, src)
	})
}

// LoadRemote is Load restricted to sources a browser may ask for. Local
// paths are refused.
func (s *Server) LoadRemote(src string) (uint64, error) {
	if src != meshio.BuiltinIcosphere &&
		!strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return 0, fmt.Errorf("%w: load url must be http(s), got %q", core.ErrInvalidParameter, src)
	}
	return s.Load(src)
}

// Replace loads mesh immediately, superseding any load still in flight.
// Used for meshes that were read elsewhere, e.g. by a file watcher.
func (s *Server) Replace(ctx context.Context, mesh *core.Mesh) error {
	var lerr error
	err := s.do(ctx, func(sess *core.Session) bool {
		_, lerr = sess.Handle(core.LoadEvent{Mesh: mesh})
		return lerr == nil
	})
	if err != nil {
		return err
	}
	return lerr
}

func (s *Server) startLoad(read func(context.Context) (*core.Mesh, error)) (uint64, error) {
	ticket, err := s.beginLoad(s.life)
	if err != nil {
		return 0, err
	}
	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		ctx, cancel := context.WithTimeout(s.life, s.fetchTimeout)
		defer cancel()
		mesh, err := read(ctx)
		if err := s.finishLoad(s.life, ticket, mesh, err); err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Info("load did not complete", "ticket", ticket, "err", err)
		}
	}()
	return ticket, nil
}

func (s *Server) beginLoad(ctx context.Context) (uint64, error) {
	var ticket uint64
	err := s.do(ctx, func(sess *core.Session) bool {
		ticket = sess.BeginLoad()
		return true
	})
	return ticket, err
}

// finishLoad hands the result of a load back to the session. A superseded
// load is dropped without touching the session.
func (s *Server) finishLoad(ctx context.Context, ticket uint64, mesh *core.Mesh, readErr error) error {
	var lerr error
	err := s.do(ctx, func(sess *core.Session) bool {
		if readErr != nil {
			sess.FailLoad(ticket, readErr)
			lerr = readErr
			return true
		}
		_, lerr = sess.Handle(core.LoadEvent{Mesh: mesh, Ticket: ticket})
		return lerr == nil
	})
	if err != nil {
		return err
	}
	return lerr
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.stl"
	}
	ticket, err := s.beginLoad(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	mesh, readErr := meshio.Decode(http.MaxBytesReader(w, r.Body, meshio.MaxBytes), name)
	// The ticket must be settled even if the uploader has gone away
	err = s.finishLoad(s.life, ticket, mesh, readErr)

	var le *meshio.LoadError
	switch {
	case errors.Is(err, core.ErrSuperseded):
		http.Error(w, "a newer load replaced this upload", http.StatusConflict)
		return
	case errors.As(err, &le):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var tris []mgl64.Vec3
	var terr error
	err := s.do(r.Context(), func(sess *core.Session) bool {
		tris, terr = sess.WorldTriangles()
		return false
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if errors.Is(terr, core.ErrNotLoaded) {
		http.Error(w, "no mesh loaded", http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	encErr := meshio.Encode(&buf, tris)
	if err := s.do(r.Context(), func(sess *core.Session) bool {
		if encErr != nil {
			sess.SetStatus(core.StatusExportFail)
		} else {
			sess.SetStatus(core.StatusExported)
		}
		return true
	}); err != nil {
		s.logger.Warn("export status not recorded", "err", err)
	}
	if encErr != nil {
		s.logger.Error("export failed", "err", encErr)
		http.Error(w, encErr.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "model/stl")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meshio.ExportName))
	w.Write(buf.Bytes())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var st State
	err := s.do(r.Context(), func(sess *core.Session) bool {
		st = newState(sess)
		return false
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}
