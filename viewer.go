package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"inflate3d/config"
	"inflate3d/core"
	"inflate3d/meshio"
	"inflate3d/rendering/opengl"
	"inflate3d/rendering/scene"
)

type loadResult struct {
	ticket uint64
	mesh   *core.Mesh
	err    error
}

// viewer drives a session from the native window. Everything here runs on
// the main thread; background loads report back over channels.
type viewer struct {
	ctx      context.Context
	session  *core.Session
	renderer *opengl.MeshRenderer
	bindings scene.Bindings
	client   *http.Client
	logger   *slog.Logger

	loads    chan loadResult
	reloads  chan *core.Mesh
	exportTo string

	// A missing default model is not an error worth showing
	defaultTicket uint64

	dirty   bool
	reframe bool
}

func runViewer(ctx context.Context, settings config.Settings, watch bool, logger *slog.Logger) error {
	v := &viewer{
		ctx:     ctx,
		session: core.NewSession(core.WithDecay(settings.Deform.Decay), core.WithLogger(logger)),
		bindings: scene.Bindings{
			StrengthStep: settings.Viewer.StrengthStep,
			CenterStep:   settings.Viewer.CenterStep,
			RotateStep:   settings.Viewer.RotateStep,
		},
		client:   &http.Client{Timeout: settings.Server.FetchTimeout()},
		logger:   logger,
		loads:    make(chan loadResult, 4),
		reloads:  make(chan *core.Mesh, 1),
		exportTo: meshio.ExportName,
		dirty:    true,
	}

	renderer, err := opengl.NewMeshRenderer(settings.Viewer.Width, settings.Viewer.Height, opengl.Controls{
		OnAction: v.onAction,
		OnPick:   v.onPick,
		OnDrop:   v.onDrop,
	}, logger)
	if err != nil {
		return err
	}
	defer renderer.Terminate()
	v.renderer = renderer

	if src := settings.Viewer.DefaultModel; src != "" {
		v.defaultTicket = v.load(src)
		if watch && isFile(src) {
			go watchInto(ctx, src, logger, func(m *core.Mesh) {
				select {
				case <-v.reloads:
				default:
				}
				v.reloads <- m
			})
		}
	}

	logger.Info("controls",
		"strength", "[ ] or - +, 0 to zero",
		"flat base", "F",
		"reset", "R",
		"export", "E",
		"center", "arrows, PgUp/PgDn, shift+click",
		"rotate", "Q/W (shift reverses)",
		"load", "drop an STL on the window")

	for !renderer.ShouldClose() {
		if ctx.Err() != nil {
			renderer.Close()
			break
		}
		renderer.WaitEvents(1.0 / 30)
		v.drain()

		if v.dirty {
			renderer.Upload(v.session.Frame(), v.reframe)
			v.dirty, v.reframe = false, false
		}
		renderer.Render()
	}
	return nil
}

// load starts reading src in the background. Older loads are superseded.
func (v *viewer) load(src string) uint64 {
	ticket := v.session.BeginLoad()
	v.dirty = true
	go func() {
		mesh, err := meshio.Open(v.ctx, v.client, src)
		select {
		case v.loads <- loadResult{ticket: ticket, mesh: mesh, err: err}:
		case <-v.ctx.Done():
		}
	}()
	return ticket
}

func (v *viewer) drain() {
	for {
		select {
		case res := <-v.loads:
			v.finishLoad(res)
		case m := <-v.reloads:
			v.apply(core.LoadEvent{Mesh: m})
			v.reframe = true
		default:
			return
		}
	}
}

func (v *viewer) finishLoad(res loadResult) {
	if res.err != nil {
		current := v.session.FailLoad(res.ticket, res.err)
		if current && res.ticket == v.defaultTicket && !v.session.Loaded() {
			v.session.SetStatus(core.StatusEmpty)
		}
		v.dirty = true
		return
	}
	if v.apply(core.LoadEvent{Mesh: res.mesh, Ticket: res.ticket}) {
		v.reframe = true
	}
}

// apply hands ev to the session and reports whether it recomputed
func (v *viewer) apply(ev core.Event) bool {
	changed, err := v.session.Handle(ev)
	switch {
	case errors.Is(err, core.ErrSuperseded):
		v.logger.Debug("stale load dropped")
	case err != nil:
		v.logger.Warn("event rejected", "event", ev, "err", err)
	}
	if changed || err == nil {
		v.dirty = true
	}
	return changed
}

func (v *viewer) onAction(a scene.Action) {
	if a == scene.ActionExport {
		v.export()
		return
	}
	ev, ok := v.bindings.Event(a, v.session.Frame())
	if !ok {
		return
	}
	v.apply(ev)
	if s, ok := ev.(core.StrengthEvent); ok {
		v.logger.Info("strength", "value", v.session.Params().Strength, "requested", s.Value)
	}
}

func (v *viewer) onPick(local mgl64.Vec3) {
	v.apply(core.CenterEvent{Point: local})
}

func (v *viewer) onDrop(paths []string) {
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".stl") {
			v.load(p)
			return
		}
	}
	v.logger.Warn("dropped files contain no .stl", "paths", paths)
}

func (v *viewer) export() {
	tris, err := v.session.WorldTriangles()
	if err != nil {
		return
	}
	if err := meshio.WriteFile(v.exportTo, tris); err != nil {
		v.logger.Error("export failed", "path", v.exportTo, "err", err)
		v.session.SetStatus(core.StatusExportFail)
	} else {
		v.logger.Info("exported", "path", v.exportTo, "triangles", len(tris)/3)
		v.session.SetStatus(core.StatusExported)
	}
	v.dirty = true
}

// isFile reports whether src names a local file rather than a URL or the
// built-in model
func isFile(src string) bool {
	return src != meshio.BuiltinIcosphere &&
		!strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://")
}
