package meshio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"inflate3d/core"
)

// DefaultDebounce is how long a file must stay quiet before it is re-read
const DefaultDebounce = 150 * time.Millisecond

// Watcher re-reads an STL file whenever it changes on disk. The parent
// directory is watched so editors that replace the file are picked up too.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	fs     *fsnotify.Watcher
	meshes chan *core.Mesh
	errs   chan error
}

// NewWatcher starts watching filename. Call Run to deliver meshes and Close
// when done.
func NewWatcher(filename string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", filename, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", filename, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filename, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		logger:   logger,
		fs:       fw,
		meshes:   make(chan *core.Mesh, 1),
		errs:     make(chan error, 1),
	}, nil
}

// Meshes delivers each successfully decoded version of the file
func (w *Watcher) Meshes() <-chan *core.Mesh { return w.meshes }

// Errors delivers read and decode failures; the watcher keeps running
func (w *Watcher) Errors() <-chan error { return w.errs }

// Run processes file events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "path", w.path, "err", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	mesh, err := ReadFile(w.path)
	if err != nil {
		w.logger.Warn("reload failed", "path", w.path, "err", err)
		select {
		case w.errs <- err:
		case <-ctx.Done():
		default:
			// nobody listening, drop it
		}
		return
	}
	w.logger.Info("mesh file changed", "path", w.path, "triangles", mesh.TriangleCount())

	// Keep only the newest version if the consumer is behind
	select {
	case <-w.meshes:
	default:
	}
	select {
	case w.meshes <- mesh:
	case <-ctx.Done():
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fs.Close()
}
