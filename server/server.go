// Package server serves an inflate3d session to browsers over a websocket.
//
// One goroutine owns the core.Session. Websocket readers and HTTP handlers
// send it commands and every change is broadcast to all clients as a
// mesh_update message.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inflate3d/core"
)

// ErrClosed is returned for requests that arrive after the session loop exited
var ErrClosed = errors.New("server closed")

type Options struct {
	Addr         string
	StaticDir    string
	FetchTimeout time.Duration
	Client       *http.Client
	Logger       *slog.Logger
	Session      []core.Option
}

type Server struct {
	addr         string
	staticDir    string
	fetchTimeout time.Duration
	client       *http.Client
	logger       *slog.Logger

	session *core.Session // owned by Loop
	cmds    chan command

	life context.Context
	stop context.CancelFunc
	loads sync.WaitGroup

	upgrader  websocket.Upgrader
	clientsMu sync.RWMutex
	clients   map[*client]struct{}
}

// command runs on the session goroutine. It reports whether clients need a
// fresh mesh_update.
type command struct {
	fn   func(*core.Session) bool
	done chan struct{}
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	sessionOpts := append([]core.Option{core.WithLogger(opts.Logger)}, opts.Session...)

	life, stop := context.WithCancel(context.Background())
	return &Server{
		addr:         opts.Addr,
		staticDir:    opts.StaticDir,
		fetchTimeout: opts.FetchTimeout,
		client:       opts.Client,
		logger:       opts.Logger,
		session:      core.NewSession(sessionOpts...),
		cmds:         make(chan command),
		life:         life,
		stop:         stop,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Viewer pages may be served from anywhere
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// Loop runs the session goroutine until ctx is done. Run calls it; tests
// that only need Handler can start it directly.
func (s *Server) Loop(ctx context.Context) {
	defer s.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.life.Done():
			return
		case c := <-s.cmds:
			if c.fn(s.session) {
				s.broadcast(newMeshUpdate(s.session.Frame()))
			}
			close(c.done)
		}
	}
}

// Run serves HTTP on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		s.Loop(ctx)
	}()

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		s.logger.Warn("server shutdown", "err", serr)
	}
	s.stop()
	s.closeClients()
	<-loopDone
	s.loads.Wait()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Handler returns the HTTP routes. Loop must be running for them to answer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /export.stl", s.handleExport)
	mux.HandleFunc("GET /state", s.handleState)
	if s.staticDir != "" {
		if fi, err := os.Stat(s.staticDir); err == nil && fi.IsDir() {
			mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
		} else {
			s.logger.Warn("static dir not found, serving API only", "dir", s.staticDir)
		}
	}
	return mux
}

// do runs fn on the session goroutine and waits for it to finish
func (s *Server) do(ctx context.Context, fn func(*core.Session) bool) error {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.life.Done():
		return ErrClosed
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.life.Done():
		return ErrClosed
	}
}
