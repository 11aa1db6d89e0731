package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"inflate3d/config"
	"inflate3d/core"
	"inflate3d/meshio"
	"inflate3d/server"
)

func init() {
	// GLFW calls must come from the main thread
	runtime.LockOSThread()
}

func main() {
	var (
		configFile = flag.String("config", config.DefaultFile, "Settings file (TOML)")
		model      = flag.String("model", "", "STL file or URL to open (default from settings)")
		serve      = flag.Bool("serve", false, "Serve the editor over HTTP/websocket instead of opening a window")
		addr       = flag.String("addr", "", "Listen address for -serve (default from settings)")
		watch      = flag.Bool("watch", false, "Reload the model whenever the file changes")
		width      = flag.Int("width", 0, "Window width")
		height     = flag.Int("height", 0, "Window height")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
		writeCfg   = flag.Bool("write-config", false, "Print the effective settings as TOML and exit")
	)
	flag.Parse()

	settings, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// Flags override the file
	if *model != "" {
		settings.Viewer.DefaultModel = *model
	}
	if *addr != "" {
		settings.Server.Addr = *addr
	}
	if *width > 0 {
		settings.Viewer.Width = *width
	}
	if *height > 0 {
		settings.Viewer.Height = *height
	}
	if *logLevel != "" {
		settings.Log.Level = *logLevel
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *writeCfg {
		if err := config.Encode(os.Stdout, settings); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger := settings.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		err = runServer(ctx, settings, *watch, logger)
	} else {
		err = runViewer(ctx, settings, *watch, logger)
	}
	if err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, settings config.Settings, watch bool, logger *slog.Logger) error {
	srv := server.New(server.Options{
		Addr:         settings.Server.Addr,
		StaticDir:    settings.Server.StaticDir,
		FetchTimeout: settings.Server.FetchTimeout(),
		Logger:       logger,
		Session:      []core.Option{core.WithDecay(settings.Deform.Decay)},
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	if src := settings.Viewer.DefaultModel; src != "" {
		// Failure leaves the server empty; clients can still upload
		if _, err := srv.Load(src); err != nil {
			logger.Warn("default model", "src", src, "err", err)
		}
		if watch && isFile(src) {
			go watchInto(ctx, src, logger, func(m *core.Mesh) {
				if err := srv.Replace(ctx, m); err != nil {
					logger.Warn("reload", "err", err)
				}
			})
		}
	}
	return <-errc
}

// watchInto feeds every new version of filename to apply until ctx is done
func watchInto(ctx context.Context, filename string, logger *slog.Logger, apply func(*core.Mesh)) {
	w, err := meshio.NewWatcher(filename, meshio.DefaultDebounce, logger)
	if err != nil {
		logger.Warn("watch disabled", "err", err)
		return
	}
	defer w.Close()
	go w.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-w.Meshes():
			apply(m)
		case <-w.Errors():
			// already logged by the watcher
		}
	}
}
