// Command inflate applies the radial inflate/deflate deformation to an STL
// file without a window and writes the result as STL.
//
//	inflate -in skull.stl -out fat_skull.stl -strength 0.4 -clamp
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"inflate3d/config"
	"inflate3d/core"
	"inflate3d/meshio"
)

func main() {
	var (
		center    vec3Flag
		translate vec3Flag
		j         job
	)
	configFile := flag.String("config", config.DefaultFile, "Settings file (TOML)")
	in := flag.String("in", "", "Input STL file or URL (required)")
	flag.StringVar(&j.Out, "out", meshio.ExportName, "Output STL file")
	flag.Float64Var(&j.Strength, "strength", 0, "Deformation strength, -1 (deflate) to 1 (inflate)")
	flag.Var(&center, "center", "Deformation center x,y,z in the recentered mesh frame (default bounding sphere center)")
	flag.BoolVar(&j.Clamp, "clamp", false, "Keep vertices from dropping below the original ground plane")
	flag.Float64Var(&j.RotateX, "rotate-x", 0, "Object rotation about X, degrees")
	flag.Float64Var(&j.RotateZ, "rotate-z", 0, "Object rotation about Z, degrees")
	flag.Var(&translate, "translate", "Object translation x,y,z")
	watch := flag.Bool("watch", false, "Re-run whenever the input file changes")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "inflate: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	settings, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *logLevel != "" {
		settings.Log.Level = *logLevel
	}
	logger := settings.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if _, ok := core.SanitizeStrength(j.Strength); !ok {
		fmt.Fprintf(os.Stderr, "inflate: invalid -strength %v\n", j.Strength)
		os.Exit(2)
	}
	if center.set {
		j.Center = &center.v
	}
	j.Translate = translate.v
	j.Decay = settings.Deform.Decay

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mesh, err := meshio.Open(ctx, nil, *in)
	if err != nil {
		logger.Error("load", "err", err)
		os.Exit(1)
	}
	if err := j.apply(mesh, logger); err != nil {
		logger.Error("inflate", "err", err)
		os.Exit(1)
	}
	if !*watch {
		return
	}

	w, err := meshio.NewWatcher(*in, meshio.DefaultDebounce, logger)
	if err != nil {
		logger.Error("watch", "err", err)
		os.Exit(1)
	}
	defer w.Close()
	go w.Run(ctx)

	logger.Info("watching for changes", "in", *in)
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-w.Meshes():
			if err := j.apply(m, logger); err != nil {
				logger.Error("inflate", "err", err)
			}
		case <-w.Errors():
		}
	}
}
