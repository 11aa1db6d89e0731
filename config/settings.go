// Package config loads inflate3d settings from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"inflate3d/core"
)

// DefaultFile is read when no -config flag is given
const DefaultFile = "settings.toml"

type Settings struct {
	Deform DeformSettings `toml:"deform"`
	Viewer ViewerSettings `toml:"viewer"`
	Server ServerSettings `toml:"server"`
	Log    LogSettings    `toml:"log"`
}

type DeformSettings struct {
	Decay float64 `toml:"decay"`
}

type ViewerSettings struct {
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	DefaultModel string  `toml:"default_model"`
	StrengthStep float64 `toml:"strength_step"`
	// Per key press, as a fraction of the bounding radius
	CenterStep float64 `toml:"center_step"`
	// Per key press, in degrees
	RotateStep float64 `toml:"rotate_step"`
}

type ServerSettings struct {
	Addr           string `toml:"addr"`
	FetchTimeoutMs int    `toml:"fetch_timeout_ms"`
	StaticDir      string `toml:"static_dir"`
}

type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// FetchTimeout is the server's URL load timeout as a duration
func (s ServerSettings) FetchTimeout() time.Duration {
	return time.Duration(s.FetchTimeoutMs) * time.Millisecond
}

// Default returns the settings used when no file is present
func Default() Settings {
	return Settings{
		Deform: DeformSettings{
			Decay: core.DefaultDecay,
		},
		Viewer: ViewerSettings{
			Width:        1280,
			Height:       720,
			DefaultModel: "model/skull_mesh.stl",
			StrengthStep: 0.05,
			CenterStep:   0.05,
			RotateStep:   15,
		},
		Server: ServerSettings{
			Addr:           ":8080",
			FetchTimeoutMs: 30000,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads settings from filename on top of the defaults. A missing file
// is not an error.
func Load(filename string) (Settings, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// Decode parses TOML on top of the defaults and validates the result.
// Unknown keys are rejected so typos do not silently fall back.
func Decode(r io.Reader) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Settings{}, fmt.Errorf("parse settings: %s", strict.String())
		}
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Encode writes s as TOML, e.g. to produce a starter settings file
func Encode(w io.Writer, s Settings) error {
	return toml.NewEncoder(w).Encode(s)
}

func (s Settings) Validate() error {
	var errs []error
	if !(s.Deform.Decay >= 0) {
		errs = append(errs, fmt.Errorf("deform.decay must be >= 0, got %v", s.Deform.Decay))
	}
	if s.Viewer.Width <= 0 || s.Viewer.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewer size must be positive, got %dx%d", s.Viewer.Width, s.Viewer.Height))
	}
	if !(s.Viewer.StrengthStep > 0 && s.Viewer.StrengthStep <= 1) {
		errs = append(errs, fmt.Errorf("viewer.strength_step must be in (0, 1], got %v", s.Viewer.StrengthStep))
	}
	if !(s.Viewer.CenterStep > 0) {
		errs = append(errs, fmt.Errorf("viewer.center_step must be > 0, got %v", s.Viewer.CenterStep))
	}
	if s.Server.FetchTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("server.fetch_timeout_ms must be > 0, got %d", s.Server.FetchTimeoutMs))
	}
	if _, err := parseLevel(s.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(s.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", s.Log.Format))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger described by the [log] section
func (l LogSettings) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
