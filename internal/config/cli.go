// Package config defines the Kong CLI surface (the "control binary" of
// spec.md §6) and turns its configuration options into a running
// Dispatcher wired to one of the two transports. Wiring and flag-struct
// shape follow the teacher's cmd/viiper/viiper.go (Kong + kong-toml +
// kong-yaml) and internal/cmd/{server,config}.go (per-command struct
// with a Run method; reflection-driven config-template scaffold).
package config

import (
	"log/slog"

	"github.com/Alia5/hidperiphd/internal/log"
)

// LogOptions are the CLI's global logging flags, identical in shape to
// the teacher's cli.Log.{Level,File,RawFile}.
type LogOptions struct {
	Level   string `help:"Log level (trace,debug,info,warn,error)" enum:"trace,debug,info,warn,error" default:"info" env:"HIDPERIPHD_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of stdout/stderr" env:"HIDPERIPHD_LOG_FILE"`
	RawFile string `help:"Write raw HID report hex dumps to this file" env:"HIDPERIPHD_LOG_RAW_FILE"`
}

// CLI is the top-level Kong command tree bound in cmd/hidperiphd.
type CLI struct {
	Log LogOptions `embed:"" prefix:"log."`

	Server ServerCommand `cmd:"" default:"1" help:"Run the HID peripheral server"`
	Config ConfigCommand `cmd:"" help:"Configuration file management"`
}

// ParsedLevel resolves the Level string into a slog.Level, defaulting
// to Info on a bad value rather than failing CLI parse (Kong's enum tag
// already rejects unknown values before Run executes).
func (l LogOptions) ParsedLevel() slog.Level {
	lvl, err := log.ParseLevel(l.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}
