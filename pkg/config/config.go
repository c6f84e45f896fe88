// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config handles intcode.toml configuration.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/lassandro/intcode/pkg/encoding"
)

const FILENAME = "intcode.toml"

type Config struct {
	Machine  MachineConfig  `toml:"machine"`
	Program  ProgramConfig  `toml:"program"`
	Log      LogConfig      `toml:"log"`
	Debugger DebuggerConfig `toml:"debugger"`

	// Path the configuration was loaded from, empty for defaults
	Path string `toml:"-"`
}

type MachineConfig struct {
	Memory        int    `toml:"memory"`
	MaxSteps      uint64 `toml:"max_steps"`
	PauseOnOutput bool   `toml:"pause_on_output"`
}

type ProgramConfig struct {
	Separator string `toml:"separator"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type DebuggerConfig struct {
	// Readline history file, disabled when empty
	History string `toml:"history"`
}

func Default() *Config {
	return &Config{
		Program: ProgramConfig{Separator: encoding.DEFAULT_SEPARATOR},
		Log:     LogConfig{Level: "warn"},
	}
}

// Load parses the file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}

	cfg := Default()

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parse error in %s", path)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	if cfg.Machine.Memory < 0 {
		return nil, errors.Errorf(
			"%s: machine.memory must not be negative", path,
		)
	}

	if cfg.Program.Separator == "" {
		return nil, errors.Errorf("%s: program.separator is empty", path)
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return nil, errors.Wrap(err, path)
	}

	cfg.Path = path

	return cfg, nil
}

// Find walks up from dir looking for intcode.toml and loads the first one
// found. Defaults are returned when there is none.
func Find(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FILENAME)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return 0, errors.Errorf("unknown log level %q", level)
}
