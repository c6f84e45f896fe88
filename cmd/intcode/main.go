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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/config"
	"github.com/lassandro/intcode/pkg/encoding"
)

var cfg = config.Default()
var logger = slog.Default()

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func newRootCmd() *cobra.Command {
	var configPath string
	var logLevel string

	root := &cobra.Command{
		Use:   "intcode",
		Short: "Run, assemble and debug intcode programs",
		Long: `intcode runs programs for the intcode machine: comma separated integer
cells holding instructions and data. Programs may also be written in intcode
assembly (.asm) and assembled ahead of time or on the fly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error

			if configPath != "" {
				cfg, err = config.Load(configPath)
			} else {
				cfg, err = config.Find(".")
			}

			if err != nil {
				return err
			}

			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}

			level, err := config.ParseLevel(cfg.Log.Level)

			if err != nil {
				return err
			}

			logger = slog.New(
				slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
			)

			if cfg.Path != "" {
				logger.Debug("loaded config", "path", cfg.Path)
			}

			return nil
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(
		&configPath, "config", "",
		"Configuration file, defaults to the nearest "+config.FILENAME,
	)
	root.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "Log level (debug, info, warn, error)",
	)

	root.AddCommand(
		newRunCmd(),
		newAsmCmd(),
		newDisasmCmd(),
		newAmpCmd(),
		newNounVerbCmd(),
	)

	return root
}

func isAssembly(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s":
		return true
	}

	return false
}

// loadProgram reads program text, or assembles it when path names an
// assembly file. The symbol table is only filled for assembly. A path of "-"
// reads program text from stdin.
func loadProgram(path string, symtable *assembler.SymTable) ([]int64, error) {
	if path == "-" {
		program, err := encoding.ReadProgram(os.Stdin, cfg.Program.Separator)
		return program, errors.Wrap(err, "<stdin>")
	}

	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	if !isAssembly(path) {
		program, err := encoding.ReadProgram(file, cfg.Program.Separator)
		return program, errors.Wrap(err, path)
	}

	if symtable != nil {
		if symtable.Source, err = filepath.Abs(path); err != nil {
			symtable.Source = path
		}
	}

	program, errs := assembler.Assemble(file, symtable)

	if len(errs) > 0 {
		reportAssembly(file, filepath.Base(path), errs)
		return nil, errors.Errorf("%s: %d assembly errors", path, len(errs))
	}

	logger.Debug("assembled program", "path", path, "cells", len(program))

	return program, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
