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
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/encoding"
	"github.com/lassandro/intcode/pkg/machine"
	"github.com/lassandro/intcode/pkg/snapshot"
)

var errWaiting = errors.New("program is waiting for input")

// Set by the debugger to stop the run loop
var shouldexit bool

var rl *readline.Instance

// terminal returns the readline instance shared by input prompts and the
// debugger.
func terminal() (*readline.Instance, error) {
	if rl != nil {
		return rl, nil
	}

	var err error

	rl, err = readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: cfg.Debugger.History,
	})

	return rl, err
}

func closeTerminal() {
	if rl != nil {
		rl.Close()
		rl = nil
	}
}

// applyPatch writes a single addr=value pair into memory.
func applyPatch(mc *machine.Machine, patch string) error {
	addrText, valueText, ok := strings.Cut(patch, "=")

	if !ok {
		return errors.Errorf("invalid patch %q, want addr=value", patch)
	}

	addr, err := encoding.DecodeAddr(strings.TrimSpace(addrText))

	if err != nil {
		return errors.Wrapf(err, "patch %q", patch)
	}

	value, err := encoding.DecodeInt(strings.TrimSpace(valueText))

	if err != nil {
		return errors.Wrapf(err, "patch %q", patch)
	}

	mc.State.Memory.Write(addr, value)

	return nil
}

type runOptions struct {
	Inputs   []int64
	ASCII    bool
	Pause    bool
	Patches  []string
	MaxSteps uint64
	Debug    bool
	Keys     bool
	Save     string
	Resume   string
}

func buildInput(opts *runOptions, before func()) (machine.InputSource, error) {
	sources := chain{machine.NewQueue(opts.Inputs...)}

	switch {
	case opts.Keys:
		if !isTerminal(os.Stdin) {
			return nil, errors.New("--keys requires stdin to be a terminal")
		}

		if err := enterRawTerm(); err != nil {
			return nil, errors.Wrap(err, "entering raw terminal mode")
		}

		sources = append(sources, &keyInput{os.Stdin, before})

	case !isTerminal(os.Stdin):
		if opts.ASCII {
			sources = append(sources, &runeInput{bufio.NewReader(os.Stdin)})
		} else {
			sources = append(sources, machine.NewReaderInput(os.Stdin))
		}

	default:
		term, err := terminal()

		if err != nil {
			return nil, err
		}

		sources = append(sources, &promptInput{
			rl:      term,
			ascii:   opts.ASCII,
			before:  before,
			pending: machine.NewQueue(),
		})
	}

	return &sources, nil
}

// drive runs mc until it halts, printing outputs as they appear. It returns
// errWaiting when the program needs input that no source can provide.
func drive(mc *machine.Machine, out *printer, pause bool) error {
	for !mc.IsHalted() && !shouldexit {
		outputs := mc.OutputCount()
		err := mc.Run(pause)
		out.Flush(mc)

		if err == machine.ErrInterrupted {
			continue
		}

		if err != nil {
			return err
		}

		if !mc.IsHalted() && mc.OutputCount() == outputs {
			return errWaiting
		}
	}

	return nil
}

func runProgram(path string, opts *runOptions) error {
	var symtable *assembler.SymTable

	if opts.Debug {
		symtable = assembler.NewSymTable("")
	}

	program, err := loadProgram(path, symtable)

	if err != nil {
		return err
	}

	if opts.Debug && !isAssembly(path) && path != "-" {
		symfile := replaceExt(path, SYMTABLE_EXT)

		if symtable, err = loadSymTable(symfile); err != nil {
			logger.Debug("no symbol table", "path", symfile, "err", err)
		}
	}

	mc := machine.New(
		program,
		nil,
		machine.MemorySize(cfg.Machine.Memory),
		machine.StepLimit(opts.MaxSteps),
		machine.WithLogger(logger),
	)

	if opts.Resume != "" {
		state, err := snapshot.Load(opts.Resume)

		if err != nil {
			return err
		}

		mc.Restore(state)
		logger.Info("resumed", "path", opts.Resume, "pc", state.Program)
	}

	for _, patch := range opts.Patches {
		if err := applyPatch(mc, patch); err != nil {
			return err
		}
	}

	out := newPrinter(opts.ASCII)

	// Outputs restored from a snapshot were printed by the earlier run
	out.done = mc.OutputCount()

	input, err := buildInput(opts, func() { out.Flush(mc) })

	if err != nil {
		return err
	}

	defer closeTerminal()
	defer exitRawTerm()

	mc.SetInput(input)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	if opts.Debug {
		dbg := newDebugger(program, symtable, out, opts.Keys)
		defer closeDebugger(dbg)

		mc.Debugger = dbg

		go func() {
			for range c {
				dbg.Interrupt()
			}
		}()

		debugREPL(dbg, mc)
	} else {
		go func() {
			for range c {
				exitRawTerm()
				fmt.Println()
				os.Exit(130)
			}
		}()
	}

	err = drive(mc, out, opts.Pause)

	switch {
	case err == nil, err == errWaiting, err == machine.ErrStepLimit:
		if opts.Save == "" {
			break
		}

		if err := snapshot.Save(opts.Save, mc); err != nil {
			return err
		}

		log.Printf("state saved to %s", opts.Save)

		return nil
	}

	return err
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a program until it halts",
		Long: `run loads program text (or assembly ending in .asm) and runs it. Input is
taken from --input values first, then stdin: integers when piped, a prompt on
a terminal, or single keypresses with --keys. Outputs are printed one per
line, or as characters with --ascii.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pause") {
				opts.Pause = cfg.Machine.PauseOnOutput
			}

			if !cmd.Flags().Changed("max-steps") {
				opts.MaxSteps = cfg.Machine.MaxSteps
			}

			return runProgram(args[0], &opts)
		},
	}

	flags := cmd.Flags()
	flags.Int64SliceVarP(&opts.Inputs, "input", "i", nil, "Input values fed before stdin")
	flags.BoolVar(&opts.ASCII, "ascii", false, "Treat input and output as ASCII text")
	flags.BoolVar(&opts.Pause, "pause", false, "Yield after every output")
	flags.StringArrayVar(&opts.Patches, "patch", nil, "Write addr=value into memory before running")
	flags.Uint64Var(&opts.MaxSteps, "max-steps", 0, "Stop after this many instructions, 0 for no limit")
	flags.BoolVar(&opts.Debug, "debug", false, "Runs the machine in a debug CLI")
	flags.BoolVar(&opts.Keys, "keys", false, "Read single keypresses from the terminal")
	flags.StringVar(&opts.Save, "save", "", "Save the machine state here when the run stops")
	flags.StringVar(&opts.Resume, "resume", "", "Resume from a saved machine state")

	return cmd
}
