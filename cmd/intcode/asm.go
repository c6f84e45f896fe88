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
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/encoding"
)

const SYMTABLE_EXT = ".icdb"

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// reportAssembly prints each error with the offending source line and a
// marker under the token.
func reportAssembly(input io.ReadSeeker, name string, errs []error) {
	for _, err := range errs {
		tokenErr, ok := err.(assembler.TokenError)

		if !ok {
			log.Printf("\033[1m%s:\033[0m%s", name, err)
			continue
		}

		cursor := tokenErr.GetPosition()

		if _, err := input.Seek(cursor.LineByte, io.SeekStart); err != nil {
			log.Printf("\033[1m%s:\033[0m%s", name, err)
			continue
		}

		line, _ := bufio.NewReader(input).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		width := int(cursor.Size)

		if rest := len(line) - cursor.Column + 1; width > rest {
			width = rest
		}

		if width < 1 {
			width = 1
		}

		underline := strings.Repeat(" ", cursor.Column-1) + "^" +
			strings.Repeat("~", width-1)

		log.Printf(
			"\033[1m%s:\033[0m%s\n%s\n\033[31m%s\033[0m",
			name,
			err,
			line,
			underline,
		)
	}
}

func loadSymTable(path string) (*assembler.SymTable, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		return nil, errors.Wrapf(err, "%s: invalid symbol table", path)
	}

	return &symtable, nil
}

func saveSymTable(path string, symtable *assembler.SymTable) error {
	file, err := os.Create(path)

	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(symtable); err != nil {
		file.Close()
		return errors.Wrapf(err, "%s: writing symbol table", path)
	}

	return file.Close()
}

func newAsmCmd() *cobra.Command {
	var outvar string
	var debugvar bool

	cmd := &cobra.Command{
		Use:   "asm FILE",
		Short: "Assemble intcode assembly into program text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var symtable *assembler.SymTable

			if !isAssembly(args[0]) {
				return errors.Errorf(
					"%s is not an intcode assembly file", args[0],
				)
			}

			if debugvar {
				symtable = assembler.NewSymTable("")
			}

			program, err := loadProgram(args[0], symtable)

			if err != nil {
				return err
			}

			if outvar == "" {
				outvar = replaceExt(args[0], ".ic")
			}

			text := encoding.FormatProgram(program, cfg.Program.Separator) + "\n"

			if err := os.WriteFile(outvar, []byte(text), 0666); err != nil {
				return errors.Wrap(err, "Error writing output file")
			}

			if debugvar {
				symfile := replaceExt(outvar, SYMTABLE_EXT)

				if err := saveSymTable(symfile, symtable); err != nil {
					return err
				}

				logger.Debug("wrote symbol table", "path", symfile)
			}

			logger.Info("assembled", "path", outvar, "cells", len(program))

			return nil
		},
	}

	cmd.Flags().StringVarP(
		&outvar, "out", "o", "",
		"Output file, defaults to the input name with extension '.ic'",
	)
	cmd.Flags().BoolVar(
		&debugvar, "debug", false,
		"Also write a symbol table next to the output with extension '"+
			SYMTABLE_EXT+"'",
	)

	return cmd
}

func newDisasmCmd() *cobra.Command {
	var symvar string

	cmd := &cobra.Command{
		Use:   "disasm FILE",
		Short: "Print a program as intcode assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symtable := assembler.NewSymTable("")

			program, err := loadProgram(args[0], symtable)

			if err != nil {
				return err
			}

			if symvar == "" && !isAssembly(args[0]) && args[0] != "-" {
				symvar = replaceExt(args[0], SYMTABLE_EXT)

				if _, err := os.Stat(symvar); err != nil {
					symvar = ""
				}
			}

			if symvar != "" {
				if symtable, err = loadSymTable(symvar); err != nil {
					return err
				}
			}

			lines := assembler.Disassemble(program)
			fmt.Print(assembler.Format(lines, symtable.Labels))

			return nil
		},
	}

	cmd.Flags().StringVar(
		&symvar, "symbols", "",
		"Symbol table providing labels, defaults to FILE with extension '"+
			SYMTABLE_EXT+"' when present",
	)

	return cmd
}
