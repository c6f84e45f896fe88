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
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lassandro/intcode/pkg/machine"
)

// printer writes machine outputs to stdout, as characters in ASCII mode.
type printer struct {
	ascii  bool
	writer *bufio.Writer
	done   int
}

func newPrinter(ascii bool) *printer {
	return &printer{ascii: ascii, writer: bufio.NewWriter(os.Stdout)}
}

// Flush prints every output of mc not yet printed.
func (p *printer) Flush(mc *machine.Machine) {
	for ; p.done < mc.OutputCount(); p.done++ {
		value := mc.Output(p.done)

		if p.ascii && value >= 0 && value <= 127 {
			p.writer.WriteByte(byte(value))
		} else {
			fmt.Fprintln(p.writer, value)
		}
	}

	p.writer.Flush()
}

// chain polls each source in turn, moving on once one runs dry.
type chain []machine.InputSource

func (c *chain) Next() (int64, bool) {
	for len(*c) > 0 {
		if value, ok := (*c)[0].Next(); ok {
			return value, true
		}

		*c = (*c)[1:]
	}

	return 0, false
}

// runeInput yields the characters read from a reader.
type runeInput struct {
	reader *bufio.Reader
}

func (in *runeInput) Next() (int64, bool) {
	char, _, err := in.reader.ReadRune()

	if err != nil {
		return 0, false
	}

	return int64(char), true
}

// promptInput reads lines from a terminal when the program asks for input,
// after printing whatever the program has output so far.
type promptInput struct {
	rl      *readline.Instance
	ascii   bool
	before  func()
	pending *machine.Queue
}

func (in *promptInput) Next() (int64, bool) {
	for in.pending.Len() == 0 {
		if in.before != nil {
			in.before()
		}

		in.rl.SetPrompt("input> ")
		line, err := in.rl.Readline()

		if err != nil {
			return 0, false
		}

		if in.ascii {
			in.pending.PushString(line + "\n")
			continue
		}

		for _, field := range strings.FieldsFunc(line, isSeparator) {
			value, err := strconv.ParseInt(field, 10, 64)

			if err != nil {
				fmt.Fprintf(in.rl.Stderr(), "invalid integer %q\n", field)
				in.pending = machine.NewQueue()
				break
			}

			in.pending.Push(value)
		}
	}

	return in.pending.Next()
}

func isSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\t'
}

// keyInput yields single keypresses from a terminal in raw mode. Ctrl-D ends
// the input.
type keyInput struct {
	reader io.Reader
	before func()
}

func (in *keyInput) Next() (int64, bool) {
	var buf [1]byte

	if in.before != nil {
		in.before()
	}

	if _, err := io.ReadFull(in.reader, buf[:]); err != nil || buf[0] == 4 {
		return 0, false
	}

	return int64(buf[0]), true
}

func isTerminal(file *os.File) bool {
	stat, err := file.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}
