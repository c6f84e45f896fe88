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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/debugger"
	"github.com/lassandro/intcode/pkg/machine"
)

func TestApplyPatch(t *testing.T) {
	mc := machine.New([]int64{1, 0, 0, 0, 99}, nil)

	require.NoError(t, applyPatch(mc, "1=12"))
	require.NoError(t, applyPatch(mc, " x2 = #2 "))
	require.NoError(t, applyPatch(mc, "9=-1"))

	require.Equal(t, int64(12), mc.State.Memory.Read(1))
	require.Equal(t, int64(2), mc.State.Memory.Read(2))
	require.Equal(t, int64(-1), mc.State.Memory.Read(9))

	for _, patch := range []string{"12", "a=1", "1=b", "-1=0"} {
		require.Error(t, applyPatch(mc, patch), patch)
	}
}

func bufferPrinter(ascii bool) (*printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return &printer{ascii: ascii, writer: bufio.NewWriter(&buf)}, &buf
}

func TestDrive(t *testing.T) {
	testCases := []struct {
		name    string
		program []int64
		input   []int64
		ascii   bool
		pause   bool
		want    string
		wantErr error
	}{
		{
			name:    "Echo",
			program: []int64{3, 0, 4, 0, 99},
			input:   []int64{7},
			want:    "7\n",
		},
		{
			name:    "Paused Outputs",
			program: []int64{104, 1, 104, 2, 99},
			pause:   true,
			want:    "1\n2\n",
		},
		{
			name:    "ASCII",
			program: []int64{104, 72, 104, 105, 104, 1000, 99},
			ascii:   true,
			want:    "Hi1000\n",
		},
		{
			name:    "Waiting",
			program: []int64{104, 5, 3, 0, 99},
			want:    "5\n",
			wantErr: errWaiting,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			shouldexit = false

			out, buf := bufferPrinter(tc.ascii)
			mc := machine.New(tc.program, machine.NewQueue(tc.input...))

			err := drive(mc, out, tc.pause)

			require.Equal(t, tc.wantErr, err)
			require.Equal(t, tc.want, buf.String())
		})
	}
}

func TestDriveFault(t *testing.T) {
	out, _ := bufferPrinter(false)
	mc := machine.New([]int64{42}, nil)

	var opErr *machine.UnsupportedOpcodeError
	require.ErrorAs(t, drive(mc, out, false), &opErr)
}

func TestChain(t *testing.T) {
	sources := chain{
		machine.NewQueue(1),
		machine.NewQueue(),
		machine.NewQueue(2, 3),
	}

	var have []int64

	for {
		value, ok := sources.Next()

		if !ok {
			break
		}

		have = append(have, value)
	}

	require.Equal(t, []int64{1, 2, 3}, have)
	require.Empty(t, sources)
}

func TestKeyInput(t *testing.T) {
	flushed := 0
	in := &keyInput{
		reader: strings.NewReader("a\x04b"),
		before: func() { flushed++ },
	}

	value, ok := in.Next()
	require.True(t, ok)
	require.Equal(t, int64('a'), value)

	_, ok = in.Next()
	require.False(t, ok)
	require.Equal(t, 2, flushed)
}

func TestRuneInput(t *testing.T) {
	in := &runeInput{bufio.NewReader(strings.NewReader("hé\n"))}

	var have []int64

	for value, ok := in.Next(); ok; value, ok = in.Next() {
		have = append(have, value)
	}

	require.Equal(t, []int64{'h', 'é', '\n'}, have)
}

func TestParseRange(t *testing.T) {
	symtable := assembler.NewSymTable("")
	symtable.Labels[4] = "loop"

	dbg := &debugger.Debugger{SymTable: symtable}
	mc := machine.New([]int64{99}, nil)
	mc.State.Program = 2

	testCases := []struct {
		args []string
		addr int64
		size int64
	}{
		{nil, 2, 3},
		{[]string{"5"}, 2, 5},
		{[]string{"LOOP"}, 4, 3},
		{[]string{"loop", "1"}, 4, 1},
		{[]string{"x10"}, 16, 3},
		{[]string{"7", "2"}, 7, 2},
	}

	for _, tc := range testCases {
		addr, size, err := parseRange(dbg, mc, tc.args, 3)

		require.NoError(t, err, tc.args)
		require.Equal(t, tc.addr, addr, tc.args)
		require.Equal(t, tc.size, size, tc.args)
	}

	_, _, err := parseRange(dbg, mc, []string{"nowhere", "1"}, 3)
	require.Error(t, err)
}

func TestReplaceExt(t *testing.T) {
	require.Equal(t, "prog.icdb", replaceExt("prog.asm", SYMTABLE_EXT))
	require.Equal(t, "dir.v2/prog.ic", replaceExt("dir.v2/prog", ".ic"))
	require.True(t, isAssembly("a/b.ASM"))
	require.False(t, isAssembly("a/b.ic"))
}
