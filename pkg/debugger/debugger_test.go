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

package debugger_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/debugger"
	"github.com/lassandro/intcode/pkg/machine"
)

const source = "ADD #2, #3, 7\nOUT 7\nHLT\n.DATA 0\n"

var program = []int64{1101, 2, 3, 7, 4, 7, 99, 0}

type recorder struct {
	Breaks []int64
	Reads  []int64
	Writes []int64
}

func newDebugger(rec *recorder) *debugger.Debugger {
	return &debugger.Debugger{
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			rec.Breaks = append(rec.Breaks, mc.State.Program)
		},
		HandleRead: func(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
			rec.Reads = append(rec.Reads, addr)
		},
		HandleWrite: func(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
			rec.Writes = append(rec.Writes, addr)
		},
	}
}

func run(t *testing.T, dbg *debugger.Debugger) *machine.Machine {
	mc := machine.New(program, nil, machine.WithDebugger(dbg))

	if err := mc.Run(false); err != nil {
		t.Fatal(err)
	}

	if !mc.IsHalted() {
		t.Fatalf("Machine did not halt\nwant:true\nhave:false")
	}

	return mc
}

func TestBreakpoints(t *testing.T) {
	t.Run("Breakpoint", func(t *testing.T) {
		var rec recorder
		dbg := newDebugger(&rec)
		dbg.AddBreakpoint(4)

		run(t, dbg)

		if want := []int64{4}; !reflect.DeepEqual(rec.Breaks, want) {
			t.Fatalf("Invalid breaks\nwant:%v\nhave:%v", want, rec.Breaks)
		}
	})

	t.Run("Break Every Step", func(t *testing.T) {
		var rec recorder
		dbg := newDebugger(&rec)
		dbg.Break = true

		run(t, dbg)

		if want := []int64{4, 6, 6}; !reflect.DeepEqual(rec.Breaks, want) {
			t.Fatalf("Invalid breaks\nwant:%v\nhave:%v", want, rec.Breaks)
		}
	})

	t.Run("Add Remove", func(t *testing.T) {
		var dbg debugger.Debugger

		if !dbg.AddBreakpoint(9) || !dbg.AddBreakpoint(2) {
			t.Fatalf("Breakpoint not added")
		}

		if dbg.AddBreakpoint(9) {
			t.Fatalf("Duplicate breakpoint added")
		}

		want := []debugger.Breakpoint{{2}, {9}}

		if !reflect.DeepEqual(dbg.Breakpoints, want) {
			t.Fatalf(
				"Invalid breakpoints\nwant:%v\nhave:%v",
				want,
				dbg.Breakpoints,
			)
		}

		if !dbg.RemoveBreakpoint(2) || dbg.RemoveBreakpoint(2) {
			t.Fatalf("Breakpoint removal mismatch")
		}

		if len(dbg.Breakpoints) != 1 {
			t.Fatalf("Invalid breakpoint count\nwant:1\nhave:%d", len(dbg.Breakpoints))
		}
	})

	t.Run("No Handler", func(t *testing.T) {
		dbg := &debugger.Debugger{Break: true}
		dbg.AddWatchpoint(7, debugger.ReadWriteWatch)

		run(t, dbg)
	})
}

func TestWatchpoints(t *testing.T) {
	type watchCase struct {
		Name   string
		Type   debugger.WatchpointType
		Reads  []int64
		Writes []int64
	}

	tests := []watchCase{
		{"Read", debugger.ReadWatch, []int64{7}, nil},
		{"Write", debugger.WriteWatch, nil, []int64{7}},
		{"ReadWrite", debugger.ReadWriteWatch, []int64{7}, []int64{7}},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var rec recorder
			dbg := newDebugger(&rec)
			dbg.AddWatchpoint(7, test.Type)

			run(t, dbg)

			if !reflect.DeepEqual(rec.Reads, test.Reads) {
				t.Fatalf("Invalid reads\nwant:%v\nhave:%v", test.Reads, rec.Reads)
			}

			if !reflect.DeepEqual(rec.Writes, test.Writes) {
				t.Fatalf("Invalid writes\nwant:%v\nhave:%v", test.Writes, rec.Writes)
			}
		})
	}

	t.Run("Replace", func(t *testing.T) {
		var dbg debugger.Debugger

		dbg.AddWatchpoint(7, debugger.ReadWatch)
		dbg.AddWatchpoint(7, debugger.WriteWatch)

		want := []debugger.Watchpoint{{7, debugger.WriteWatch}}

		if !reflect.DeepEqual(dbg.Watchpoints, want) {
			t.Fatalf(
				"Invalid watchpoints\nwant:%v\nhave:%v",
				want,
				dbg.Watchpoints,
			)
		}

		if !dbg.RemoveWatchpoint(7) || len(dbg.Watchpoints) != 0 {
			t.Fatalf("Watchpoint not removed")
		}
	})
}

func TestPrintMem(t *testing.T) {
	var out bytes.Buffer

	mc := machine.New(program, nil)
	dbg := &debugger.Debugger{Out: &out}

	dbg.PrintMem(&mc.State, 0, 8)

	want := "\033[1m[000000]\033[0m 1101 2 3 7 \n" +
		"\033[1m[000004]\033[0m 4 7 99 \033[1;30m0\033[0m \n"

	if have := out.String(); have != want {
		t.Fatalf("Invalid memory dump\nwant:%q\nhave:%q", want, have)
	}

	if size := mc.State.Memory.Len(); size < len(program) {
		t.Fatalf("Memory shrank\nwant:>=%d\nhave:%d", len(program), size)
	}

	before := mc.State.Memory.Len()
	out.Reset()
	dbg.PrintMem(&mc.State, int64(before), 2)

	if after := mc.State.Memory.Len(); after != before {
		t.Fatalf("PrintMem grew memory\nwant:%d\nhave:%d", before, after)
	}
}

func TestPrintSource(t *testing.T) {
	t.Run("Disassembly", func(t *testing.T) {
		var out bytes.Buffer

		mc := machine.New(program, nil)
		dbg := &debugger.Debugger{Out: &out}

		dbg.PrintSource(mc, 0, 2)

		want := "\033[1;32m[000000]\033[0m ADD #2, #3, 7\n" +
			"\033[1m[000004]\033[0m OUT 7\n"

		if have := out.String(); have != want {
			t.Fatalf("Invalid disassembly\nwant:%q\nhave:%q", want, have)
		}
	})

	t.Run("Source", func(t *testing.T) {
		var out bytes.Buffer

		symtable := assembler.NewSymTable(source)
		assembled, errs := assembler.Assemble(strings.NewReader(source), symtable)

		if len(errs) > 0 {
			t.Fatal(errs[0])
		}

		if !reflect.DeepEqual(assembled, program) {
			t.Fatalf("Program mismatch\nwant:%v\nhave:%v", program, assembled)
		}

		mc := machine.New(assembled, nil)
		dbg := &debugger.Debugger{
			Out:      &out,
			Source:   strings.NewReader(source),
			SymTable: symtable,
		}

		dbg.PrintSource(mc, 4, 2)

		want := "\033[1m[000004]\033[0m OUT 7\n" +
			"\033[1m[000006]\033[0m HLT\n"

		if have := out.String(); have != want {
			t.Fatalf("Invalid source\nwant:%q\nhave:%q", want, have)
		}

		out.Reset()
		dbg.PrintSource(mc, 5, 1)

		if want, have := "No instruction found at 5\n", out.String(); have != want {
			t.Fatalf("Invalid source\nwant:%q\nhave:%q", want, have)
		}
	})
}

func TestInterrupt(t *testing.T) {
	var rec recorder
	dbg := newDebugger(&rec)
	dbg.Interrupt()

	run(t, dbg)

	if want := []int64{4}; !reflect.DeepEqual(rec.Breaks, want) {
		t.Fatalf("Invalid breaks\nwant:%v\nhave:%v", want, rec.Breaks)
	}
}
