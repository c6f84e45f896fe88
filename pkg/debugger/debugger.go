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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/machine"
)

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.interrupt.Swap(false) || dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

// Interrupt requests a break after the next instruction. Unlike setting
// Break it may be called from any goroutine, e.g. a signal handler.
func (dbg *Debugger) Interrupt() {
	dbg.interrupt.Store(true)
}

func (dbg *Debugger) Read(addr int64, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr int64, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// AddBreakpoint reports false when a breakpoint already exists at addr.
func (dbg *Debugger) AddBreakpoint(addr int64) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})

	sort.Slice(dbg.Breakpoints, func(i, j int) bool {
		return dbg.Breakpoints[i].Addr < dbg.Breakpoints[j].Addr
	})

	return true
}

func (dbg *Debugger) RemoveBreakpoint(addr int64) bool {
	for i, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			dbg.Breakpoints = append(
				dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...,
			)
			return true
		}
	}

	return false
}

// AddWatchpoint replaces the type of an existing watchpoint on addr.
func (dbg *Debugger) AddWatchpoint(addr int64, wtype WatchpointType) {
	for i, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr {
			dbg.Watchpoints[i].Type = wtype
			return
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})

	sort.Slice(dbg.Watchpoints, func(i, j int) bool {
		return dbg.Watchpoints[i].Addr < dbg.Watchpoints[j].Addr
	})
}

func (dbg *Debugger) RemoveWatchpoint(addr int64) bool {
	for i, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr {
			dbg.Watchpoints = append(
				dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...,
			)
			return true
		}
	}

	return false
}

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return os.Stdout
	}

	return dbg.Out
}

// PrintSource prints count lines starting at addr. With a source file and
// symbol table loaded the assembly source is shown, otherwise the
// machine's memory is disassembled.
func (dbg *Debugger) PrintSource(mc *machine.Machine, addr, count int64) {
	out := dbg.out()

	if dbg.Source == nil || dbg.SymTable == nil {
		dbg.printDisassembly(mc, addr, count)
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(out, "No instruction found at %d\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(out, err)
		return
	}

	lineaddrs := make(map[int64]int64, len(dbg.SymTable.Symbols))

	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		lineaddrs[linebyte] = lineaddr
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := int64(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, found := lineaddrs[offset]; found {
			dbg.printAddr(lineaddr, mc.State.Program)
		} else {
			fmt.Fprint(out, "\033[1;30m~~~~~~\033[0m ")
		}

		fmt.Fprintln(out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, err)
	}
}

func (dbg *Debugger) printDisassembly(mc *machine.Machine, addr, count int64) {
	out := dbg.out()
	lines := assembler.Disassemble(mc.State.Memory.Cells())

	var labels map[int64]string

	if dbg.SymTable != nil {
		labels = dbg.SymTable.Labels
	}

	printed := int64(0)

	for _, line := range lines {
		if line.Addr+int64(len(line.Cells)) <= addr {
			continue
		}

		if printed >= count {
			break
		}

		if label, exists := labels[line.Addr]; exists {
			fmt.Fprintf(out, "%s:\n", label)
		}

		dbg.printAddr(line.Addr, mc.State.Program)
		fmt.Fprintln(out, line.Text)

		printed++
	}

	if printed == 0 {
		fmt.Fprintf(out, "No instruction found at %d\n", addr)
	}
}

func (dbg *Debugger) printAddr(addr, pc int64) {
	if addr == pc {
		fmt.Fprintf(dbg.out(), "\033[1;32m[%06d]\033[0m ", addr)
	} else {
		fmt.Fprintf(dbg.out(), "\033[1m[%06d]\033[0m ", addr)
	}
}

// PrintMem prints count cells from addr without growing memory; cells past
// the end read as zero.
func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count int64) {
	out := dbg.out()
	size := int64(mc.Memory.Len())

	for i := addr; i < addr+count; i++ {
		if i == addr {
			fmt.Fprintf(out, "\033[1m[%06d]\033[0m ", i)
		} else if (i-addr)%MEM_COLUMNS == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%06d]\033[0m ", i)
		}

		var result int64

		if i >= 0 && i < size {
			result = mc.Memory.Read(i)
		}

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%d\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%d ", result)
		}
	}

	fmt.Fprintln(out)
}
