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
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/debugger"
	"github.com/lassandro/intcode/pkg/encoding"
	"github.com/lassandro/intcode/pkg/machine"
	"github.com/lassandro/intcode/pkg/snapshot"
)

var lastcmd []string

// State the REPL needs beyond the debugger itself
var (
	debugProgram []int64
	debugOut     *printer
	debugKeys    bool
)

func newDebugger(
	program []int64,
	symtable *assembler.SymTable,
	out *printer,
	keys bool,
) *debugger.Debugger {
	debugProgram = program
	debugOut = out
	debugKeys = keys

	dbg := &debugger.Debugger{
		SymTable:    symtable,
		HandleBreak: handleBreak,
		HandleRead:  handleRead,
		HandleWrite: handleWrite,
	}

	if symtable != nil && symtable.Source != "" {
		if file, err := os.Open(symtable.Source); err == nil {
			dbg.Source = file
		} else {
			logger.Warn("source unavailable", "path", symtable.Source, "err", err)
		}
	}

	return dbg
}

func closeDebugger(dbg *debugger.Debugger) {
	if closer, ok := dbg.Source.(io.Closer); ok {
		closer.Close()
	}
}

// resolveAddr accepts a label from the symbol table or a numeric address.
func resolveAddr(dbg *debugger.Debugger, text string) (int64, string, error) {
	if dbg.SymTable != nil {
		for addr, label := range dbg.SymTable.Labels {
			if strings.EqualFold(label, text) {
				return addr, label, nil
			}
		}
	}

	addr, err := encoding.DecodeAddr(text)

	return addr, "", err
}

func indexFormat(count int, suffix string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %%d%s\n", int64(digits)+1, suffix)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [addr|label]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, _, err := resolveAddr(dbg, args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%d]\n", addr)
		}

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		fmtstring := indexFormat(len(dbg.Breakpoints), "")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= len(dbg.Breakpoints) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.RemoveBreakpoint(dbg.Breakpoints[i].Addr)
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func watchTypeName(wtype debugger.WatchpointType) string {
	switch wtype {
	case debugger.ReadWatch:
		return "read"
	case debugger.WriteWatch:
		return "write"
	}

	return "rwrite"
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm]"

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [addr|label] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, _, err := resolveAddr(dbg, args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		dbg.AddWatchpoint(addr, wtype)
		fmt.Printf("Watchpoint added [%d] (%s)\n", addr, watchTypeName(wtype))

	case "l", "ls", "list":
		const usage = "watch list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		fmtstring := indexFormat(len(dbg.Watchpoints), " %s")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchTypeName(watchpoint.Type))
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= len(dbg.Watchpoints) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.RemoveWatchpoint(dbg.Watchpoints[i].Addr)
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func debugReg(mc *machine.Machine, args []string) {
	const usage = "register [PC|RB] [value]"

	if len(args) == 0 {
		fmt.Printf(
			"\033[1mPC:\033[0m %d\t\033[1mRB:\033[0m %d\n",
			mc.State.Program,
			mc.State.RelativeBase,
		)
		fmt.Printf(
			"\033[1mSteps:\033[0m %d\t\033[1mOutputs:\033[0m %d\t\033[1mHalted:\033[0m %t\n",
			mc.Steps(),
			mc.OutputCount(),
			mc.IsHalted(),
		)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	value, err := encoding.DecodeInt(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch name {
	case "PC":
		if value < 0 {
			log.Println("Program counter must not be negative")
			return
		}
		mc.State.Program = value
	case "RB":
		mc.State.RelativeBase = value
	default:
		log.Println("Invalid register")
		return
	}

	fmt.Printf("\033[1m%s:\033[0m %d\n", name, value)
}

// parseRange reads the "[addr|label] [#]" arguments shared by source and
// memory. A lone number that is not a label is taken as a count.
func parseRange(
	dbg *debugger.Debugger,
	mc *machine.Machine,
	args []string,
	size int64,
) (int64, int64, error) {
	addr := mc.State.Program

	if len(args) > 0 {
		var label string
		var err error

		addr, label, err = resolveAddr(dbg, args[0])

		if label == "" && len(args) == 1 && !strings.ContainsAny(args[0], "xX") {
			addr = mc.State.Program
			size, err = strconv.ParseInt(args[0], 10, 64)
		}

		if err != nil {
			return 0, 0, err
		}
	}

	if len(args) > 1 {
		var err error

		if size, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return 0, 0, err
		}
	}

	if addr < 0 || size < 0 {
		return 0, 0, fmt.Errorf("invalid range %d +%d", addr, size)
	}

	return addr, size, nil
}

func debugSource(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "source [addr|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr, size, err := parseRange(dbg, mc, args, 3)

	if err != nil {
		log.Println(err)
		return
	}

	dbg.PrintSource(mc, addr, size)
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		fmt.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]int64, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Printf(
			"\033[1m[%06d]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "jump [addr|label]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	addr, label, err := resolveAddr(dbg, args[0])

	if err != nil {
		fmt.Printf("Unable to find '%s'\n", args[0])
		return
	}

	if addr < 0 {
		log.Println("Program counter must not be negative")
		return
	}

	mc.State.Program = addr

	if label != "" {
		fmt.Printf("\033[1mPC:\033[0m %d \033[1;30m(%s)\033[0m\n", addr, label)
	} else {
		fmt.Printf("\033[1mPC:\033[0m %d\n", addr)
	}
}

func debugMemory(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "memory [addr|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr, size, err := parseRange(dbg, mc, args, 1)

	if err != nil {
		log.Println(err)
		return
	}

	dbg.PrintMem(&mc.State, addr, size)
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "set [addr|label] [value]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, _, err := resolveAddr(dbg, args[0])

	if err == nil && addr < 0 {
		err = fmt.Errorf("invalid address %d", addr)
	}

	if err != nil {
		log.Println(err)
		return
	}

	value, err := encoding.DecodeInt(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	mc.State.Memory.Write(addr, value)
	dbg.PrintMem(&mc.State, addr, 1)
}

func debugOutputs(mc *machine.Machine, args []string) {
	const usage = "outputs [#]"

	outputs := mc.Outputs()
	count := len(outputs)

	if len(args) > 1 {
		log.Println(usage)
		return
	}

	if len(args) == 1 {
		value, err := strconv.Atoi(args[0])

		if err != nil || value < 0 {
			log.Println(usage)
			return
		}

		if value < count {
			count = value
		}
	}

	for i, output := range outputs[len(outputs)-count:] {
		fmt.Printf("\033[1m#%d:\033[0m %d\n", len(outputs)-count+i, output)
	}
}

func debugSnapshot(mc *machine.Machine, cmd string, args []string) {
	if len(args) != 1 {
		log.Printf("%s [file]\n", cmd)
		return
	}

	if cmd == "save" {
		if err := snapshot.Save(args[0], mc); err != nil {
			log.Println(err)
			return
		}

		fmt.Printf("State saved to %s\n", args[0])
		return
	}

	state, err := snapshot.Load(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	mc.Restore(state)
	debugOut.done = mc.OutputCount()

	fmt.Printf("\033[1mPC:\033[0m %d\n", mc.State.Program)
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	if debugKeys {
		exitRawTerm()
		defer enterRawTerm()
	}

	debugOut.Flush(mc)

	term, err := terminal()

	if err != nil {
		log.Println(err)
		shouldexit = true
		mc.Interrupt()
		return
	}

	term.SetPrompt("\033[1;30m(dbg)\033[0m ")

	for {
		line, err := term.Readline()

		if err == readline.ErrInterrupt {
			continue
		}

		if err != nil {
			fmt.Println()
			shouldexit = true
			mc.Interrupt()
			return
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(mc, args)

		case "s", "src", "source":
			debugSource(dbg, mc, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, mc, args)

		case "m", "mem", "memory":
			debugMemory(dbg, mc, args)

		case "set":
			debugSet(dbg, mc, args)

		case "o", "out", "outputs":
			debugOutputs(mc, args)

		case "save", "load":
			debugSnapshot(mc, cmd, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			shouldexit = true
			mc.Interrupt()
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			mc.Load(debugProgram)
			debugOut.done = 0
			fmt.Println("Machine reset")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
		dbg.PrintSource(mc, mc.State.Program, 8)
	}
	debugREPL(dbg, mc)
}

func handleRead(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}
