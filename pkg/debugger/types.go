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
	"io"
	"sync/atomic"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/machine"
)

type WatchpointType uint

type Watchpoint struct {
	Addr int64
	Type WatchpointType
}

type Breakpoint struct {
	Addr int64
}

// Debugger implements machine.MachineDebugger. Handlers left nil are
// skipped.
type Debugger struct {
	Break bool

	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	Source   io.ReadSeeker
	SymTable *assembler.SymTable

	// Destination of PrintMem and PrintSource, os.Stdout when nil
	Out io.Writer

	HandleBreak func(*Debugger, *machine.Machine)
	HandleRead  func(int64, *Debugger, *machine.Machine)
	HandleWrite func(int64, *Debugger, *machine.Machine)

	interrupt atomic.Bool
}
