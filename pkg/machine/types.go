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

package machine

import (
	"log/slog"
)

type ExecutionState uint

// InputSource yields the next input value, or false when none is available
// yet. A machine polls it only while executing an IN instruction and polls it
// again on the next run after a false result.
type InputSource interface {
	Next() (int64, bool)
}

type MachineState struct {
	// Program counter
	Program int64

	// Base added to relative mode operands
	RelativeBase int64

	Halted bool

	Memory Memory

	// Every value produced by OUT, oldest first
	Outputs []int64
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr int64, mc *Machine)
	Write(addr int64, mc *Machine)
}

type Machine struct {
	State    MachineState
	Input    InputSource
	Debugger MachineDebugger
	Logger   *slog.Logger

	// Instructions a single Run may execute before giving up, 0 for no limit
	MaxSteps uint64

	memorySize  int
	steps       uint64
	fault       error
	interrupted bool
}

// Option configures a Machine built by New.
type Option func(mc *Machine)

// Snapshot is a detached copy of everything a machine needs to resume.
type Snapshot struct {
	Program      int64
	RelativeBase int64
	Halted       bool
	Memory       []int64
	Outputs      []int64
	Steps        uint64
}
