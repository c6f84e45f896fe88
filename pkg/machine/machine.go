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
	"io"
	"log/slog"

	"github.com/lassandro/intcode/pkg/encoding"
)

func New(program []int64, input InputSource, opts ...Option) *Machine {
	mc := &Machine{Input: input}

	for _, opt := range opts {
		opt(mc)
	}

	mc.Load(program)

	return mc
}

// MemorySize preallocates at least size cells when a program is loaded.
func MemorySize(size int) Option {
	return func(mc *Machine) { mc.memorySize = size }
}

func StepLimit(steps uint64) Option {
	return func(mc *Machine) { mc.MaxSteps = steps }
}

func WithDebugger(dbg MachineDebugger) Option {
	return func(mc *Machine) { mc.Debugger = dbg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(mc *Machine) { mc.Logger = logger }
}

func (mc *MachineState) Reset() {
	mc.Program = 0
	mc.RelativeBase = 0
	mc.Halted = false
	mc.Memory = Memory{}
	mc.Outputs = nil
}

// Load resets the machine and copies program into its memory. The input
// source, debugger and limits are kept.
func (mc *Machine) Load(program []int64) {
	mc.State.Reset()
	mc.State.Memory = NewMemory(program, mc.memorySize)
	mc.steps = 0
	mc.fault = nil
}

// LoadProgram parses a sep separated program from reader and loads it.
func (mc *Machine) LoadProgram(reader io.Reader, sep string) error {
	program, err := encoding.ReadProgram(reader, sep)

	if err != nil {
		return err
	}

	mc.Load(program)

	return nil
}

func (mc *Machine) SetInput(input InputSource) {
	mc.Input = input
}

func (mc *Machine) IsHalted() bool {
	return mc.State.Halted
}

// Err returns the fault that stopped the machine, if any.
func (mc *Machine) Err() error {
	return mc.fault
}

// Steps returns the number of instructions executed since the program was
// loaded.
func (mc *Machine) Steps() uint64 {
	return mc.steps
}

func (mc *Machine) LastOutput() (int64, bool) {
	if len(mc.State.Outputs) == 0 {
		return 0, false
	}

	return mc.State.Outputs[len(mc.State.Outputs)-1], true
}

func (mc *Machine) Outputs() []int64 {
	result := make([]int64, len(mc.State.Outputs))
	copy(result, mc.State.Outputs)
	return result
}

func (mc *Machine) OutputCount() int {
	return len(mc.State.Outputs)
}

func (mc *Machine) Output(i int) int64 {
	return mc.State.Outputs[i]
}

func (mc *Machine) Snapshot() Snapshot {
	return Snapshot{
		Program:      mc.State.Program,
		RelativeBase: mc.State.RelativeBase,
		Halted:       mc.State.Halted,
		Memory:       mc.State.Memory.Cells(),
		Outputs:      mc.Outputs(),
		Steps:        mc.steps,
	}
}

// Restore replaces the machine state with a snapshot and clears any fault.
func (mc *Machine) Restore(snapshot Snapshot) {
	mc.State.Program = snapshot.Program
	mc.State.RelativeBase = snapshot.RelativeBase
	mc.State.Halted = snapshot.Halted
	mc.State.Memory = NewMemory(snapshot.Memory, mc.memorySize)
	mc.State.Outputs = append([]int64(nil), snapshot.Outputs...)
	mc.steps = snapshot.Steps
	mc.fault = nil
}

func (mc *Machine) read(addr int64) int64 {
	value := mc.State.Memory.Read(addr)

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return value
}

func (mc *Machine) write(addr int64, value int64) {
	mc.State.Memory.Write(addr, value)

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) value(param Parameter) int64 {
	if param.Mode == MODE_IMMEDIATE {
		return param.Raw
	}

	addr, _ := param.Address(mc.State.RelativeBase)

	return mc.read(addr)
}

func (mc *Machine) address(param Parameter) int64 {
	addr, err := param.Address(mc.State.RelativeBase)

	if err != nil {
		panic(err)
	}

	return addr
}

func (mc *Machine) input() (int64, bool) {
	if mc.Input == nil {
		return 0, false
	}

	return mc.Input.Next()
}

func (mc *Machine) debug(msg string, args ...interface{}) {
	if mc.Logger == nil {
		return
	}

	mc.Logger.Debug(
		msg,
		append([]interface{}{"pc", mc.State.Program}, args...)...,
	)
}

func (mc *Machine) fail(err error) {
	mc.fault = err

	if mc.Logger != nil {
		mc.Logger.Error("machine fault", "pc", mc.State.Program, "err", err)
	}
}

// Run executes instructions until the program halts or pauses. A pause
// happens when an IN instruction finds no input available, in which case the
// same instruction is retried by the next call, or right after an OUT
// instruction when pauseOnOutput is set. All state is preserved between
// calls, so Run may be called again to resume.
//
// Running a halted machine does nothing. A malformed program stops the
// machine for good: the error is returned by this and every later call.
func (mc *Machine) Run(pauseOnOutput bool) error {
	var count uint64

	defer func() { mc.interrupted = false }()

	for !mc.State.Halted {
		if mc.interrupted {
			mc.debug("interrupted", "steps", count)
			return ErrInterrupted
		}

		if mc.MaxSteps > 0 && count >= mc.MaxSteps {
			mc.debug("step limit reached", "steps", count)
			return ErrStepLimit
		}

		state, err := mc.Step(pauseOnOutput)

		if err != nil {
			return err
		}

		if state != EXEC_CONTINUE {
			break
		}

		count++
	}

	return mc.fault
}

// Interrupt makes the Run in progress return ErrInterrupted once the
// current instruction completes. It is meant for debugger hooks and must be
// called from the goroutine running the machine.
func (mc *Machine) Interrupt() {
	mc.interrupted = true
}

// Step executes the single instruction at the program counter.
func (mc *Machine) Step(pauseOnOutput bool) (state ExecutionState, err error) {
	if mc.fault != nil {
		return EXEC_HALT, mc.fault
	}

	if mc.State.Halted {
		return EXEC_HALT, nil
	}

	pc := mc.State.Program

	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *AddressError:
				err = &FaultError{pc, e}
			case error:
				if e != ErrImmediateAddress {
					panic(r)
				}
				err = &FaultError{pc, e}
			default:
				panic(r)
			}

			mc.fail(err)
			state = EXEC_HALT
		}
	}()

	instruction, err := Decode(&mc.State.Memory, pc)

	if err != nil {
		mc.fail(err)
		return EXEC_HALT, err
	}

	state = mc.execute(instruction, pauseOnOutput)

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return state, nil
}

func (mc *Machine) execute(ins Instruction, pauseOnOutput bool) ExecutionState {
	params := ins.Params
	next := mc.State.Program + ins.Length()
	state := EXEC_CONTINUE

	switch ins.Op {
	// ADD  a b dest  | dest = a + b
	case OP_ADD:
		a, b := mc.value(params[0]), mc.value(params[1])
		mc.write(mc.address(params[2]), a+b)

	// MUL  a b dest  | dest = a * b
	case OP_MUL:
		a, b := mc.value(params[0]), mc.value(params[1])
		mc.write(mc.address(params[2]), a*b)

	// IN   dest      | dest = next input, pause without consuming if none
	case OP_IN:
		value, ok := mc.input()

		if !ok {
			mc.debug("waiting for input")
			return EXEC_PAUSE
		}

		mc.write(mc.address(params[0]), value)

	// OUT  a         | append a to the outputs
	case OP_OUT:
		value := mc.value(params[0])
		mc.State.Outputs = append(mc.State.Outputs, value)

		if pauseOnOutput {
			mc.debug("paused on output", "value", value)
			state = EXEC_PAUSE
		}

	// JT   a target  | jump when a != 0
	case OP_JT:
		a, target := mc.value(params[0]), mc.value(params[1])

		if a != 0 {
			next = target
		}

	// JF   a target  | jump when a == 0
	case OP_JF:
		a, target := mc.value(params[0]), mc.value(params[1])

		if a == 0 {
			next = target
		}

	// LT   a b dest  | dest = a < b
	case OP_LT:
		a, b := mc.value(params[0]), mc.value(params[1])
		mc.write(mc.address(params[2]), boolCell(a < b))

	// EQ   a b dest  | dest = a == b
	case OP_EQ:
		a, b := mc.value(params[0]), mc.value(params[1])
		mc.write(mc.address(params[2]), boolCell(a == b))

	// ARB  a         | relative base += a
	case OP_ARB:
		mc.State.RelativeBase += mc.value(params[0])

	// HLT            | stop for good, the program counter stays on HLT
	case OP_HALT:
		mc.State.Halted = true
		mc.steps++
		mc.debug("halted", "steps", mc.steps)
		return EXEC_HALT
	}

	mc.State.Program = next
	mc.steps++

	return state
}

func boolCell(b bool) int64 {
	if b {
		return 1
	}

	return 0
}
