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
	"strings"
)

type operation struct {
	Mnemonic string
	Operands int

	// Index of the operand written to, -1 when nothing is written
	Target int
}

var operations = map[int64]operation{
	OP_ADD:  {"ADD", 3, 2},
	OP_MUL:  {"MUL", 3, 2},
	OP_IN:   {"IN", 1, 0},
	OP_OUT:  {"OUT", 1, -1},
	OP_JT:   {"JT", 2, -1},
	OP_JF:   {"JF", 2, -1},
	OP_LT:   {"LT", 3, 2},
	OP_EQ:   {"EQ", 3, 2},
	OP_ARB:  {"ARB", 1, -1},
	OP_HALT: {"HLT", 0, -1},
}

// Instruction is the decoded form of the cells at one program counter.
type Instruction struct {
	Op     int64
	Opcode int64
	Params [MAX_OPERANDS]Parameter
}

// Mnemonic returns the assembler name of an operation code, or an empty
// string for codes outside the instruction set.
func Mnemonic(op int64) string {
	return operations[op].Mnemonic
}

// OperandCount returns how many operands follow an operation code.
func OperandCount(op int64) (int, bool) {
	o, ok := operations[op]
	return o.Operands, ok
}

// Lookup returns the operation code for an assembler mnemonic, ignoring case.
func Lookup(mnemonic string) (int64, bool) {
	for op, o := range operations {
		if strings.EqualFold(o.Mnemonic, mnemonic) {
			return op, true
		}
	}

	return 0, false
}

// WriteTarget returns the index of the operand an operation writes to, or -1.
func WriteTarget(op int64) int {
	o, ok := operations[op]

	if !ok {
		return -1
	}

	return o.Target
}

// EncodeOpcode builds the opcode cell for an operation code and the modes of
// its operands, first operand first.
func EncodeOpcode(op int64, modes ...int64) int64 {
	opcode := op
	scale := int64(100)

	for _, mode := range modes {
		opcode += mode * scale
		scale *= 10
	}

	return opcode
}

// Operands returns the parameters actually used by the instruction.
func (ins Instruction) Operands() []Parameter {
	return ins.Params[:operations[ins.Op].Operands]
}

// Length is the number of cells the instruction occupies, opcode included.
func (ins Instruction) Length() int64 {
	return int64(operations[ins.Op].Operands) + 1
}

func (ins Instruction) String() string {
	var builder strings.Builder

	builder.WriteString(operations[ins.Op].Mnemonic)

	for i, param := range ins.Operands() {
		if i == 0 {
			builder.WriteByte(' ')
		} else {
			builder.WriteString(", ")
		}
		builder.WriteString(param.String())
	}

	return builder.String()
}

// Canonical reports whether the opcode cell is exactly what EncodeOpcode
// produces for the decoded instruction, i.e. it carries no ignored digits.
func (ins Instruction) Canonical() bool {
	modes := make([]int64, 0, MAX_OPERANDS)

	for _, param := range ins.Operands() {
		modes = append(modes, param.Mode)
	}

	return EncodeOpcode(ins.Op, modes...) == ins.Opcode
}

// Decode reads the instruction stored at pc.
//
// |  ten-thousands | thousands | hundreds | tens ones |
// |  mode 3        | mode 2    | mode 1   | operation |
//
// Mode digits default to position mode when absent. Digits beyond the
// operands an operation takes are not inspected.
func Decode(mem *Memory, pc int64) (Instruction, error) {
	var ins Instruction

	opcode := mem.Read(pc)
	ins.Opcode = opcode
	ins.Op = opcode % 100

	op, ok := operations[ins.Op]

	if !ok {
		return ins, &UnsupportedOpcodeError{pc, opcode}
	}

	modes := opcode / 100

	for i := 0; i < op.Operands; i++ {
		mode := modes % 10
		modes /= 10

		param, err := NewParameter(mode, mem.Read(pc+int64(i)+1))

		if err != nil {
			return ins, &UnsupportedModeError{pc, opcode, i + 1, mode}
		}

		if i == op.Target && mode == MODE_IMMEDIATE {
			return ins, &ImmediateWriteError{pc, opcode, i + 1}
		}

		ins.Params[i] = param
	}

	return ins, nil
}
