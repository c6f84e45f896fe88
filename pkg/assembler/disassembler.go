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

package assembler

import (
	"strconv"
	"strings"

	"github.com/lassandro/intcode/pkg/machine"
)

// Line is a single disassembled statement.
type Line struct {
	Addr  int64
	Cells []int64
	Text  string
}

func dataLine(program []int64, addr int64) Line {
	return Line{
		Addr:  addr,
		Cells: []int64{program[addr]},
		Text:  ".DATA " + strconv.FormatInt(program[addr], 10),
	}
}

// Disassemble sweeps the program from address zero, decoding instructions
// back to back. Cells that do not decode, that run past the end of the
// program, or that would not assemble back to the same value are emitted as
// .DATA statements, so assembling the formatted output reproduces the
// program exactly.
func Disassemble(program []int64) []Line {
	lines := make([]Line, 0, len(program))
	mem := machine.NewMemory(program, 0)
	size := int64(len(program))

	for addr := int64(0); addr < size; {
		ins, err := machine.Decode(&mem, addr)

		if err != nil || addr+ins.Length() > size || !ins.Canonical() {
			lines = append(lines, dataLine(program, addr))
			addr++
			continue
		}

		cells := make([]int64, ins.Length())
		copy(cells, program[addr:addr+ins.Length()])

		lines = append(lines, Line{addr, cells, ins.String()})
		addr += ins.Length()
	}

	return lines
}

// Format renders disassembled lines as assembler source, placing labels on
// their own line ahead of the statement at their address.
func Format(lines []Line, labels map[int64]string) string {
	var builder strings.Builder

	for _, line := range lines {
		if label, exists := labels[line.Addr]; exists {
			builder.WriteString(label)
			builder.WriteString(":\n")
		}

		builder.WriteByte('\t')
		builder.WriteString(line.Text)
		builder.WriteByte('\n')
	}

	return builder.String()
}
