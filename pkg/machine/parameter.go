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
	"strconv"
)

// Parameter is a single decoded operand: a raw cell value tagged with the
// mode that says how to interpret it.
type Parameter struct {
	Mode int64
	Raw  int64
}

func NewParameter(mode int64, raw int64) (Parameter, error) {
	switch mode {
	case MODE_POSITION, MODE_IMMEDIATE, MODE_RELATIVE:
		return Parameter{mode, raw}, nil
	}

	return Parameter{}, &UnsupportedModeError{Mode: mode}
}

// Address returns the memory address the parameter refers to. Immediate mode
// parameters have no address.
func (p Parameter) Address(relativeBase int64) (int64, error) {
	switch p.Mode {
	case MODE_POSITION:
		return p.Raw, nil
	case MODE_RELATIVE:
		return relativeBase + p.Raw, nil
	}

	return 0, ErrImmediateAddress
}

func (p Parameter) Value(mem *Memory, relativeBase int64) int64 {
	if p.Mode == MODE_IMMEDIATE {
		return p.Raw
	}

	addr, _ := p.Address(relativeBase)

	return mem.Read(addr)
}

// String formats the parameter the way the assembler reads it: #n for
// immediate, n for position and @n for relative operands.
func (p Parameter) String() string {
	switch p.Mode {
	case MODE_IMMEDIATE:
		return "#" + strconv.FormatInt(p.Raw, 10)
	case MODE_RELATIVE:
		return "@" + strconv.FormatInt(p.Raw, 10)
	}

	return strconv.FormatInt(p.Raw, 10)
}
