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
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrImmediateAddress = errors.New("immediate mode parameter used as an address")
	ErrStepLimit        = errors.New("step limit reached")
	ErrInterrupted      = errors.New("run interrupted")
)

// UnsupportedOpcodeError reports an opcode cell whose two low digits name no
// known operation.
type UnsupportedOpcodeError struct {
	Program int64
	Opcode  int64
}

func (err *UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("pc %d: unsupported opcode %d", err.Program, err.Opcode)
}

type UnsupportedModeError struct {
	Program int64
	Opcode  int64
	Operand int
	Mode    int64
}

func (err *UnsupportedModeError) Error() string {
	if err.Operand == 0 {
		return fmt.Sprintf("unsupported parameter mode %d", err.Mode)
	}

	return fmt.Sprintf(
		"pc %d: opcode %d: operand %d: unsupported parameter mode %d",
		err.Program,
		err.Opcode,
		err.Operand,
		err.Mode,
	)
}

// ImmediateWriteError reports an instruction whose destination operand is
// encoded in immediate mode.
type ImmediateWriteError struct {
	Program int64
	Opcode  int64
	Operand int
}

func (err *ImmediateWriteError) Error() string {
	return fmt.Sprintf(
		"pc %d: opcode %d: operand %d: immediate mode is not a valid write target",
		err.Program,
		err.Opcode,
		err.Operand,
	)
}

// FaultError wraps a failure raised while executing the instruction at
// Program, such as a negative memory address.
type FaultError struct {
	Program int64
	Err     error
}

func (err *FaultError) Error() string {
	return fmt.Sprintf("pc %d: %v", err.Program, err.Err)
}

func (err *FaultError) Unwrap() error {
	return err.Err
}
