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
)

// AddressError is the panic value raised by Memory when asked for a negative
// address. Run recovers it and reports it as a fault at the current program
// counter.
type AddressError struct {
	Addr int64
}

func (err *AddressError) Error() string {
	return fmt.Sprintf("negative address %d", err.Addr)
}

// Memory is a zero-indexed array of cells that grows on demand. Any
// non-negative address may be read or written; cells that were never written
// read as zero.
//
// Passing a negative address is a precondition violation and panics with an
// *AddressError.
type Memory struct {
	cells []int64
}

func NewMemory(program []int64, size int) Memory {
	if size < len(program) {
		size = len(program)
	}

	cells := make([]int64, size)
	copy(cells, program)

	return Memory{cells}
}

func (mem *Memory) Len() int {
	return len(mem.cells)
}

func (mem *Memory) Read(addr int64) int64 {
	mem.reserve(addr)
	return mem.cells[addr]
}

func (mem *Memory) Write(addr int64, value int64) {
	mem.reserve(addr)
	mem.cells[addr] = value
}

// Cells returns a copy of the whole address space.
func (mem *Memory) Cells() []int64 {
	result := make([]int64, len(mem.cells))
	copy(result, mem.cells)
	return result
}

func (mem *Memory) reserve(addr int64) {
	if addr < 0 {
		panic(&AddressError{addr})
	}

	if addr < int64(len(mem.cells)) {
		return
	}

	size := 2 * int64(len(mem.cells))

	if size < DEFAULT_MEMORY_SIZE {
		size = DEFAULT_MEMORY_SIZE
	}

	if size <= addr {
		size = addr + 1
	}

	cells := make([]int64, size)
	copy(cells, mem.cells)
	mem.cells = cells
}
