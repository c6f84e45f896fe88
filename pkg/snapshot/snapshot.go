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

// Package snapshot persists machine state as canonical CBOR so a suspended
// program can be resumed by a later process.
package snapshot

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/lassandro/intcode/pkg/machine"
)

const VERSION = 1

type wireSnapshot struct {
	Version      uint    `cbor:"0,keyasint"`
	Program      int64   `cbor:"1,keyasint"`
	RelativeBase int64   `cbor:"2,keyasint"`
	Halted       bool    `cbor:"3,keyasint"`
	Memory       []int64 `cbor:"4,keyasint"`
	Outputs      []int64 `cbor:"5,keyasint"`
	Steps        uint64  `cbor:"6,keyasint"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

func Marshal(s machine.Snapshot) ([]byte, error) {
	return encMode.Marshal(&wireSnapshot{
		Version:      VERSION,
		Program:      s.Program,
		RelativeBase: s.RelativeBase,
		Halted:       s.Halted,
		Memory:       s.Memory,
		Outputs:      s.Outputs,
		Steps:        s.Steps,
	})
}

func Unmarshal(data []byte) (machine.Snapshot, error) {
	var w wireSnapshot

	if err := cbor.Unmarshal(data, &w); err != nil {
		return machine.Snapshot{}, errors.Wrap(err, "snapshot: unmarshal")
	}

	if w.Version != VERSION {
		return machine.Snapshot{}, errors.Errorf(
			"snapshot: unsupported version %d", w.Version,
		)
	}

	if w.Program < 0 {
		return machine.Snapshot{}, errors.Errorf(
			"snapshot: negative program counter %d", w.Program,
		)
	}

	return machine.Snapshot{
		Program:      w.Program,
		RelativeBase: w.RelativeBase,
		Halted:       w.Halted,
		Memory:       w.Memory,
		Outputs:      w.Outputs,
		Steps:        w.Steps,
	}, nil
}

// Save writes the current state of mc to path.
func Save(path string, mc *machine.Machine) error {
	data, err := Marshal(mc.Snapshot())
	if err != nil {
		return errors.Wrap(err, "snapshot: marshal")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "snapshot: write %s", path)
	}

	return nil
}

// Load reads a state written by Save.
func Load(path string) (machine.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return machine.Snapshot{}, errors.Wrapf(err, "snapshot: read %s", path)
	}

	return Unmarshal(data)
}
