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

// Package network drives several machines cooperatively on one goroutine,
// passing control between them whenever one pauses.
package network

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/lassandro/intcode/pkg/machine"
)

var ErrDeadlock = errors.New("network deadlock: every running machine is waiting for input")

// Network runs its machines in index order, one Run(true) each per round,
// until every machine has halted.
type Network struct {
	Machines []*machine.Machine
	Logger   *slog.Logger
}

func New(machines ...*machine.Machine) *Network {
	return &Network{Machines: machines}
}

// Run returns nil once all machines have halted. A round in which no machine
// executes an instruction or produces output fails with ErrDeadlock; a
// machine fault fails the whole network.
func (net *Network) Run(ctx context.Context) error {
	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		running := 0
		progress := false

		for i, mc := range net.Machines {
			if mc.IsHalted() {
				continue
			}

			running++

			steps, outputs := mc.Steps(), mc.OutputCount()

			if err := mc.Run(true); err != nil {
				return errors.Wrapf(err, "machine %d", i)
			}

			if mc.Steps() != steps || mc.OutputCount() != outputs {
				progress = true
			}
		}

		if running == 0 {
			net.debug("network halted", "rounds", round)
			return nil
		}

		if !progress {
			net.debug("network deadlocked", "rounds", round, "running", running)
			return ErrDeadlock
		}
	}
}

func (net *Network) debug(msg string, args ...interface{}) {
	if net.Logger != nil {
		net.Logger.Debug(msg, args...)
	}
}

// Amplifiers chains one machine per phase setting. Each machine first reads
// its phase, the first one then reads 0, and every later input is the
// previous machine's output. With feedback the first machine is fed by the
// last. The result is the final output of the last machine.
func Amplifiers(ctx context.Context, program []int64, phases []int64, feedback bool) (int64, error) {
	if len(phases) == 0 {
		return 0, errors.New("no phase settings")
	}

	machines := make([]*machine.Machine, len(phases))

	for i := range phases {
		machines[i] = machine.New(program, nil)
	}

	last := machines[len(machines)-1]

	for i, mc := range machines {
		var upstream machine.InputSource

		if i > 0 {
			upstream = machine.OutputsOf(machines[i-1])
		} else if feedback {
			upstream = machine.WithInitial(0, machine.OutputsOf(last))
		} else {
			upstream = machine.NewQueue(0)
		}

		mc.SetInput(machine.WithInitial(phases[i], upstream))
	}

	if err := New(machines...).Run(ctx); err != nil {
		return 0, errors.Wrapf(err, "phases %v", phases)
	}

	signal, ok := last.LastOutput()

	if !ok {
		return 0, errors.Errorf("phases %v: no output from last amplifier", phases)
	}

	return signal, nil
}
