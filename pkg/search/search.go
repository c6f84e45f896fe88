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

// Package search fans independent machines out across goroutines to find
// inputs that make a program produce a wanted result. A machine is never
// shared between goroutines.
package search

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lassandro/intcode/pkg/machine"
	"github.com/lassandro/intcode/pkg/network"
)

const (
	NOUN_ADDR = 1
	VERB_ADDR = 2

	MAX_NOUN = 99
	MAX_VERB = 99

	// Instructions any single candidate may execute
	STEP_LIMIT = 1 << 20
)

var ErrNotFound = errors.New("no candidate produces the target")

// NounVerb patches every noun and verb in 0..99 into cells 1 and 2, runs the
// program and returns 100*noun+verb for the candidate that leaves target in
// cell 0. When several candidates match the smallest one is returned.
// Candidates that fault or exceed the step limit are skipped.
func NounVerb(ctx context.Context, program []int64, target int64) (int64, error) {
	if len(program) <= VERB_ADDR {
		return 0, errors.Errorf("program too short: %d cells", len(program))
	}

	var mu sync.Mutex
	var best int64 = -1

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for noun := int64(0); noun <= MAX_NOUN; noun++ {
		noun := noun

		g.Go(func() error {
			for verb := int64(0); verb <= MAX_VERB; verb++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				mc := machine.New(program, nil, machine.StepLimit(STEP_LIMIT))
				mc.State.Memory.Write(NOUN_ADDR, noun)
				mc.State.Memory.Write(VERB_ADDR, verb)

				if err := mc.Run(false); err != nil || !mc.IsHalted() {
					continue
				}

				if mc.State.Memory.Read(0) != target {
					continue
				}

				mu.Lock()
				if result := 100*noun + verb; best < 0 || result < best {
					best = result
				}
				mu.Unlock()

				// Later verbs of this noun only give larger results
				return nil
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	if best < 0 {
		return 0, ErrNotFound
	}

	return best, nil
}

// MaxSignal tries every ordering of the phase settings lo..hi through
// network.Amplifiers and returns the largest signal with the phases that
// produced it.
func MaxSignal(ctx context.Context, program []int64, lo, hi int64, feedback bool) (int64, []int64, error) {
	if hi < lo {
		return 0, nil, errors.Errorf("empty phase range %d..%d", lo, hi)
	}

	values := make([]int64, 0, hi-lo+1)

	for phase := lo; phase <= hi; phase++ {
		values = append(values, phase)
	}

	var mu sync.Mutex
	var best int64
	var bestPhases []int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, phases := range Permutations(values) {
		phases := phases

		g.Go(func() error {
			signal, err := network.Amplifiers(ctx, program, phases, feedback)

			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()

			if bestPhases == nil || signal > best ||
				(signal == best && lessPhases(phases, bestPhases)) {
				best = signal
				bestPhases = phases
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	return best, bestPhases, nil
}

func lessPhases(a, b []int64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}

	return false
}

// Permutations returns every ordering of values, each in its own slice.
func Permutations(values []int64) [][]int64 {
	if len(values) == 0 {
		return nil
	}

	var result [][]int64
	scratch := append([]int64(nil), values...)

	var permute func(k int)
	permute = func(k int) {
		if k == len(scratch) {
			result = append(result, append([]int64(nil), scratch...))
			return
		}

		for i := k; i < len(scratch); i++ {
			scratch[k], scratch[i] = scratch[i], scratch[k]
			permute(k + 1)
			scratch[k], scratch[i] = scratch[i], scratch[k]
		}
	}

	permute(0)

	return result
}
