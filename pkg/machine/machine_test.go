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

package machine_test

import (
	"reflect"
	"testing"

	"github.com/lassandro/intcode/pkg/machine"
)

type testCase struct {
	Name    string
	Code    []int64
	Input   []int64
	Pause   bool
	Runs    int
	Memory  map[int64]int64
	Outputs []int64
	Program int64
	Halted  bool
}

func testMachineSuccess(t *testing.T, test *testCase) {
	mc := machine.New(test.Code, machine.NewQueue(test.Input...))

	if test.Runs == 0 {
		test.Runs = 1
	}

	for i := 0; i < test.Runs; i++ {
		if err := mc.Run(test.Pause); err != nil {
			t.Fatal(err)
		}
	}

	if have := mc.IsHalted(); have != test.Halted {
		t.Errorf(
			"Halted mismatch\nwant:%v (test.Halted)\nhave:%v",
			test.Halted,
			have,
		)
	}

	if mc.State.Program != test.Program {
		t.Errorf(
			"Program counter mismatch\nwant:%d (test.Program)\nhave:%d",
			test.Program,
			mc.State.Program,
		)
	}

	for addr, want := range test.Memory {
		if have := mc.State.Memory.Read(addr); have != want {
			t.Errorf(
				"Memory value mismatch\nwant:%d (test.Memory[%d])\nhave:%d",
				want,
				addr,
				have,
			)
		}
	}

	if have := mc.Outputs(); !reflect.DeepEqual(have, test.Outputs) &&
		(len(have) != 0 || len(test.Outputs) != 0) {
		t.Errorf(
			"Output mismatch\nwant:%v (test.Outputs)\nhave:%v",
			test.Outputs,
			have,
		)
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

func TestArithmetic(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:    "ADD MUL Position",
			Code:    []int64{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50},
			Memory:  map[int64]int64{0: 3500, 3: 70},
			Program: 8,
			Halted:  true,
		},
		{
			Name:    "ADD Self",
			Code:    []int64{1, 0, 0, 0, 99},
			Memory:  map[int64]int64{0: 2},
			Program: 4,
			Halted:  true,
		},
		{
			Name:    "MUL Self",
			Code:    []int64{2, 3, 0, 3, 99},
			Memory:  map[int64]int64{3: 6},
			Program: 4,
			Halted:  true,
		},
		{
			Name:    "MUL Past Program",
			Code:    []int64{2, 4, 4, 5, 99, 0},
			Memory:  map[int64]int64{5: 9801},
			Program: 4,
			Halted:  true,
		},
		{
			Name:    "Overwrite Halt",
			Code:    []int64{1, 1, 1, 4, 99, 5, 6, 0, 99},
			Memory:  map[int64]int64{0: 30, 4: 2},
			Program: 8,
			Halted:  true,
		},
		{
			Name:    "MUL Immediate",
			Code:    []int64{1002, 4, 3, 4, 33},
			Memory:  map[int64]int64{4: 99},
			Program: 4,
			Halted:  true,
		},
		{
			Name:    "ADD Negative Immediate",
			Code:    []int64{1101, 100, -1, 4, 0},
			Memory:  map[int64]int64{4: 99},
			Program: 4,
			Halted:  true,
		},
		{
			Name:    "MUL Wide",
			Code:    []int64{1102, 34915192, 34915192, 7, 4, 7, 99, 0},
			Outputs: []int64{1219070632396864},
			Memory:  map[int64]int64{7: 1219070632396864},
			Program: 6,
			Halted:  true,
		},
	})
}

func TestInputOutput(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:    "Echo",
			Code:    []int64{3, 0, 4, 0, 99},
			Input:   []int64{-42},
			Outputs: []int64{-42},
			Program: 4,
			Halted:  true,
		},
		{
			Name:    "OUT Immediate Wide",
			Code:    []int64{104, 1125899906842624, 99},
			Outputs: []int64{1125899906842624},
			Program: 2,
			Halted:  true,
		},
		{
			Name:    "IN Blocks",
			Code:    []int64{104, 1, 3, 9, 104, 2, 99},
			Outputs: []int64{1},
			Program: 2,
		},
		{
			Name:    "OUT Pauses",
			Code:    []int64{104, 1, 104, 2, 99},
			Pause:   true,
			Outputs: []int64{1},
			Program: 2,
		},
		{
			Name:    "OUT Pauses Resumed",
			Code:    []int64{104, 1, 104, 2, 99},
			Pause:   true,
			Runs:    3,
			Outputs: []int64{1, 2},
			Program: 4,
			Halted:  true,
		},
	})
}

func TestComparisons(t *testing.T) {
	equal8Position := []int64{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8}
	less8Position := []int64{3, 9, 7, 9, 10, 9, 4, 9, 99, -1, 8}
	equal8Immediate := []int64{3, 3, 1108, -1, 8, 3, 4, 3, 99}
	less8Immediate := []int64{3, 3, 1107, -1, 8, 3, 4, 3, 99}

	testSuccess(t, []testCase{
		{"EQ Position True", equal8Position, []int64{8}, false, 0, nil, []int64{1}, 8, true},
		{"EQ Position False", equal8Position, []int64{7}, false, 0, nil, []int64{0}, 8, true},
		{"LT Position True", less8Position, []int64{7}, false, 0, nil, []int64{1}, 8, true},
		{"LT Position False", less8Position, []int64{8}, false, 0, nil, []int64{0}, 8, true},
		{"EQ Immediate True", equal8Immediate, []int64{8}, false, 0, nil, []int64{1}, 8, true},
		{"EQ Immediate False", equal8Immediate, []int64{9}, false, 0, nil, []int64{0}, 8, true},
		{"LT Immediate True", less8Immediate, []int64{-3}, false, 0, nil, []int64{1}, 8, true},
		{"LT Immediate False", less8Immediate, []int64{9}, false, 0, nil, []int64{0}, 8, true},
	})
}

func TestJumps(t *testing.T) {
	jumpPosition := []int64{3, 12, 6, 12, 15, 1, 13, 14, 13, 4, 13, 99, -1, 0, 1, 9}
	jumpImmediate := []int64{3, 3, 1105, -1, 9, 1101, 0, 0, 12, 4, 12, 99, 1}
	compare8 := []int64{
		3, 21, 1008, 21, 8, 20, 1005, 20, 22, 107, 8, 21, 20, 1006, 20, 31,
		1106, 0, 36, 98, 0, 0, 1002, 21, 125, 20, 4, 20, 1105, 1, 46, 104,
		999, 1105, 1, 46, 1101, 1000, 1, 20, 4, 20, 1105, 1, 46, 98, 99,
	}

	testSuccess(t, []testCase{
		{"JF Position Zero", jumpPosition, []int64{0}, false, 0, nil, []int64{0}, 11, true},
		{"JF Position Nonzero", jumpPosition, []int64{5}, false, 0, nil, []int64{1}, 11, true},
		{"JT Immediate Zero", jumpImmediate, []int64{0}, false, 0, nil, []int64{0}, 11, true},
		{"JT Immediate Nonzero", jumpImmediate, []int64{5}, false, 0, nil, []int64{1}, 11, true},
		{"Compare Below", compare8, []int64{7}, false, 0, nil, []int64{999}, 46, true},
		{"Compare Equal", compare8, []int64{8}, false, 0, nil, []int64{1000}, 46, true},
		{"Compare Above", compare8, []int64{9}, false, 0, nil, []int64{1001}, 46, true},
	})
}

func TestRelativeBase(t *testing.T) {
	quine := []int64{
		109, 1, 204, -1, 1001, 100, 1, 100, 1008, 100, 16, 101, 1006, 101, 0, 99,
	}

	testSuccess(t, []testCase{
		{
			Name:    "Quine",
			Code:    quine,
			Outputs: quine,
			Memory:  map[int64]int64{100: 16, 101: 1},
			Program: 15,
			Halted:  true,
		},
		{
			Name:    "ARB Ignores High Mode Digits",
			Code:    []int64{10109, 5, 204, -1, 99},
			Outputs: []int64{99},
			Program: 4,
			Halted:  true,
		},
		{
			Name:    "IN Relative",
			Code:    []int64{109, 10, 203, -3, 4, 7, 99, 0},
			Input:   []int64{77},
			Outputs: []int64{77},
			Memory:  map[int64]int64{7: 77},
			Program: 6,
			Halted:  true,
		},
		{
			Name:    "ARB Negative",
			Code:    []int64{109, 20, 109, -15, 204, 1, 99},
			Outputs: []int64{99},
			Program: 6,
			Halted:  true,
		},
	})
}

func TestGrowableMemory(t *testing.T) {
	mc := machine.New([]int64{1101, 7, 8, 100000, 1001, 100000, 1, 5000, 99}, nil)

	if err := mc.Run(false); err != nil {
		t.Fatal(err)
	}

	if have := mc.State.Memory.Read(100000); have != 15 {
		t.Errorf("Memory value mismatch\nwant:15 (mem[100000])\nhave:%d", have)
	}

	if have := mc.State.Memory.Read(5000); have != 16 {
		t.Errorf("Memory value mismatch\nwant:16 (mem[5000])\nhave:%d", have)
	}

	if have := mc.State.Memory.Read(1 << 20); have != 0 {
		t.Errorf("Memory value mismatch\nwant:0 (mem[1<<20])\nhave:%d", have)
	}

	for addr, want := range []int64{1101, 7, 8, 100000, 1001, 100000, 1, 5000, 99} {
		if have := mc.State.Memory.Read(int64(addr)); have != want {
			t.Errorf(
				"Memory value mismatch\nwant:%d (mem[%d])\nhave:%d",
				want,
				addr,
				have,
			)
		}
	}
}

func TestResume(t *testing.T) {
	var input machine.Queue

	// IN 0; ADD 0 #1 0; OUT 0; HLT
	mc := machine.New([]int64{3, 0, 1001, 0, 1, 0, 4, 0, 99}, &input)

	for i := 0; i < 3; i++ {
		if err := mc.Run(false); err != nil {
			t.Fatal(err)
		}

		if mc.State.Program != 0 || mc.IsHalted() || mc.OutputCount() != 0 {
			t.Fatalf(
				"Machine moved while blocked on input"+
					"\nwant:pc 0, running, no outputs\nhave:pc %d, halted %v, %d outputs",
				mc.State.Program,
				mc.IsHalted(),
				mc.OutputCount(),
			)
		}

		if have := mc.State.Memory.Read(0); have != 3 {
			t.Fatalf("Memory changed while blocked\nwant:3 (mem[0])\nhave:%d", have)
		}

		if have := mc.Steps(); have != 0 {
			t.Fatalf("Steps counted while blocked\nwant:0\nhave:%d", have)
		}
	}

	input.Push(41)

	if err := mc.Run(false); err != nil {
		t.Fatal(err)
	}

	if have, ok := mc.LastOutput(); !ok || have != 42 {
		t.Errorf("Output mismatch\nwant:42\nhave:%d (%v)", have, ok)
	}

	if have := mc.Steps(); have != 4 {
		t.Errorf("Step count mismatch\nwant:4\nhave:%d", have)
	}
}

func TestPauseGranularity(t *testing.T) {
	code := []int64{104, 1, 104, 2, 104, 3, 99}

	mc := machine.New(code, nil)

	for i := 1; !mc.IsHalted(); i++ {
		before := mc.OutputCount()

		if err := mc.Run(true); err != nil {
			t.Fatal(err)
		}

		if have := mc.OutputCount() - before; have > 1 {
			t.Fatalf("Run %d produced %d outputs\nwant:at most 1", i, have)
		}
	}

	mc = machine.New(code, nil)

	if err := mc.Run(false); err != nil {
		t.Fatal(err)
	}

	if have := mc.Outputs(); !reflect.DeepEqual(have, []int64{1, 2, 3}) {
		t.Errorf("Output mismatch\nwant:[1 2 3]\nhave:%v", have)
	}
}

func TestHaltedIsNoop(t *testing.T) {
	mc := machine.New([]int64{99}, nil)

	if _, ok := mc.LastOutput(); ok {
		t.Error("LastOutput reported a value before any output")
	}

	for i := 0; i < 3; i++ {
		if err := mc.Run(true); err != nil {
			t.Fatal(err)
		}
	}

	if !mc.IsHalted() || mc.Steps() != 1 || mc.State.Program != 0 {
		t.Errorf(
			"Halted machine kept running\nwant:halted, 1 step, pc 0\nhave:%v, %d, %d",
			mc.IsHalted(),
			mc.Steps(),
			mc.State.Program,
		)
	}
}

func TestStepLimit(t *testing.T) {
	// JT #1 #0
	mc := machine.New([]int64{1105, 1, 0}, nil, machine.StepLimit(10))

	for i := uint64(1); i <= 2; i++ {
		if err := mc.Run(false); err != machine.ErrStepLimit {
			t.Fatalf("Error mismatch\nwant:%v\nhave:%v", machine.ErrStepLimit, err)
		}

		if have := mc.Steps(); have != 10*i {
			t.Fatalf("Step count mismatch\nwant:%d\nhave:%d", 10*i, have)
		}
	}

	if mc.Err() != nil {
		t.Errorf("Step limit left a fault behind: %v", mc.Err())
	}
}

func TestSnapshot(t *testing.T) {
	code := []int64{3, 20, 4, 20, 1105, 1, 0}
	input := machine.NewQueue(5)
	mc := machine.New(code, input)

	if err := mc.Run(false); err != nil {
		t.Fatal(err)
	}

	saved := mc.Snapshot()

	input.Push(6, 7)

	if err := mc.Run(false); err != nil {
		t.Fatal(err)
	}

	if have := mc.Outputs(); !reflect.DeepEqual(have, []int64{5, 6, 7}) {
		t.Fatalf("Output mismatch\nwant:[5 6 7]\nhave:%v", have)
	}

	mc.Restore(saved)

	if have := mc.Outputs(); !reflect.DeepEqual(have, []int64{5}) {
		t.Errorf("Restored outputs mismatch\nwant:[5]\nhave:%v", have)
	}

	if mc.State.Program != 0 || mc.State.Memory.Read(20) != 5 {
		t.Errorf(
			"Restored state mismatch\nwant:pc 0, mem[20] 5\nhave:pc %d, mem[20] %d",
			mc.State.Program,
			mc.State.Memory.Read(20),
		)
	}

	saved.Memory[20] = 1000

	if have := mc.State.Memory.Read(20); have != 5 {
		t.Errorf("Restored memory aliases snapshot\nwant:5\nhave:%d", have)
	}
}

type recorder struct {
	steps  int
	reads  []int64
	writes []int64
}

func (r *recorder) Step(mc *machine.Machine)              { r.steps++ }
func (r *recorder) Read(addr int64, mc *machine.Machine)  { r.reads = append(r.reads, addr) }
func (r *recorder) Write(addr int64, mc *machine.Machine) { r.writes = append(r.writes, addr) }

func TestDebuggerHooks(t *testing.T) {
	var rec recorder

	mc := machine.New(
		[]int64{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50},
		nil,
		machine.WithDebugger(&rec),
	)

	if err := mc.Run(false); err != nil {
		t.Fatal(err)
	}

	if rec.steps != 3 {
		t.Errorf("Step hook mismatch\nwant:3\nhave:%d", rec.steps)
	}

	if want := []int64{9, 10, 3, 11}; !reflect.DeepEqual(rec.reads, want) {
		t.Errorf("Read hook mismatch\nwant:%v\nhave:%v", want, rec.reads)
	}

	if want := []int64{3, 0}; !reflect.DeepEqual(rec.writes, want) {
		t.Errorf("Write hook mismatch\nwant:%v\nhave:%v", want, rec.writes)
	}
}

func BenchmarkCountdown(b *testing.B) {
	// loop: ADD 100 #-1 100; JT 100 #loop; HLT
	code := []int64{1001, 100, -1, 100, 1005, 100, 0, 99}

	for i := 0; i < b.N; i++ {
		mc := machine.New(code, nil)
		mc.State.Memory.Write(100, 100000)

		if err := mc.Run(false); err != nil {
			b.Fatal(err)
		}

		if mc.Steps() != 200001 {
			b.Fatalf("Step count mismatch\nwant:200001\nhave:%d", mc.Steps())
		}
	}
}

func BenchmarkQuine(b *testing.B) {
	code := []int64{
		109, 1, 204, -1, 1001, 100, 1, 100, 1008, 100, 16, 101, 1006, 101, 0, 99,
	}

	for i := 0; i < b.N; i++ {
		mc := machine.New(code, nil)

		if err := mc.Run(false); err != nil {
			b.Fatal(err)
		}
	}
}

type interrupter struct {
	at int64
}

func (i *interrupter) Step(mc *machine.Machine) {
	if mc.State.Program == i.at {
		mc.Interrupt()
	}
}

func (i *interrupter) Read(addr int64, mc *machine.Machine)  {}
func (i *interrupter) Write(addr int64, mc *machine.Machine) {}

func TestInterrupt(t *testing.T) {
	// OUT #1, OUT #2, HLT
	mc := machine.New(
		[]int64{104, 1, 104, 2, 99},
		nil,
		machine.WithDebugger(&interrupter{at: 2}),
	)

	if err := mc.Run(false); err != machine.ErrInterrupted {
		t.Fatalf("Interrupt mismatch\nwant:%v\nhave:%v", machine.ErrInterrupted, err)
	}

	if have := mc.Outputs(); !reflect.DeepEqual(have, []int64{1}) {
		t.Fatalf("Output mismatch\nwant:[1]\nhave:%v", have)
	}

	if err := mc.Run(false); err != nil {
		t.Fatal(err)
	}

	if have := mc.Outputs(); !reflect.DeepEqual(have, []int64{1, 2}) || !mc.IsHalted() {
		t.Fatalf("Resume mismatch\nwant:[1 2] halted\nhave:%v %v", have, mc.IsHalted())
	}
}
