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
	"bufio"
	"io"
	"strconv"
	"strings"
)

// InputFunc adapts an ordinary function to an InputSource.
type InputFunc func() (int64, bool)

func (f InputFunc) Next() (int64, bool) {
	return f()
}

// Constant yields value on every poll.
func Constant(value int64) InputSource {
	return InputFunc(func() (int64, bool) { return value, true })
}

// Queue is a first-in first-out buffer of input values. It reports no input
// while empty, so more values can be pushed between runs.
type Queue struct {
	values []int64
}

func NewQueue(values ...int64) *Queue {
	return &Queue{append([]int64(nil), values...)}
}

func (q *Queue) Push(values ...int64) {
	q.values = append(q.values, values...)
}

// PushString queues the character codes of s.
func (q *Queue) PushString(s string) {
	for _, char := range s {
		q.values = append(q.values, int64(char))
	}
}

func (q *Queue) Len() int {
	return len(q.values)
}

func (q *Queue) Next() (int64, bool) {
	if len(q.values) == 0 {
		return 0, false
	}

	value := q.values[0]
	q.values = q.values[1:]

	return value, true
}

type initialInput struct {
	value int64
	sent  bool
	next  InputSource
}

func (in *initialInput) Next() (int64, bool) {
	if !in.sent {
		in.sent = true
		return in.value, true
	}

	if in.next == nil {
		return 0, false
	}

	return in.next.Next()
}

// WithInitial yields value once, then defers to next.
func WithInitial(value int64, next InputSource) InputSource {
	return &initialInput{value: value, next: next}
}

type outputCursor struct {
	mc   *Machine
	read int
}

func (in *outputCursor) Next() (int64, bool) {
	if in.read >= in.mc.OutputCount() {
		return 0, false
	}

	value := in.mc.Output(in.read)
	in.read++

	return value, true
}

// OutputsOf yields every output of mc exactly once, in the order produced.
// It reports no input until mc has produced something new.
func OutputsOf(mc *Machine) InputSource {
	return &outputCursor{mc: mc}
}

// LatestOutputOf yields the most recent output of mc on every poll, and no
// input before mc has produced anything.
func LatestOutputOf(mc *Machine) InputSource {
	return InputFunc(mc.LastOutput)
}

// Channel yields values received from ch without blocking. An empty or
// closed channel reports no input.
func Channel(ch <-chan int64) InputSource {
	return InputFunc(func() (int64, bool) {
		select {
		case value, ok := <-ch:
			return value, ok
		default:
			return 0, false
		}
	})
}

// ReaderInput parses integers separated by whitespace or commas from a
// reader. It blocks on the reader while waiting for the next value and
// reports no input once the reader is exhausted or holds something that is
// not an integer; Err tells the two apart.
type ReaderInput struct {
	scanner *bufio.Scanner
	err     error
}

func NewReaderInput(reader io.Reader) *ReaderInput {
	scanner := bufio.NewScanner(reader)
	scanner.Split(scanValues)

	return &ReaderInput{scanner: scanner}
}

func (in *ReaderInput) Next() (int64, bool) {
	if in.err != nil || !in.scanner.Scan() {
		return 0, false
	}

	value, err := strconv.ParseInt(in.scanner.Text(), 10, 64)

	if err != nil {
		in.err = err
		return 0, false
	}

	return value, true
}

func (in *ReaderInput) Err() error {
	if in.err != nil {
		return in.err
	}

	return in.scanner.Err()
}

func scanValues(data []byte, atEOF bool) (int, []byte, error) {
	isSep := func(b byte) bool {
		return b == ',' || strings.IndexByte(" \t\r\n", b) >= 0
	}

	start := 0
	for start < len(data) && isSep(data[start]) {
		start++
	}

	for i := start; i < len(data); i++ {
		if isSep(data[i]) {
			return i + 1, data[start:i], nil
		}
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}

	return start, nil, nil
}
