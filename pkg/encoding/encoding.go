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

package encoding

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const DEFAULT_SEPARATOR = ","

// ParseProgram converts sep separated integers into program cells. Each
// element may be surrounded by whitespace and a single trailing empty element
// is ignored, so a final separator or newline is accepted.
func ParseProgram(text string, sep string) ([]int64, error) {
	if sep == "" {
		sep = DEFAULT_SEPARATOR
	}

	text = strings.TrimSpace(text)

	if text == "" {
		return nil, errors.New("empty program")
	}

	fields := strings.Split(text, sep)

	if last := len(fields) - 1; last > 0 && strings.TrimSpace(fields[last]) == "" {
		fields = fields[:last]
	}

	result := make([]int64, len(fields))

	for i, field := range fields {
		value, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)

		if err != nil {
			return nil, errors.Wrapf(err, "cell %d", i)
		}

		result[i] = value
	}

	return result, nil
}

func ReadProgram(reader io.Reader, sep string) ([]int64, error) {
	data, err := io.ReadAll(reader)

	if err != nil {
		return nil, errors.Wrap(err, "reading program")
	}

	return ParseProgram(string(data), sep)
}

func FormatProgram(program []int64, sep string) string {
	if sep == "" {
		sep = DEFAULT_SEPARATOR
	}

	var builder strings.Builder

	for i, value := range program {
		if i > 0 {
			builder.WriteString(sep)
		}
		builder.WriteString(strconv.FormatInt(value, 10))
	}

	return builder.String()
}

func DecodeHex(s string) (int64, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseInt(s, 0, 64)

	if err != nil {
		return 0, err
	}

	return result, nil
}

func DecodeInt(s string) (int64, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	return strconv.ParseInt(s, 10, 64)
}

// DecodeAddr accepts either a hex address with an x prefix or a decimal one.
func DecodeAddr(s string) (int64, error) {
	var result int64
	var err error

	if strings.ContainsAny(s, "xX") {
		result, err = DecodeHex(s)
	} else {
		result, err = DecodeInt(s)
	}

	if err != nil {
		return 0, err
	}

	if result < 0 {
		return 0, errors.Errorf("negative address %d", result)
	}

	return result, nil
}
