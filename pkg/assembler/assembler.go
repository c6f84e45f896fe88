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
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/intcode/pkg/encoding"
	"github.com/lassandro/intcode/pkg/machine"
)

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".DATA") {
		return DIRECTIVE_DATA
	} else if strings.EqualFold(ident, ".BLKW") {
		return DIRECTIVE_BLKW
	} else if strings.EqualFold(ident, ".STRINGZ") {
		return DIRECTIVE_STRINGZ
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseLiteral(token *Token) (int64, error) {
	var result int64
	var err error

	if strings.ContainsAny(token.Value, "xX") {
		result, err = encoding.DecodeHex(token.Value)
	} else {
		result, err = encoding.DecodeInt(token.Value)
	}

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	return result, nil
}

func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int = 0
	var tokenType TokenType = TOKEN_NONE
	var tokenMode int64 = machine.MODE_POSITION
	var escaped bool = false
	var separator *Cursor = nil

	flush := func() {
		switch tokenType {
		case TOKEN_NONE:
			return
		case tokenPrefix:
			errs = append(
				errs, &UnexpectedCharacterError{cursor, rune(line[tokenStart-1])},
			)
		case TOKEN_STRING:
			errs = append(errs, &InvalidStringError{cursor})
		default:
			tokens = append(tokens, Token{
				Type: tokenType,
				Mode: tokenMode,
				Position: Cursor{
					Line:     cursor.Line,
					Column:   tokenStart,
					Byte:     cursor.Byte + int64(tokenStart-1),
					Size:     int64(cursor.Column - tokenStart),
					LineByte: cursor.LineByte,
				},
				Value: builder.String(),
			})
		}

		builder.Reset()
		tokenType = TOKEN_NONE
		tokenMode = machine.MODE_POSITION
	}

scan:
	for column, char := range line {
		cursor.Column = column + 1

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		// Strings swallow everything up to an unescaped closing quote
		if tokenType == TOKEN_STRING {
			builder.WriteRune(char)

			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			if escaped {
				escaped = false
			} else if char == '\\' {
				escaped = true
			} else if char == '"' {
				tokens = append(tokens, Token{
					Type: TOKEN_STRING,
					Mode: machine.MODE_POSITION,
					Position: Cursor{
						Line:     cursor.Line,
						Column:   tokenStart,
						Byte:     cursor.Byte + int64(tokenStart-1),
						Size:     int64(builder.Len()),
						LineByte: cursor.LineByte,
					},
					Value: builder.String(),
				})
				builder.Reset()
				tokenType = TOKEN_NONE
			}

			continue
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			flush()
			continue

		// Comments
		case char == ';':
			flush()
			break scan

		// Assembler Directives
		case char == '.':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_DIRECTIVE
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Operand Separator
		case char == ',':
			flush()
			c := cursor
			separator = &c
			continue

		// Label Terminator
		case char == ':':
			if tokenType == TOKEN_IDENT {
				flush()
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}
			continue

		// Mode Prefixes (i.e. #42, @-1)
		case char == PREFIX_IMMEDIATE || char == PREFIX_RELATIVE:
			if tokenType == TOKEN_NONE {
				tokenType = tokenPrefix

				if char == PREFIX_IMMEDIATE {
					tokenMode = machine.MODE_IMMEDIATE
				} else {
					tokenMode = machine.MODE_RELATIVE
				}
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}
			continue

		// String Literal
		case char == '"':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_STRING
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Literal
		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE || tokenType == tokenPrefix {
				tokenType = TOKEN_LITERAL
			}

		// Numeric Sign
		case char == '-':
			if tokenType == TOKEN_NONE || tokenType == tokenPrefix {
				tokenType = TOKEN_LITERAL
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Identifier
		case unicode.IsLetter(char) || char == '_':
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			if tokenType == TOKEN_NONE || tokenType == tokenPrefix {
				tokenType = TOKEN_IDENT
			}

		default:
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			errs = append(errs, &UnexpectedCharacterError{cursor, char})
		}

		separator = nil
		builder.WriteRune(char)
	}

	cursor.Column = len(line) + 1
	flush()

	if separator != nil {
		errs = append(errs, &UnexpectedCharacterError{*separator, ','})
	}

	return
}

// Assemble translates intcode assembly into program cells. Every error found
// is collected; the returned program is only meaningful when errs is empty.
// Addresses and labels are recorded into symtable when it is not nil.
func Assemble(input io.Reader, symtable *SymTable) (result []int64, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     int64
		Position Cursor
	}

	var labels = make(map[string]int64)
	var labelOrder []string
	var labelRefs []LabelRef

	var program int64 = 0

	var scanner = bufio.NewScanner(input)

	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	result = make([]int64, 0, machine.DEFAULT_MEMORY_SIZE)
	errs = make([]error, 0)

	// Appends an operand cell, deferring label references until every label
	// has been seen
	operand := func(token *Token) {
		switch token.Type {
		case TOKEN_LITERAL:
			literal, err := parseLiteral(token)

			if err != nil {
				errs = append(errs, err)
			}

			result = append(result, literal)

		case TOKEN_IDENT:
			labelRefs = append(
				labelRefs,
				LabelRef{token.Value, program, token.Position},
			)

			result = append(result, 0)

		default:
			errs = append(
				errs,
				&InvalidOperandError{
					token.Position,
					[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
					token.Type,
				},
			)

			result = append(result, 0)
		}

		program++
	}

	// Process:
	// - Parse line
	// - Assemble line
	for scanner.Scan() {
		line := scanner.Text()

		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenize(line, cursor)
		errs = append(errs, lineErrs...)

		// Pass any potential assembler errors if we already had parser errors
		if len(tokens) == 0 || len(lineErrs) > 0 {
			cursor.Line++
			cursor.Byte += int64(len(line) + 1)
			cursor.LineByte += int64(len(line) + 1)
			continue
		}

		// Assemble line
		// - Write opcode and operand cells to result
		// - Save label refs for unknown labels
		// - Type check instruction arguments
		var label *Token = nil
		var directive DirectiveType
		var op int64
		var isInstruction bool
		var keyword *Token = nil
		var operands []Token

		start := program

		if op, isInstruction = machine.Lookup(tokens[0].Value); isInstruction {
			keyword = &tokens[0]
			operands = tokens[1:]
		} else if directive = parseDirective(tokens[0].Value); directive != DIRECTIVE_INVALID {
			keyword = &tokens[0]
			operands = tokens[1:]
		} else {
			label = &tokens[0]
		}

		if label != nil {
			if label.Type != TOKEN_IDENT || label.Mode != machine.MODE_POSITION {
				errs = append(
					errs,
					&UnknownIdentifierError{label.Position, label.Value},
				)
			} else if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = program
				labelOrder = append(labelOrder, label.Value)
			} else {
				errs = append(
					errs, &RedeclaredLabelError{label.Position, label.Value},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				cursor.Line++
				cursor.Byte += int64(len(line) + 1)
				cursor.LineByte += int64(len(line) + 1)
				continue
			}

			if op, isInstruction = machine.Lookup(tokens[1].Value); isInstruction {
				keyword = &tokens[1]
				operands = tokens[2:]
			} else if directive = parseDirective(tokens[1].Value); directive != DIRECTIVE_INVALID {
				keyword = &tokens[1]
				operands = tokens[2:]
			}
		}

		if keyword == nil {
			unknown := &tokens[0]

			if label != nil {
				unknown = &tokens[1]
			}

			errs = append(
				errs,
				&UnknownIdentifierError{unknown.Position, unknown.Value},
			)
		} else if keyword.Mode != machine.MODE_POSITION {
			errs = append(
				errs, &InvalidModeError{keyword.Position, keyword.Mode},
			)
		}

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break
		}

		switch directive {
		// .DATA #, label, ...
		case DIRECTIVE_DATA:
			if len(operands) == 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
				)

				break
			}

			for i := range operands {
				if operands[i].Mode == machine.MODE_RELATIVE {
					errs = append(
						errs,
						&InvalidModeError{operands[i].Position, operands[i].Mode},
					)
				}

				operand(&operands[i])
			}

		// .BLKW #
		case DIRECTIVE_BLKW:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_LITERAL {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]TokenType{TOKEN_LITERAL},
						operands[0].Type,
					},
				)

				break
			}

			literal, err := parseLiteral(&operands[0])

			if err == nil && literal < 0 {
				err = &InvalidLiteralError{operands[0].Position}
			}

			if err != nil {
				errs = append(errs, err)
				break
			}

			result = append(result, make([]int64, literal)...)
			program += literal

		// .STRINGZ "..."
		case DIRECTIVE_STRINGZ:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_STRING {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]TokenType{TOKEN_STRING},
						operands[0].Type,
					},
				)

				break
			}

			s, err := strconv.Unquote(operands[0].Value)

			if err != nil {
				errs = append(errs, &InvalidStringError{operands[0].Position})
				break
			}

			for _, c := range s {
				result = append(result, int64(c))
				program++
			}

			result = append(result, 0)
			program++
		}

		// OP   operand, operand, operand
		// ---- opcode = op + 100*mode1 + 1000*mode2 + 10000*mode3
		if isInstruction {
			count, _ := machine.OperandCount(op)

			if len(operands) != count {
				errs = append(
					errs,
					&InvalidNumArgumentsError{
						keyword.Position, count, len(operands),
					},
				)
			} else {
				modes := make([]int64, count)
				addr := program

				result = append(result, 0)
				program++

				for i := range operands {
					if i == machine.WriteTarget(op) &&
						operands[i].Mode == machine.MODE_IMMEDIATE {
						errs = append(
							errs,
							&InvalidModeError{
								operands[i].Position, operands[i].Mode,
							},
						)
					}

					modes[i] = operands[i].Mode
					operand(&operands[i])
				}

				result[addr] = machine.EncodeOpcode(op, modes...)
			}
		}

		if symtable != nil && program > start {
			symtable.Symbols[start] = cursor.LineByte
		}

		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		result[ref.Addr] = addr
	}

	if symtable != nil {
		for _, label := range labelOrder {
			addr := labels[label]

			if _, exists := symtable.Labels[addr]; !exists {
				symtable.Labels[addr] = label
			}
		}
	}

	return
}
