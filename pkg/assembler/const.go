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

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_DIRECTIVE
	TOKEN_STRING
	TOKEN_LITERAL

	// Mode prefix (# or @) not yet followed by a literal or identifier
	tokenPrefix
)

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_DATA
	DIRECTIVE_BLKW
	DIRECTIVE_STRINGZ
	DIRECTIVE_END
)

const (
	PREFIX_IMMEDIATE = '#'
	PREFIX_RELATIVE  = '@'
)
