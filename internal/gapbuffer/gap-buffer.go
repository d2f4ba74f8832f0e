// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     gap-buffer.go
// Date:     07.Feb.2024
//
// =============================================================================

// This library implements a gap buffer, which is a data structure to be used as
// the container of the text for a (simple or not so simple) text editor.
// A gap buffer is not ideal for using multiple cursors, as that would involve
// multiple jumps and copying of data in the gap buffer.
//
// Lines are split on the newline character '\n', so Windows-style CR LF
// (`\r\n`) line endings are not supported.
//
// A gap buffer is an array with a gap at the cursor position, where text is to
// be inserted and deleted.
//
// The string "Hello world!" with the cursor at the end of "Hello" -
// "Hello| world!" - looks like this in a gap buffer array:
//
//	Hello|< gap start, the cursor position            gap end >| world!
//
//	['H', 'e', 'l', 'l', 'o', 0, 0, 0, 0, 0, ' ', 'w', 'o', 'r', 'l', 'd', '!']
//	  0    1    2    3    4  |     gap     |  5    6    7    8    9    10   11
//
// Moving the gap copies the bytes between the old and the new cursor position
// to the other side of the gap; see [GapBuffer.MoveGap]:
//
//	Hel|< gap start, the cursor position            gap end >|lo world!
//
//	['H', 'e', 'l', 0, 0, 0, 0, 0, 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd', '!']
//	  0    1    2   |     gap    |  3    4    5    6    7    8    9    10   11
//
// Deleting three runes to the left of the cursor widens the gap to the left:
//
//	|< gap start, the cursor position            gap end >|lo world!
//
//	['H', 'e', 'l', 0, 0, 0, 0, 0, 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd', '!']
//	  |           gap            |  0    1    2    3    4    5    6    7    8
//
// Insertion happens at the cursor position by appending at the start of the gap
// and moving the start of the gap accordingly.
//
// New|< gap start, the cursor position            gap end >|lo world!
//
//	['N', 'e', 'w', 0, 0, 0, 0, 0, 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd', '!']
//	  0    1    2   |   gap      |  3    4    5    6    7    8    9    10   11
package gapbuffer

import (
	"strings"
	"unicode/utf8"
)

// GapBuffer represents a gap buffer.
type GapBuffer struct {
	// The index in the gap buffer `GapBuffer.data` of the start of the gap.
	// The position of the cursor.
	start int

	// The index in the gap buffer `GapBuffer.data` of the end of the gap.
	// The position of the first unicode scalar point after the cursor.
	end int

	// The lineBuffer that stores the line length information of the gap buffer.
	//
	// See [lineBuffer].
	lines lineBuffer

	// The data of the gap buffer.
	data []byte
}

const (
	defaultCapacity = 1024 // The default size of a gap buffer in bytes.

	// 1/10th of the capacity of the gap buffer, default: 102.
	lineCapFactor = 10

	// Minimum size in int of the line buffer `GapBuffer.lines`. A lineBuffer
	// has at least this size, even if the [lineCapFactor] would yield a smaller
	// one.
	minLineCap = 10

	// The factor by which to grow the gap buffer and line buffer, if needed.
	growFactor = 2
)

// Return the contents of the gap buffer as a string.
func (g *GapBuffer) String() string {
	var b strings.Builder
	b.Grow(len(g.data) - (g.end - g.start))
	b.Write(g.data[:g.start])
	b.Write(g.data[g.end:])

	return b.String()
}

// Return the length in bytes of the contents of the gap buffer.
func (g *GapBuffer) StringLength() int {
	return len(g.data) - (g.end - g.start)
}

// newCap constructs a new GapBuffer from a capacity. The capacity is the
// number of bytes the gap buffer can hold without a resize.
func newCap(size int) *GapBuffer {
	return &GapBuffer{
		start: 0,
		end:   size,
		data:  make([]byte, size),
		lines: *newLineBuf(size),
	}
}

// Construct a new, empty GapBuffer with the default capacity.
//
// See also [NewStr], [NewStrCap].
func New() *GapBuffer {
	return newCap(defaultCapacity)
}

// Construct a new GapBuffer from a string and a capacity. The cursor position
// is set to the end of the string. The capacity is the number of bytes the gap
// buffer can hold without a resize.
//
// The default size is 1024 bytes, if you know that you need less or more space,
// you can set the initial size to something more appropriate.
//
// See also [New], [NewStr].
func NewStrCap(s string, c int) *GapBuffer {
	size := max(c, len(s)*growFactor)
	dat := make([]byte, size)
	sIdx := copy(dat, s)
	lines := newLineBufStr(s, size)

	return &GapBuffer{
		start: sIdx,
		end:   size,
		data:  dat,
		lines: *lines,
	}
}

// Construct a new GapBuffer from a string. The cursor position is set to the
// end of the string.
//
// See also [New], [NewStrCap].
func NewStr(s string) *GapBuffer {
	return NewStrCap(s, defaultCapacity)
}

// Delete the unicode rune to the left of the cursor. Like the "backspace" key.
//
// See also [GapBuffer.RemoveChar], [GapBuffer.RemoveRange].
func (g *GapBuffer) LeftDel() {
	if g.start < 1 {
		return
	}

	r, d := utf8.DecodeLastRune(g.data[:g.start])
	g.start -= d

	if r == '\n' {
		g.lines.upDel()
	} else {
		g.lines.del(d)
	}
}

// grow resizes the gap buffer by `growFactor` times its current size and copies
// the existing data.
func (g *GapBuffer) grow() {
	tmp := make([]byte, len(g.data)*growFactor)
	_ = copy(tmp, g.data[:g.start])
	nE := len(tmp) - (len(g.data) - g.end)
	_ = copy(tmp[nE:], g.data[g.end:])
	g.end = nE
	g.data = tmp
}

// Insert inserts the given string at the current cursor position.
// The string can be a single unicode scalar point or text of arbitrary size and
// anything in between (like a single unicode rune).
//
// The cursor is moved to the end of the inserted text.
//
// See also [GapBuffer.InsertChar], [GapBuffer.InsertStr], which address the
// insertion point by character index instead of using the cursor.
func (g *GapBuffer) Insert(str string) {
	for g.end-g.start < len(str)+1 {
		g.grow()
	}

	g.lines.insert(str, g.start)
	l := copy(g.data[g.start:], str)
	g.start += l
}
