// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     dot.go
// Date:     07.Feb.2024
//
// =============================================================================

// Package dot implements the cursor/range/text-object model that every
// editor operation reads and writes: the single active selection of a
// buffer ("dot"), movement of that selection with arrow keys and text
// objects, and the sam/acme address language used to name regions of text
// from the command surface and the 9P interface.
package dot

import "unicode/utf8"

// Cur is a single character index into a buffer's logical content.
type Cur int

// Range is a pair of character indices with one of the two ends marked as
// "active" -- the end that subsequent extend operations move. Start is
// always <= End; a Range with Start == End is a null range and behaves as a
// bare [Cur].
type Range struct {
	Start       Cur
	End         Cur
	StartActive bool
}

// Dot is either a single cursor or a range: a Range with Start == End *is*
// a Cur, so the two variants described in the data model are represented
// by a single Range value and an IsCur query rather than a tagged union.
type Dot = Range

// FromCur returns the null-range Dot for a single cursor position.
func FromCur(c Cur) Dot {
	return Dot{Start: c, End: c, StartActive: true}
}

// FromCursors builds a Dot out of two cursors, ordering them so Start <=
// End and preserving which side is active.
func FromCursors(a Cur, b Cur, startActive bool) Dot {
	if a <= b {
		return Dot{Start: a, End: b, StartActive: startActive}
	}

	return Dot{Start: b, End: a, StartActive: !startActive}
}

// IsCur reports whether d is a null range, i.e. behaves as a single cursor.
func (d Dot) IsCur() bool {
	return d.Start == d.End
}

// ActiveCur returns the cursor at the active end of the dot.
func (d Dot) ActiveCur() Cur {
	if d.StartActive {
		return d.Start
	}

	return d.End
}

// WithActiveCur returns a copy of d with its active end moved to c,
// collapsing to a null range if that crosses the inactive end.
func (d Dot) WithActiveCur(c Cur) Dot {
	if d.StartActive {
		return FromCursors(c, d.End, true)
	}

	return FromCursors(d.Start, c, false)
}

// CollapseNullRange returns d unchanged: callers that built a Dot via
// FromCursors already get IsCur()==true for equal endpoints, so collapsing
// is implicit and this is a safe no-op if called defensively.
func (d Dot) CollapseNullRange() Dot {
	return d
}

// TextBuffer is the read-only view of a buffer's content that the dot
// package needs to move cursors and evaluate addresses. [gapbuffer.GapBuffer]
// satisfies it directly.
type TextBuffer interface {
	LenChars() int
	LenLines() int
	LineToChar(lineIdx int) int
	CharToByte(charIdx int) int
	ByteToLine(byteIdx int) int
	Slice(charFrom int, charTo int) string
}

// charToLine returns the zero-based line index containing the given
// character index.
func charToLine(b TextBuffer, c Cur) int {
	return b.ByteToLine(b.CharToByte(int(c)))
}

// lineCharLen returns the number of characters in the given line,
// excluding its trailing newline (if it has one).
func lineCharLen(b TextBuffer, line int) int {
	start := b.LineToChar(line)

	end := b.LenChars()
	if line+1 < b.LenLines() {
		end = b.LineToChar(line + 1)
	}

	n := end - start
	if n > 0 {
		last := b.Slice(end-1, end)
		if last == "\n" {
			n--
		}
	}

	return n
}

// runeAt returns the rune at the given character index and whether it
// exists.
func runeAt(b TextBuffer, idx Cur) (rune, bool) {
	if int(idx) < 0 || int(idx) >= b.LenChars() {
		return 0, false
	}

	r, _ := utf8.DecodeRuneInString(b.Slice(int(idx), int(idx)+1))

	return r, true
}
