// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     stream.go
// Date:     07.Feb.2024
//
// =============================================================================

package sam

import (
	"github.com/Release-Candidate/samedit/internal/dot"
	"github.com/Release-Candidate/samedit/internal/gapbuffer"
)

// IterableStream is the abstraction the interpreter consumes: a mutable,
// character-indexed text with a notion of "the current dot". All positions
// are character indices and all ranges are half-open [from, to).
type IterableStream interface {
	// LenChars returns the number of characters currently visible.
	LenChars() int

	// At returns the character at index i. Implementations backed by a
	// lazily-read source may block to make i available.
	At(i int) rune

	// CurrentDot returns the stream's own dot, used for the '.' initial
	// dot form.
	CurrentDot() (from int, to int)

	// MapInitialDot clamps a requested initial dot to the stream. to < 0
	// requests "to the end of the stream".
	MapInitialDot(from int, to int) (int, int)

	// Insert inserts s before character index idx.
	Insert(idx int, s string) error

	// Remove deletes the characters in [from, to).
	Remove(from int, to int) error

	// Contents returns the full visible text.
	Contents() string
}

// streamInput adapts an IterableStream to the regex engine's input
// contract.
type streamInput struct{ s IterableStream }

func (a streamInput) Len() int      { return a.s.LenChars() }
func (a streamInput) At(i int) rune { return a.s.At(i) }

// GapStream is the in-memory [IterableStream]: a gap buffer plus the dot
// the program started from. Mutations go straight to the gap buffer;
// callers that need dirty tracking or undo wrap their own stream around
// the same interface instead.
type GapStream struct {
	gb  *gapbuffer.GapBuffer
	dot dot.Dot
}

// NewGapStream returns a stream over gb with d as its current dot.
func NewGapStream(gb *gapbuffer.GapBuffer, d dot.Dot) *GapStream {
	return &GapStream{gb: gb, dot: d}
}

// LenChars implements [IterableStream].
func (g *GapStream) LenChars() int {
	return g.gb.LenChars()
}

// At implements [IterableStream].
func (g *GapStream) At(i int) rune {
	for _, r := range g.gb.Slice(i, i+1) {
		return r
	}

	return 0
}

// CurrentDot implements [IterableStream].
func (g *GapStream) CurrentDot() (int, int) {
	return int(g.dot.Start), int(g.dot.End)
}

// MapInitialDot implements [IterableStream].
func (g *GapStream) MapInitialDot(from int, to int) (int, int) {
	n := g.gb.LenChars()

	if to < 0 {
		to = n
	}

	return clampIdx(from, n), clampIdx(to, n)
}

// Insert implements [IterableStream].
func (g *GapStream) Insert(idx int, s string) error {
	g.gb.InsertStr(idx, s)
	return nil
}

// Remove implements [IterableStream].
func (g *GapStream) Remove(from int, to int) error {
	if from < to {
		g.gb.RemoveRange(from, to)
	}

	return nil
}

// Contents implements [IterableStream].
func (g *GapStream) Contents() string {
	return g.gb.String()
}

func clampIdx(v int, n int) int {
	if v < 0 {
		return 0
	}

	if v > n {
		return n
	}

	return v
}
