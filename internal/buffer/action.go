// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     action.go
// Date:     07.Feb.2024
//
// =============================================================================

package buffer

import (
	"bytes"
	"fmt"

	"github.com/Release-Candidate/samedit/internal/dot"
	"github.com/Release-Candidate/samedit/internal/sam"
)

// Action is a buffer-level editing action, the currency between the
// input/keymap layer (outside the core) and a Buffer. Implementations are
// small value types.
type Action interface {
	action()
}

// DotSet replaces the dot by applying a text object.
type DotSet struct{ Object dot.TextObject }

// DotExtendForward extends the dot's active end forward by a text object.
type DotExtendForward struct{ Object dot.TextObject }

// DotExtendBackward extends the dot's active end backward by a text
// object.
type DotExtendBackward struct{ Object dot.TextObject }

// DotCollapse collapses a range dot to its active end.
type DotCollapse struct{}

// InsertChar types a single character at the dot, replacing a non-null
// dot.
type InsertChar struct{ C rune }

// InsertString types a string at the dot, replacing a non-null dot.
type InsertString struct{ S string }

// Delete removes the dot's text; a null dot is first expanded to its
// smallest enclosing bracket pair or whitespace run.
type Delete struct{}

// Yank copies the dot's text to the clipboard via the SetClipboard
// outcome.
type Yank struct{}

// Undo reverses the latest transaction; Redo reapplies it.
type Undo struct{}

// Redo reapplies the most recently undone transaction.
type Redo struct{}

// RunEditProgram parses and runs a sam edit program against the buffer
// with the dot as '.'.
type RunEditProgram struct{ Source string }

func (DotSet) action()            {}
func (DotExtendForward) action()  {}
func (DotExtendBackward) action() {}
func (DotCollapse) action()       {}
func (InsertChar) action()        {}
func (InsertString) action()      {}
func (Delete) action()            {}
func (Yank) action()              {}
func (Undo) action()              {}
func (Redo) action()              {}
func (RunEditProgram) action()    {}

// Outcome is what a handled action asks the editor shell to do: exactly
// one of the fields is meaningful.
type Outcome struct {
	SetClipboard     string
	SetStatusMessage string
}

// HandleAction applies an action to the buffer, returning a non-nil
// outcome when the shell has something to do with the result.
func (b *Buffer) HandleAction(a Action) *Outcome {
	switch act := a.(type) {
	case DotSet:
		b.Dot = act.Object.Set(b.Dot, b.txt)

	case DotExtendForward:
		b.Dot = act.Object.ExtendForward(b.Dot, b.txt)

	case DotExtendBackward:
		b.Dot = act.Object.ExtendBackward(b.Dot, b.txt)

	case DotCollapse:
		b.Dot = dot.FromCur(b.Dot.ActiveCur())

	case InsertChar:
		b.replaceDot(string(act.C))

	case InsertString:
		b.replaceDot(act.S)

	case Delete:
		d := dot.ExpandNullDot(b.Dot, b.txt)
		b.DeleteRange(int(d.Start), int(d.End))
		b.Dot = dot.FromCur(d.Start)

	case Yank:
		return &Outcome{SetClipboard: b.DotContents()}

	case Undo:
		if !b.Undo() {
			return &Outcome{SetStatusMessage: "nothing to undo"}
		}

	case Redo:
		if !b.Redo() {
			return &Outcome{SetStatusMessage: "nothing to redo"}
		}

	case RunEditProgram:
		return b.runEditProgram(act.Source)
	}

	return nil
}

// replaceDot deletes a non-null dot and inserts s in its place, leaving a
// collapsed dot after the inserted text.
func (b *Buffer) replaceDot(s string) {
	if !b.Dot.IsCur() {
		b.DeleteRange(int(b.Dot.Start), int(b.Dot.End))
	}

	at := int(b.Dot.Start)
	b.InsertString(at, s)
	b.Dot = dot.FromCur(dot.Cur(at + len([]rune(s))))
}

// runEditProgram executes a sam program with the buffer as the stream;
// printed output becomes a status message for the shell to route.
func (b *Buffer) runEditProgram(src string) *Outcome {
	prog, err := sam.Parse(src)
	if err != nil {
		return &Outcome{SetStatusMessage: err.Error()}
	}

	b.NewTransaction()

	var out bytes.Buffer

	from, to, err := prog.Execute(b.Stream(), b.FullName(), &out)
	if err != nil {
		return &Outcome{SetStatusMessage: err.Error()}
	}

	b.Dot = clampDot(
		dot.FromCursors(dot.Cur(from), dot.Cur(to), false),
		dot.Cur(b.txt.LenChars()),
	)

	if out.Len() > 0 {
		return &Outcome{SetStatusMessage: out.String()}
	}

	return nil
}

// bufferStream adapts a Buffer to [sam.IterableStream] so edit programs
// run through the same mutation paths as interactive editing: dirty
// tracking and the edit log see every insert and remove.
type bufferStream struct{ b *Buffer }

// Stream returns the buffer as a [sam.IterableStream].
func (b *Buffer) Stream() sam.IterableStream {
	return bufferStream{b}
}

func (s bufferStream) LenChars() int {
	return s.b.txt.LenChars()
}

func (s bufferStream) At(i int) rune {
	for _, r := range s.b.txt.Slice(i, i+1) {
		return r
	}

	return 0
}

func (s bufferStream) CurrentDot() (int, int) {
	return int(s.b.Dot.Start), int(s.b.Dot.End)
}

func (s bufferStream) MapInitialDot(from int, to int) (int, int) {
	n := s.b.txt.LenChars()

	if to < 0 {
		to = n
	}

	return clampInt(from, n), clampInt(to, n)
}

func (s bufferStream) Insert(idx int, str string) error {
	n := s.b.txt.LenChars()
	if idx < 0 || idx > n {
		return fmt.Errorf("insert index %d out of range 0..%d", idx, n)
	}

	s.b.InsertString(idx, str)

	return nil
}

func (s bufferStream) Remove(from int, to int) error {
	n := s.b.txt.LenChars()
	if from < 0 || to > n || from > to {
		return fmt.Errorf("remove range %d..%d out of range 0..%d", from, to, n)
	}

	s.b.DeleteRange(from, to)

	return nil
}

func (s bufferStream) Contents() string {
	return s.b.txt.String()
}

func clampInt(v int, n int) int {
	if v < 0 {
		return 0
	}

	if v > n {
		return n
	}

	return v
}
