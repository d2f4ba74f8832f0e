// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     editlog.go
// Date:     07.Feb.2024
//
// =============================================================================

// Package editlog implements reversible, coalescing undo/redo
// transactions on top of a character-indexed buffer: an ordered log of
// small [Edit] values grouped into [Transaction]s, with two stacks
// (done/undone) and a pause flag that suppresses recording while a
// transaction is being replayed.
package editlog

// Kind distinguishes an insertion from a deletion within an [Edit].
type Kind int

const (
	Insert Kind = iota
	Delete
)

// Edit is a single character-level mutation: an insertion or deletion of
// txt starting at character index Cur.
type Edit struct {
	Kind Kind
	Cur  int
	Txt  string
}

// End returns the character index just past the edited text.
func (e Edit) End() int {
	return e.Cur + len([]rune(e.Txt))
}

// invert returns the edit that undoes e.
func (e Edit) invert() Edit {
	kind := Delete
	if e.Kind == Delete {
		kind = Insert
	}

	return Edit{Kind: kind, Cur: e.Cur, Txt: e.Txt}
}

// Transaction is an ordered list of edits intended to undo atomically.
type Transaction []Edit

// reversed returns a transaction that undoes t: edits in reverse order,
// each with Insert/Delete swapped.
func (t Transaction) reversed() Transaction {
	out := make(Transaction, len(t))
	for i, e := range t {
		out[len(t)-1-i] = e.invert()
	}

	return out
}

// Log is an edit log: two stacks of transactions plus a flag suppressing
// recording while a transaction from either stack is being replayed.
type Log struct {
	done   []Transaction
	undone []Transaction
	cur    Transaction
	paused bool
}

// New returns an empty edit log.
func New() *Log {
	return &Log{}
}

// Paused reports whether the log is currently suppressing new records,
// i.e. an undo/redo replay is in progress.
func (l *Log) Paused() bool {
	return l.paused
}

// NewTransaction opens a new transaction, coalescing (pushing) the previous
// one onto the done stack first if it is non-empty. Redoable transactions
// are discarded, mirroring ordinary editor undo-stack semantics: starting a
// new edit after an undo abandons the redo branch.
func (l *Log) NewTransaction() {
	l.commit()
	l.undone = nil
}

// commit pushes the in-progress transaction onto the done stack if it has
// any edits.
func (l *Log) commit() {
	if len(l.cur) > 0 {
		l.done = append(l.done, l.cur)
		l.cur = nil
	}
}

// InsertChar appends a single-character insertion to the current
// transaction, coalescing with the previous edit when possible.
func (l *Log) InsertChar(cur int, c rune) {
	l.record(Edit{Kind: Insert, Cur: cur, Txt: string(c)})
}

// InsertString appends a string insertion to the current transaction.
func (l *Log) InsertString(cur int, s string) {
	l.record(Edit{Kind: Insert, Cur: cur, Txt: s})
}

// DeleteChar appends a single-character deletion to the current
// transaction.
func (l *Log) DeleteChar(cur int, c rune) {
	l.record(Edit{Kind: Delete, Cur: cur, Txt: string(c)})
}

// DeleteString appends a string deletion to the current transaction.
func (l *Log) DeleteString(cur int, s string) {
	l.record(Edit{Kind: Delete, Cur: cur, Txt: s})
}

// record appends e to the in-progress transaction, merging it into the
// last edit when the coalescing rule applies: two adjacent
// inserts merge iff the second's cursor equals the first's end (append) or
// equals the first's cursor (prepend); deletes merge iff `e.cur ==
// self.cur` (forward deletes from the same point) or `e.cur + len(e.txt)
// == self.cur` (adjacent backward deletes). Replay (paused) never records.
func (l *Log) record(e Edit) {
	if l.paused {
		return
	}

	if n := len(l.cur); n > 0 {
		last := l.cur[n-1]
		if merged, ok := coalesce(last, e); ok {
			l.cur[n-1] = merged

			return
		}
	}

	l.cur = append(l.cur, e)
}

func coalesce(last Edit, e Edit) (Edit, bool) {
	if last.Kind != e.Kind {
		return Edit{}, false
	}

	switch last.Kind {
	case Insert:
		switch e.Cur {
		case last.End():
			return Edit{Kind: Insert, Cur: last.Cur, Txt: last.Txt + e.Txt}, true
		case last.Cur:
			return Edit{Kind: Insert, Cur: e.Cur, Txt: e.Txt + last.Txt}, true
		default:
			return Edit{}, false
		}

	default: // Delete
		switch {
		case e.Cur == last.Cur:
			return Edit{Kind: Delete, Cur: last.Cur, Txt: last.Txt + e.Txt}, true
		case e.End() == last.Cur:
			return Edit{Kind: Delete, Cur: e.Cur, Txt: e.Txt + last.Txt}, true
		default:
			return Edit{}, false
		}
	}
}

// Undo pops the most recent transaction (committing any in-progress one
// first) and returns its inverse for the caller to apply, with the log
// paused for the duration of the caller's replay. Call [Log.EndReplay] when
// the replay completes. Returns false if there is nothing to undo.
func (l *Log) Undo() (Transaction, bool) {
	l.commit()

	if len(l.done) == 0 {
		return nil, false
	}

	n := len(l.done) - 1
	t := l.done[n]
	l.done = l.done[:n]
	l.undone = append(l.undone, t)
	l.paused = true

	return t.reversed(), true
}

// Redo pops the most recently undone transaction and returns it for the
// caller to reapply, with the log paused for the duration of the replay.
// Returns false if there is nothing to redo.
func (l *Log) Redo() (Transaction, bool) {
	if len(l.undone) == 0 {
		return nil, false
	}

	n := len(l.undone) - 1
	t := l.undone[n]
	l.undone = l.undone[:n]
	l.done = append(l.done, t)
	l.paused = true

	return t, true
}

// EndReplay clears the pause flag set by [Log.Undo]/[Log.Redo]; the caller
// must invoke it once the returned transaction has been fully applied.
func (l *Log) EndReplay() {
	l.paused = false
}

// Dirty reports whether there is any undoable state.
func (l *Log) Dirty() bool {
	return len(l.done) > 0 || len(l.cur) > 0
}
