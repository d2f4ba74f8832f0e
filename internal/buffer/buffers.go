// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     buffers.go
// Date:     07.Feb.2024
//
// =============================================================================

package buffer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Release-Candidate/samedit/internal/dot"
)

// Buffers is the non-empty, recency-ordered collection of open buffers:
// position 0 is the active buffer. Ids increase monotonically and are
// never reused; a scratch buffer is created whenever closing would leave
// the set empty.
type Buffers struct {
	nextID int
	inner  []*Buffer
	jumps  JumpList
}

// NewBuffers returns a collection holding a single empty scratch buffer.
func NewBuffers() *Buffers {
	return &Buffers{
		nextID: 1,
		inner:  []*Buffer{NewUnnamed(0, "")},
	}
}

// Active returns the focused buffer.
func (bs *Buffers) Active() *Buffer {
	return bs.inner[0]
}

// Len returns the number of open buffers.
func (bs *Buffers) Len() int {
	return len(bs.inner)
}

// WithID returns the buffer with the given id, nil if it is not open.
func (bs *Buffers) WithID(id int) *Buffer {
	for _, b := range bs.inner {
		if b.ID == id {
			return b
		}
	}

	return nil
}

// IDs returns the open buffer ids, active first.
func (bs *Buffers) IDs() []int {
	ids := make([]int, len(bs.inner))
	for i, b := range bs.inner {
		ids[i] = b.ID
	}

	return ids
}

// FocusID makes the buffer with the given id active if it is open.
func (bs *Buffers) FocusID(id int) {
	for i, b := range bs.inner {
		if b.ID == id {
			bs.inner[0], bs.inner[i] = bs.inner[i], bs.inner[0]
			return
		}
	}
}

// Next rotates focus to the next buffer in the order.
func (bs *Buffers) Next() {
	if n := len(bs.inner); n > 1 {
		last := bs.inner[n-1]
		copy(bs.inner[1:], bs.inner[:n-1])
		bs.inner[0] = last
	}
}

// Previous rotates focus to the previous buffer.
func (bs *Buffers) Previous() {
	if n := len(bs.inner); n > 1 {
		first := bs.inner[0]
		copy(bs.inner, bs.inner[1:])
		bs.inner[n-1] = first
	}
}

// IsEmptyScratch reports whether the set holds only an untouched unnamed
// buffer, i.e. nothing worth keeping.
func (bs *Buffers) IsEmptyScratch() bool {
	return len(bs.inner) == 1 &&
		bs.inner[0].Kind.Tag == KindUnnamed &&
		!bs.inner[0].Dirty &&
		bs.inner[0].LenChars() == 0
}

// OpenOrFocus opens path as a new active buffer and returns its id, or
// focuses the already-open buffer for the same canonical path and returns
// -1. Opening the first real file evicts an untouched scratch buffer.
func (bs *Buffers) OpenOrFocus(path string) (int, error) {
	canonical, err := canonicalise(path)
	if err != nil {
		return -1, err
	}

	for i, b := range bs.inner {
		if b.Kind.Tag == KindFile && b.Kind.Name == canonical {
			bs.inner[0], bs.inner[i] = bs.inner[i], bs.inner[0]
			return -1, nil
		}
	}

	if bs.IsEmptyScratch() {
		bs.inner = bs.inner[:0]
	}

	id := bs.nextID
	bs.nextID++

	b, err := NewFromFile(id, canonical)
	if err != nil {
		return -1, err
	}

	bs.inner = append([]*Buffer{b}, bs.inner...)

	return id, nil
}

// canonicalise resolves path the way the open commands name buffers: an
// absolute, symlink-free path when the file exists, an absolute path
// otherwise (the file will be created on save).
func canonicalise(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)

	switch {
	case os.IsNotExist(err):
		resolved = path
	case err != nil:
		return "", fmt.Errorf("unable to resolve %s: %w", path, err)
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("unable to resolve %s: %w", path, err)
	}

	return abs, nil
}

// AddVirtual inserts a pre-built virtual/output/minibuffer buffer as the
// active one, assigning it a fresh id, and returns that id.
func (bs *Buffers) AddVirtual(build func(id int) *Buffer) int {
	id := bs.nextID
	bs.nextID++

	bs.inner = append([]*Buffer{build(id)}, bs.inner...)

	return id
}

// CloseBuffer removes the buffer with the given id, choosing the next
// most recent buffer as the successor. Closing the last buffer recreates
// an empty scratch so the set is never empty.
func (bs *Buffers) CloseBuffer(id int) {
	for i, b := range bs.inner {
		if b.ID == id {
			bs.inner = append(bs.inner[:i], bs.inner[i+1:]...)
			break
		}
	}

	if len(bs.inner) == 0 {
		bs.inner = []*Buffer{NewUnnamed(bs.nextID, "")}
		bs.nextID++
	}
}

// DirtyBuffers returns the names of buffers with unsaved changes.
func (bs *Buffers) DirtyBuffers() []string {
	var names []string

	for _, b := range bs.inner {
		if b.Dirty {
			names = append(names, b.FullName())
		}
	}

	return names
}

// AsBufList renders one line per buffer for the buffer-selection
// minibuffer.
func (bs *Buffers) AsBufList() []string {
	focused := bs.inner[0].ID
	lines := make([]string, len(bs.inner))

	for i, b := range bs.inner {
		marker := ' '
		if b.ID == focused {
			marker = '*'
		}

		lines[i] = fmt.Sprintf("%-4d %c %s", b.ID, marker, b.FullName())
	}

	return lines
}

// RecordJump remembers the active buffer's current position before a
// motion that moves far away (a regex search, an address jump, a buffer
// switch).
func (bs *Buffers) RecordJump() {
	bs.jumps.Push(Jump{BufID: bs.Active().ID, Cur: bs.Active().Dot.ActiveCur()})
}

// JumpBack moves to the most recently recorded position, remembering
// where we were so the jump can be retraced with [Buffers.JumpForward].
func (bs *Buffers) JumpBack() bool {
	return bs.applyJump(func(current Jump) (Jump, bool) {
		return bs.jumps.Back(current)
	})
}

// JumpForward retraces the last [Buffers.JumpBack].
func (bs *Buffers) JumpForward() bool {
	return bs.applyJump(func(current Jump) (Jump, bool) {
		return bs.jumps.Forward(current)
	})
}

func (bs *Buffers) applyJump(move func(Jump) (Jump, bool)) bool {
	current := Jump{BufID: bs.Active().ID, Cur: bs.Active().Dot.ActiveCur()}

	jump, ok := move(current)
	if !ok {
		return false
	}

	b := bs.WithID(jump.BufID)
	if b == nil {
		// The buffer was closed since the jump was recorded.
		return false
	}

	bs.FocusID(jump.BufID)
	b.Dot = clampDot(dot.FromCur(jump.Cur), dot.Cur(b.LenChars()))

	return true
}

// WriteOutputForBuffer appends s to the output buffer routed for the
// buffer with the given id, creating the output buffer on first use. The
// output buffer's dot is left untouched and focus stays where it is.
// Returns the output buffer's id.
func (bs *Buffers) WriteOutputForBuffer(id int, s string) int {
	key := "+output"
	if b := bs.WithID(id); b != nil {
		key = b.OutputFileKey()
	}

	out := bs.outputBufferFor(key)
	out.txt.InsertStr(out.txt.LenChars(), s)

	return out.ID
}

func (bs *Buffers) outputBufferFor(key string) *Buffer {
	for _, b := range bs.inner {
		if b.Kind.Tag == KindOutput && b.Kind.Name == key {
			return b
		}
	}

	id := bs.nextID
	bs.nextID++

	out := NewOutput(id, key)
	bs.inner = append(bs.inner, out)

	return out
}
