// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     buffer_test.go
// Date:     07.Feb.2024
//
// =============================================================================

// Black-box testing of Buffer and Buffers.
package buffer_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Release-Candidate/samedit/internal/buffer"
	"github.com/Release-Candidate/samedit/internal/dot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedCharactersCoalesceIntoOneUndo(t *testing.T) {
	t.Parallel()

	b := buffer.NewUnnamed(1, "")

	for _, c := range "hello" {
		b.HandleAction(buffer.InsertChar{C: c})
	}

	assert.Equal(t, "hello", b.Contents())

	require.True(t, b.Undo())
	assert.Equal(t, "", b.Contents())

	require.True(t, b.Redo())
	assert.Equal(t, "hello", b.Contents())
}

func TestUndoBoundariesSplitTransactions(t *testing.T) {
	t.Parallel()

	b := buffer.NewUnnamed(1, "")

	b.HandleAction(buffer.InsertString{S: "one"})
	b.NewTransaction()
	b.HandleAction(buffer.InsertString{S: "two"})

	require.True(t, b.Undo())
	assert.Equal(t, "one", b.Contents())

	require.True(t, b.Undo())
	assert.Equal(t, "", b.Contents())

	assert.False(t, b.Undo())
}

func TestInsertReplacesRangeDot(t *testing.T) {
	t.Parallel()

	b := buffer.NewUnnamed(1, "hello world")
	b.Dot = dot.FromCursors(dot.Cur(6), dot.Cur(11), false)

	b.HandleAction(buffer.InsertString{S: "sam"})

	assert.Equal(t, "hello sam", b.Contents())
	assert.True(t, b.Dot.IsCur())
	assert.Equal(t, dot.Cur(9), b.Dot.ActiveCur())
}

func TestDeleteExpandsNullDotToBrackets(t *testing.T) {
	t.Parallel()

	b := buffer.NewUnnamed(1, "foo (bar) baz")
	b.Dot = dot.FromCur(6)

	b.HandleAction(buffer.Delete{})

	assert.Equal(t, "foo  baz", b.Contents())
}

func TestYankReturnsClipboardOutcome(t *testing.T) {
	t.Parallel()

	b := buffer.NewUnnamed(1, "hello world")
	b.Dot = dot.FromCursors(dot.Cur(0), dot.Cur(5), false)

	out := b.HandleAction(buffer.Yank{})

	require.NotNil(t, out)
	assert.Equal(t, "hello", out.SetClipboard)
}

func TestRunEditProgramThroughBufferStream(t *testing.T) {
	t.Parallel()

	b := buffer.NewUnnamed(1, "foo foo foo")

	out := b.HandleAction(buffer.RunEditProgram{Source: ", s/foo/bar/g"})

	assert.Nil(t, out)
	assert.Equal(t, "bar bar bar", b.Contents())

	// The program's edits went through the edit log: one undo restores
	// the original text.
	require.True(t, b.Undo())
	assert.Equal(t, "foo foo foo", b.Contents())
}

func TestDirtyOnlyForFileBackedBuffers(t *testing.T) {
	t.Parallel()

	scratch := buffer.NewUnnamed(1, "")
	scratch.HandleAction(buffer.InsertString{S: "text"})
	assert.False(t, scratch.Dirty)

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("text\n"), 0o644))

	fb, err := buffer.NewFromFile(1, path)
	require.NoError(t, err)

	fb.HandleAction(buffer.InsertString{S: "more "})
	assert.True(t, fb.Dirty)
}

func TestSaveRefusedWhenChangedOnDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("original\n"), 0o644))

	b, err := buffer.NewFromFile(1, path)
	require.NoError(t, err)

	b.HandleAction(buffer.InsertString{S: "edit "})

	// Simulate another program touching the file after we loaded it.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	msg, err := b.SaveToDiskAt(path, false)
	require.Error(t, err)
	assert.Contains(t, msg, "changed on disk")
	assert.True(t, b.Dirty)

	msg, err = b.SaveToDiskAt(path, true)
	require.NoError(t, err)
	assert.Contains(t, msg, "written")
	assert.False(t, b.Dirty)
}

func TestReloadFromDiskClearsEditLog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("on disk\n"), 0o644))

	b, err := buffer.NewFromFile(1, path)
	require.NoError(t, err)

	b.HandleAction(buffer.InsertString{S: "local "})
	require.NoError(t, b.ReloadFromDisk())

	assert.Equal(t, "on disk\n", b.Contents())
	assert.False(t, b.Dirty)
	assert.False(t, b.Undo())
}

func TestRawRLineExpandsTabs(t *testing.T) {
	t.Parallel()

	b := buffer.NewUnnamed(1, "\tx\n")

	got := b.RawRLineUnchecked(0, 0, 80, nil)
	assert.Equal(t, "    x", got)

	// A dot range over the "x" maps to render columns past the expanded
	// tab.
	r := [2]int{1, 2}
	_ = b.RawRLineUnchecked(0, 0, 80, &r)
	assert.Equal(t, [2]int{4, 5}, r)
}

func TestRawRLineTruncatesToWidth(t *testing.T) {
	t.Parallel()

	b := buffer.NewUnnamed(1, "abcdefghij")

	got := b.RawRLineUnchecked(0, 2, 7, nil)
	assert.Equal(t, "abcde", got)
}

func TestBuffersOpenOrFocus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.txt")
	p2 := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(p1, []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(p2, []byte("b\n"), 0o644))

	bs := buffer.NewBuffers()
	require.True(t, bs.IsEmptyScratch())

	id1, err := bs.OpenOrFocus(p1)
	require.NoError(t, err)
	assert.Equal(t, 1, id1)
	// The empty scratch was evicted on first real open.
	assert.Equal(t, 1, bs.Len())

	id2, err := bs.OpenOrFocus(p2)
	require.NoError(t, err)
	assert.Equal(t, 2, id2)
	assert.Equal(t, 2, bs.Len())
	assert.Equal(t, id2, bs.Active().ID)

	// Re-opening an open file focuses it instead.
	again, err := bs.OpenOrFocus(p1)
	require.NoError(t, err)
	assert.Equal(t, -1, again)
	assert.Equal(t, id1, bs.Active().ID)
}

func TestCloseBufferNeverLeavesSetEmpty(t *testing.T) {
	t.Parallel()

	bs := buffer.NewBuffers()
	id := bs.Active().ID

	bs.CloseBuffer(id)

	assert.Equal(t, 1, bs.Len())
	assert.NotEqual(t, id, bs.Active().ID)
	assert.Equal(t, buffer.KindUnnamed, bs.Active().Kind.Tag)
}

func TestOutputRouting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "code.go")
	require.NoError(t, os.WriteFile(p, []byte("package x\n"), 0o644))

	bs := buffer.NewBuffers()

	id, err := bs.OpenOrFocus(p)
	require.NoError(t, err)

	outID := bs.WriteOutputForBuffer(id, "first\n")
	sameID := bs.WriteOutputForBuffer(id, "second\n")

	assert.Equal(t, outID, sameID)

	out := bs.WithID(outID)
	require.NotNil(t, out)
	assert.Equal(t, buffer.KindOutput, out.Kind.Tag)
	assert.Equal(t,
		filepath.Join(filepath.Dir(bs.WithID(id).Kind.Name), "+output"),
		out.Kind.Name)
	assert.Equal(t, "first\nsecond\n", out.Contents())

	// Appending must not move the output buffer's dot or steal focus.
	assert.Equal(t, dot.Cur(0), out.Dot.ActiveCur())
	assert.Equal(t, id, bs.Active().ID)
}

func TestJumpListWalksBackAndForward(t *testing.T) {
	t.Parallel()

	bs := buffer.NewBuffers()
	b := bs.Active()
	b.HandleAction(buffer.InsertString{S: "some text to move around in"})

	b.Dot = dot.FromCur(3)
	bs.RecordJump()
	b.Dot = dot.FromCur(20)

	require.True(t, bs.JumpBack())
	assert.Equal(t, dot.Cur(3), bs.Active().Dot.ActiveCur())

	require.True(t, bs.JumpForward())
	assert.Equal(t, dot.Cur(20), bs.Active().Dot.ActiveCur())

	assert.False(t, bs.JumpForward())
}
