// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     buffer.go
// Date:     07.Feb.2024
//
// =============================================================================

// Package buffer composes the gap buffer, the dot model and the edit log
// into the editor's unit of text: a Buffer with file identity, dirty and
// save state, a viewport and an optional tokenizer. The Buffers
// collection in this package keeps them ordered by recency and routes
// command output to per-directory output buffers.
package buffer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/Release-Candidate/samedit/internal/config"
	"github.com/Release-Candidate/samedit/internal/dot"
	"github.com/Release-Candidate/samedit/internal/editlog"
	"github.com/Release-Candidate/samedit/internal/gapbuffer"
	"github.com/Release-Candidate/samedit/internal/regex"
)

// KindTag distinguishes what a buffer is backed by.
type KindTag int

const (
	KindFile KindTag = iota
	KindDirectory
	KindVirtual
	KindOutput
	KindUnnamed
	KindMiniBuffer
)

// Kind is a buffer's identity: the tag plus the path (file/directory
// kinds) or display name (virtual/output kinds) it is known by.
type Kind struct {
	Tag  KindTag
	Name string
}

// FullName is the name shown in the status bar and the 9P filename file.
func (k Kind) FullName() string {
	switch k.Tag {
	case KindUnnamed:
		return "[No Name]"
	case KindMiniBuffer:
		return "*minibuffer*"
	default:
		return k.Name
	}
}

// IsFileBacked reports whether saving and dirty tracking apply.
func (k Kind) IsFileBacked() bool {
	return k.Tag == KindFile
}

// Token is one highlighted span within a line, in byte offsets relative
// to that line's text. The meaning of Kind is private to the tokenizer
// and the renderer.
type Token struct {
	Start int
	End   int
	Kind  string
}

// Tokenizer turns a line of text into highlight tokens. Tokenizers are
// value types cloned into each buffer; the core treats them as opaque.
type Tokenizer interface {
	Tokenize(line string) []Token
}

// Buffer is one open text: the gap buffer plus everything the editor
// needs to know about it.
type Buffer struct {
	ID   int
	Kind Kind

	txt *gapbuffer.GapBuffer

	// Dot is the user's selection; XDot is the secondary selection
	// reserved for programmatic use over the 9P interface.
	Dot  dot.Dot
	XDot dot.Dot

	// Viewport: first visible row/column and the render column of the
	// active cursor (tab-expanded).
	RowOff int
	ColOff int
	RX     int

	Dirty    bool
	lastSave time.Time

	log       *editlog.Log
	tokenizer Tokenizer

	cfg *config.Config
}

// NewUnnamed returns a scratch buffer holding content.
func NewUnnamed(id int, content string) *Buffer {
	return newBuffer(id, Kind{Tag: KindUnnamed}, content)
}

// NewVirtual returns a read-created buffer identified by name rather than
// a file, e.g. for directory listings or help text.
func NewVirtual(id int, name string, content string) *Buffer {
	return newBuffer(id, Kind{Tag: KindVirtual, Name: name}, content)
}

// NewOutput returns an empty output buffer with the given routing key as
// its name.
func NewOutput(id int, name string) *Buffer {
	return newBuffer(id, Kind{Tag: KindOutput, Name: name}, "")
}

// NewMiniBuffer returns the transient buffer backing the minibuffer UI.
func NewMiniBuffer(id int) *Buffer {
	return newBuffer(id, Kind{Tag: KindMiniBuffer}, "")
}

// NewFromFile reads path into a buffer. A path that does not exist yet
// yields an empty buffer that will create the file on first save. Invalid
// UTF-8 is refused rather than imported.
func NewFromFile(id int, path string) (*Buffer, error) {
	info, err := os.Stat(path)

	switch {
	case os.IsNotExist(err):
		return newBuffer(id, Kind{Tag: KindFile, Name: path}, ""), nil

	case err != nil:
		return nil, fmt.Errorf("unable to open %s: %w", path, err)

	case info.IsDir():
		listing, err := dirListing(path)
		if err != nil {
			return nil, err
		}

		return newBuffer(id, Kind{Tag: KindDirectory, Name: path}, listing), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}

	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%s is not valid UTF-8", path)
	}

	b := newBuffer(id, Kind{Tag: KindFile, Name: path}, string(raw))
	b.lastSave = info.ModTime()

	return b, nil
}

func newBuffer(id int, kind Kind, content string) *Buffer {
	return &Buffer{
		ID:   id,
		Kind: kind,
		txt:  gapbuffer.NewStr(content),
		Dot:  dot.FromCur(0),
		XDot: dot.FromCur(0),
		log:  editlog.New(),
		cfg:  config.Default(),
	}
}

func dirListing(path string) (string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("unable to list %s: %w", path, err)
	}

	var out string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}

		out += name + "\n"
	}

	return out, nil
}

// SetConfig points the buffer at the process configuration handle.
func (b *Buffer) SetConfig(cfg *config.Config) {
	if cfg != nil {
		b.cfg = cfg
	}
}

// SetTokenizer installs (or clears, with nil) the buffer's tokenizer.
func (b *Buffer) SetTokenizer(t Tokenizer) {
	b.tokenizer = t
}

// TokenizeLine returns the highlight tokens for line y, nil without a
// tokenizer.
func (b *Buffer) TokenizeLine(y int) []Token {
	if b.tokenizer == nil {
		return nil
	}

	return b.tokenizer.Tokenize(b.txt.LineString(y))
}

// Text exposes the underlying gap buffer read-only for coordinate
// lookups; mutation must go through the buffer's own methods so dirty
// state and the edit log stay consistent.
func (b *Buffer) Text() dot.TextBuffer {
	return b.txt
}

// Contents returns the full buffer text.
func (b *Buffer) Contents() string {
	return b.txt.String()
}

// LenChars returns the number of characters in the buffer.
func (b *Buffer) LenChars() int {
	return b.txt.LenChars()
}

// FullName is the buffer's display name.
func (b *Buffer) FullName() string {
	return b.Kind.FullName()
}

// DotContents returns the text inside the primary dot.
func (b *Buffer) DotContents() string {
	return b.txt.Slice(int(b.Dot.Start), int(b.Dot.End))
}

// XDotContents returns the text inside the secondary dot.
func (b *Buffer) XDotContents() string {
	return b.txt.Slice(int(b.XDot.Start), int(b.XDot.End))
}

// Addr renders the primary dot as a character-offset address.
func (b *Buffer) Addr() string {
	return fmt.Sprintf("#%d,#%d", b.Dot.Start, b.Dot.End)
}

// XAddr renders the secondary dot as a character-offset address.
func (b *Buffer) XAddr() string {
	return fmt.Sprintf("#%d,#%d", b.XDot.Start, b.XDot.End)
}

// MapAddr evaluates an address expression against the buffer with the
// primary dot as '.'.
func (b *Buffer) MapAddr(expr string) (dot.Dot, error) {
	return dot.Evaluate(expr, b.Dot, b.txt, regex.Compiler{})
}

// NewTransaction opens an undo boundary: edits recorded after this call
// undo separately from edits before it.
func (b *Buffer) NewTransaction() {
	b.log.NewTransaction()
}

// InsertChar inserts c at character index idx. One of the three
// fundamental mutation paths (with [Buffer.InsertString] and
// [Buffer.DeleteRange]): records to the edit log unless a replay is in
// progress, marks file-backed buffers dirty and keeps both dots clamped.
func (b *Buffer) InsertChar(idx int, c rune) {
	b.txt.InsertChar(idx, c)
	b.log.InsertChar(idx, c)
	b.markMutated()
}

// InsertString inserts s at character index idx.
func (b *Buffer) InsertString(idx int, s string) {
	if s == "" {
		return
	}

	b.txt.InsertStr(idx, s)
	b.log.InsertString(idx, s)
	b.markMutated()
}

// DeleteRange removes the characters in [from, to).
func (b *Buffer) DeleteRange(from int, to int) {
	if from >= to {
		return
	}

	removed := b.txt.Slice(from, to)
	b.txt.RemoveRange(from, to)
	b.log.DeleteString(from, removed)
	b.markMutated()
}

func (b *Buffer) markMutated() {
	if b.Kind.IsFileBacked() && !b.log.Paused() {
		b.Dirty = true
	}

	b.clampDots()
}

// ClampDots pulls both dots back inside [0, LenChars], for callers that
// restore a saved dot after edits may have shrunk the buffer.
func (b *Buffer) ClampDots() {
	b.clampDots()
}

func (b *Buffer) clampDots() {
	n := dot.Cur(b.txt.LenChars())
	b.Dot = clampDot(b.Dot, n)
	b.XDot = clampDot(b.XDot, n)
}

func clampDot(d dot.Dot, n dot.Cur) dot.Dot {
	if d.Start > n {
		d.Start = n
	}

	if d.End > n {
		d.End = n
	}

	return d
}

// Undo reverses the most recent transaction. Returns false if there was
// nothing to undo.
func (b *Buffer) Undo() bool {
	t, ok := b.log.Undo()
	if !ok {
		return false
	}

	b.applyTransaction(t)

	return true
}

// Redo reapplies the most recently undone transaction.
func (b *Buffer) Redo() bool {
	t, ok := b.log.Redo()
	if !ok {
		return false
	}

	b.applyTransaction(t)

	return true
}

// applyTransaction replays a transaction against the gap buffer with the
// log paused, then re-derives the dirty flag from the undo stack.
func (b *Buffer) applyTransaction(t editlog.Transaction) {
	defer b.log.EndReplay()

	for _, e := range t {
		switch e.Kind {
		case editlog.Insert:
			b.txt.InsertStr(e.Cur, e.Txt)
			b.Dot = dot.FromCur(dot.Cur(e.End()))
		case editlog.Delete:
			b.txt.RemoveRange(e.Cur, e.End())
			b.Dot = dot.FromCur(dot.Cur(e.Cur))
		}
	}

	b.clampDots()
	b.Dirty = b.Kind.IsFileBacked() && b.log.Dirty()
}

// StateChangedOnDisk reports whether the backing file was modified since
// the buffer last loaded or saved it.
func (b *Buffer) StateChangedOnDisk() bool {
	if !b.Kind.IsFileBacked() || b.lastSave.IsZero() {
		return false
	}

	info, err := os.Stat(b.Kind.Name)
	if err != nil {
		return false
	}

	return info.ModTime().After(b.lastSave)
}

// SaveToDiskAt writes the buffer to path. Without force, a file that
// changed on disk since the last save is refused; the returned message is
// for the status line either way.
func (b *Buffer) SaveToDiskAt(path string, force bool) (string, error) {
	if !force && path == b.Kind.Name && b.StateChangedOnDisk() {
		return fmt.Sprintf("%s changed on disk, use force to overwrite", path),
			os.ErrExist
	}

	contents := b.txt.String()

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Sprintf("unable to save %s", path), err
	}

	b.Dirty = false
	b.lastSave = time.Now()

	if b.Kind.Tag == KindUnnamed || (b.Kind.Tag == KindFile && b.Kind.Name != path) {
		b.Kind = Kind{Tag: KindFile, Name: path}
	}

	nLines := b.txt.LenLines()
	nBytes := len(contents)

	return fmt.Sprintf("%s %dL %dB written", path, nLines, nBytes), nil
}

// ReloadFromDisk replaces the buffer contents with the file's current
// state, clearing the edit log and dirty flag.
func (b *Buffer) ReloadFromDisk() error {
	if !b.Kind.IsFileBacked() {
		return fmt.Errorf("%s is not file backed", b.FullName())
	}

	raw, err := os.ReadFile(b.Kind.Name)
	if err != nil {
		return fmt.Errorf("unable to reload %s: %w", b.Kind.Name, err)
	}

	if !utf8.Valid(raw) {
		return fmt.Errorf("%s is not valid UTF-8", b.Kind.Name)
	}

	b.txt = gapbuffer.NewStr(string(raw))
	b.log = editlog.New()
	b.Dirty = false
	b.lastSave = time.Now()
	b.clampDots()

	return nil
}

// OutputFileKey is the routing key for this buffer's command output: a
// "+output" entry next to the file, or a bare "+output" for buffers with
// no directory.
func (b *Buffer) OutputFileKey() string {
	switch b.Kind.Tag {
	case KindFile:
		return filepath.Join(filepath.Dir(b.Kind.Name), "+output")
	case KindDirectory:
		return filepath.Join(b.Kind.Name, "+output")
	default:
		return "+output"
	}
}
