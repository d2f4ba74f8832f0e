// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     cached-stdin.go
// Date:     07.Feb.2024
//
// =============================================================================

package sam

import (
	"bufio"
	"io"
	"os"

	"github.com/Release-Candidate/samedit/internal/gapbuffer"
)

// CachedStdin is an [IterableStream] over a line-oriented reader
// (normally stdin): lines are read and appended to an in-memory gap
// buffer lazily, as the interpreter demands higher character indices.
// This lets `cmd | samedit-program` pipelines start transforming before
// the producer has finished writing.
type CachedStdin struct {
	r      *bufio.Reader
	gb     *gapbuffer.GapBuffer
	closed bool
}

// NewCachedStdin returns a stream reading from the process's stdin.
func NewCachedStdin() *CachedStdin {
	return NewCachedReader(os.Stdin)
}

// NewCachedReader returns a stream reading from r.
func NewCachedReader(r io.Reader) *CachedStdin {
	return &CachedStdin{r: bufio.NewReader(r), gb: gapbuffer.New()}
}

// readNextLine appends one more line to the cache, marking the stream
// closed on EOF or error.
func (c *CachedStdin) readNextLine() {
	if c.closed {
		return
	}

	line, err := c.r.ReadString('\n')
	if line != "" {
		c.gb.InsertStr(c.gb.LenChars(), line)
	}

	if err != nil {
		c.closed = true
	}
}

// ensure reads lines until character index i exists or input runs out.
func (c *CachedStdin) ensure(i int) {
	for !c.closed && c.gb.LenChars() <= i {
		c.readNextLine()
	}
}

// ensureAll drains the reader.
func (c *CachedStdin) ensureAll() {
	for !c.closed {
		c.readNextLine()
	}
}

// LenChars implements [IterableStream]. It reports only what has been
// read so far; [IterableStream.MapInitialDot] is the point where the
// stream commits to a total length.
func (c *CachedStdin) LenChars() int {
	return c.gb.LenChars()
}

// At implements [IterableStream], blocking to read more input when i is
// past the cached prefix.
func (c *CachedStdin) At(i int) rune {
	c.ensure(i)

	for _, r := range c.gb.Slice(i, i+1) {
		return r
	}

	return 0
}

// CurrentDot implements [IterableStream]. A pipe has no user-held dot.
func (c *CachedStdin) CurrentDot() (int, int) {
	return 0, 0
}

// MapInitialDot implements [IterableStream]. An explicit end index only
// needs the input up to that index; an open end ("to the end of input")
// forces the rest of the reader in.
func (c *CachedStdin) MapInitialDot(from int, to int) (int, int) {
	if to < 0 {
		c.ensureAll()
		to = c.gb.LenChars()
	} else {
		c.ensure(to)
	}

	n := c.gb.LenChars()

	return clampIdx(from, n), clampIdx(to, n)
}

// Insert implements [IterableStream].
func (c *CachedStdin) Insert(idx int, s string) error {
	c.ensure(idx - 1)
	c.gb.InsertStr(clampIdx(idx, c.gb.LenChars()), s)

	return nil
}

// Remove implements [IterableStream].
func (c *CachedStdin) Remove(from int, to int) error {
	c.ensure(to - 1)

	n := c.gb.LenChars()
	from, to = clampIdx(from, n), clampIdx(to, n)

	if from < to {
		c.gb.RemoveRange(from, to)
	}

	return nil
}

// Contents implements [IterableStream], draining any unread input first.
func (c *CachedStdin) Contents() string {
	c.ensureAll()
	return c.gb.String()
}
