// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     dot_test.go
// Date:     07.Feb.2024
//
// =============================================================================

// Black-box testing of the dot/cursor/text-object model.
package dot_test

import (
	"testing"

	"github.com/Release-Candidate/samedit/internal/dot"
	"github.com/Release-Candidate/samedit/internal/gapbuffer"
	"github.com/stretchr/testify/assert"
)

func TestFromCurIsNullRange(t *testing.T) {
	t.Parallel()

	d := dot.FromCur(5)

	assert.True(t, d.IsCur())
	assert.Equal(t, dot.Cur(5), d.ActiveCur())
}

func TestArrowRightWrapsToNextLine(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("ab\ncd")
	d := dot.FromCur(2) // just before the newline

	d = dot.ArrowObject(dot.Right).Set(d, gb)

	assert.Equal(t, dot.Cur(3), d.ActiveCur())
}

func TestArrowLeftWrapsToPreviousLineEnd(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("ab\ncd")
	d := dot.FromCur(3) // start of second line

	d = dot.ArrowObject(dot.Left).Set(d, gb)

	assert.Equal(t, dot.Cur(2), d.ActiveCur())
}

func TestLineObjectSelectsWholeLine(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("one\ntwo\nthree")
	d := dot.FromCur(5) // inside "two"

	d = dot.Object(dot.Line).Set(d, gb)

	assert.Equal(t, "two\n", gb.Slice(int(d.Start), int(d.End)))
}

func TestWordObjectExpandsNullDot(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("hello world")
	d := dot.FromCur(7) // inside "world"

	d = dot.Object(dot.Word).Set(d, gb)

	assert.Equal(t, "world", gb.Slice(int(d.Start), int(d.End)))
}

func TestExpandNullDotBracket(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("foo (bar baz) qux")
	d := dot.FromCur(8) // inside the parens, on "bar baz"

	d = dot.ExpandNullDot(d, gb)

	assert.Equal(t, "(bar baz)", gb.Slice(int(d.Start), int(d.End)))
}

func TestExpandNullDotWhitespaceRun(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("foo   bar")
	d := dot.FromCur(4) // inside the run of spaces

	d = dot.ExpandNullDot(d, gb)

	assert.Equal(t, "   ", gb.Slice(int(d.Start), int(d.End)))
}
