// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     gap-buffer_whitebox_test.go
// Date:     07.Feb.2024
//
// =============================================================================

// White-box testing of the gap buffer's internal line accounting: after
// every mutation the per-line byte counts must sum to the buffer's length,
// whatever the gap position.
package gapbuffer //nolint:testpackage

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkLineInvariants asserts that the line buffer is consistent with the
// logical content: the line lengths sum to the byte length, the number of
// lines matches the newline count, and every line starts on a rune
// boundary.
func checkLineInvariants(t *testing.T, g *GapBuffer) {
	t.Helper()

	content := g.String()

	wantLines := strings.Count(content, "\n") + 1
	require.Equal(t, wantLines, g.lines.numLines(), "line count for %q", content)

	sum := 0
	for i := 0; i < g.lines.numLines(); i++ {
		sum += g.lines.lengthAt(i)
	}

	assert.Equal(t, len(content), sum, "line byte sum for %q", content)
	assert.Equal(t, utf8.RuneCountInString(content), g.LenChars())

	for i := 0; i < g.lines.numLines(); i++ {
		start := g.lineByteStart(i)
		require.LessOrEqual(t, start, len(content))

		if start < len(content) {
			assert.True(t, utf8.RuneStart(content[start]),
				"line %d starts mid-rune in %q", i, content)
		}

		if i > 0 {
			assert.Equal(t, byte('\n'), content[start-1],
				"line %d does not start after a newline in %q", i, content)
		}
	}
}

func TestGapMovementPreservesLineCounts(t *testing.T) {
	t.Parallel()

	gb := NewStr("hello, world!\nhow are you?")

	for _, target := range []int{0, 26, 13, 14, 7, 26, 0} {
		gb.MoveGap(target)

		assert.Equal(t, "hello, world!\nhow are you?", gb.String())
		assert.Equal(t, 14, gb.lines.lengthAt(0))
		assert.Equal(t, 12, gb.lines.lengthAt(1))
		checkLineInvariants(t, gb)
	}
}

func TestInsertKeepsLineAccounting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		initial string
		at      int
		insert  string
	}{
		{"plain text mid-line", "hello, world!", 6, "TEST"},
		{"newline mid-line", "hello, world!", 6, "\n"},
		{"text with newline mid-line", "hello, world!", 6, "TEST\n"},
		{"several newlines", "ab", 1, "\nx\ny\n"},
		{"at the start", "two\nlines", 0, "zero\n"},
		{"at the end", "two\nlines", 9, "\nthree"},
		{"into empty buffer", "", 0, "a\nb"},
		{"unicode before newline", "ä\nö", 1, "🙂"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gb := NewStr(tc.initial)
			gb.InsertStr(tc.at, tc.insert)

			runes := []rune(tc.initial)
			want := string(runes[:tc.at]) + tc.insert + string(runes[tc.at:])
			assert.Equal(t, want, gb.String())
			checkLineInvariants(t, gb)
		})
	}
}

func TestRemoveKeepsLineAccounting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		initial  string
		from, to int
	}{
		{"within one line", "hello, world!", 5, 7},
		{"a single newline", "one\ntwo", 3, 4},
		{"across one newline", "one\ntwo", 2, 5},
		{"across several newlines", "one\ntwo\nthree\nfour", 4, 14},
		{"everything", "one\ntwo\nthree", 0, 13},
		{"trailing newline", "line\n", 4, 5},
		{"unicode around newline", "ä🙂\nö", 1, 4},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gb := NewStr(tc.initial)
			gb.RemoveRange(tc.from, tc.to)

			runes := []rune(tc.initial)
			want := string(runes[:tc.from]) + string(runes[tc.to:])
			assert.Equal(t, want, gb.String())
			checkLineInvariants(t, gb)
		})
	}
}

func TestGrowKeepsGapAndLines(t *testing.T) {
	t.Parallel()

	gb := NewStrCap("a\nb", 8)

	// Repeated inserts force several grow cycles.
	for i := 0; i < 6; i++ {
		gb.InsertStr(2, "xx\nyy")
		checkLineInvariants(t, gb)
	}

	assert.Contains(t, gb.String(), "a\n")
}

func TestCharToByteLandsOnRuneBoundaries(t *testing.T) {
	t.Parallel()

	gb := NewStr("ä🙂x\nöü")
	content := gb.String()

	for c := 0; c <= gb.LenChars(); c++ {
		b := gb.CharToByte(c)

		require.LessOrEqual(t, b, len(content))
		if b < len(content) {
			assert.True(t, utf8.RuneStart(content[b]), "char %d -> byte %d", c, b)
		}
	}
}
