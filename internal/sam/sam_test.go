// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     sam_test.go
// Date:     07.Feb.2024
//
// =============================================================================

// Black-box testing of the edit-language parser and interpreter.
package sam_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Release-Candidate/samedit/internal/dot"
	"github.com/Release-Candidate/samedit/internal/gapbuffer"
	"github.com/Release-Candidate/samedit/internal/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execOn parses prog, runs it against text with a collapsed dot at 0 and
// returns the resulting text, printed output and final dot.
func execOn(t *testing.T, progSrc string, text string) (string, string, int, int) {
	t.Helper()

	prog, err := sam.Parse(progSrc)
	require.NoError(t, err)

	gb := gapbuffer.NewStr(text)
	stream := sam.NewGapStream(gb, dot.FromCur(0))

	var out bytes.Buffer

	from, to, err := prog.Execute(stream, "test", &out)
	require.NoError(t, err)

	return gb.String(), out.String(), from, to
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty", "", sam.ErrEmptyProgram},
		{"blank", "   ", sam.ErrEmptyProgram},
		{"missing action", ", x/.*/", sam.ErrMissingAction},
		{"unclosed delimiter", ", p/foo", sam.ErrUnclosedDelim},
		{"unclosed group", ", { p/a/", sam.ErrUnclosedGroup},
		{"empty group", ", {}", sam.ErrEmptyGroup},
		{"empty branch", ", { p/a/; }", sam.ErrEmptyBranch},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := sam.Parse(tc.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSimpleActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		text string
		want string
	}{
		{"insert", ", i/X/", "foo", "Xfoo"},
		{"append", ", a/X/", "foo", "fooX"},
		{"change", ", c/X/", "foo", "X"},
		{"delete", ", d", "foo", ""},
		{"sub first", ", s/oo/X/", "foo foo", "fX foo"},
		{"sub all", ", s/oo/X/g", "foo foo", "fX fX"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, _, _, _ := execOn(t, tc.src, tc.text)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSubstituteAllMatchesSpecScenario(t *testing.T) {
	t.Parallel()

	got, _, _, _ := execOn(t, ", s/oo/X/g", "foo|foo|foo")
	assert.Equal(t, "fX|fX|fX", got)
}

func TestLoopChangeEqualsGlobalSubstitute(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"foo|foo|foo",
		"foo",
		"",
		"oo",
		"oooo",
		"no match here",
		"foo\nfoo\nfoo",
	}

	for _, text := range inputs {
		text := text
		t.Run(strings.ReplaceAll(text, "\n", "_"), func(t *testing.T) {
			t.Parallel()

			viaSub, _, sf, st := execOn(t, ", s/oo/X/g", text)
			viaLoop, _, lf, lt := execOn(t, ", x/oo/ c/X/", text)

			assert.Equal(t, viaSub, viaLoop)
			assert.Equal(t, sf, lf)
			assert.Equal(t, st, lt)
		})
	}
}

func TestLoopWithGuards(t *testing.T) {
	t.Parallel()

	// Delete every line mentioning emacs.
	got, _, _, _ := execOn(t, `, x/[^\n]*\n/ g/emacs/ d`,
		"keep this\nemacs is here\nand keep this\n")
	assert.Equal(t, "keep this\nand keep this\n", got)

	// v is the negated guard.
	got, _, _, _ = execOn(t, `, x/[^\n]*\n/ v/emacs/ d`,
		"keep this\nemacs is here\nand keep this\n")
	assert.Equal(t, "emacs is here\n", got)
}

func TestLoopBetweenMatches(t *testing.T) {
	t.Parallel()

	// Change the text between the separators, leaving them alone.
	got, _, _, _ := execOn(t, ", y/,/ c/X/", "a,bb,ccc")
	assert.Equal(t, "X,X,ccc", got)
}

func TestGroupBranchesRunInOrder(t *testing.T) {
	t.Parallel()

	_, out, _, _ := execOn(t, ", x/o/ { p/first $0/; p/second $0/ }", "o")
	assert.Equal(t, "first o\nsecond o\n", out)
}

func TestPrintWithCaptureGroups(t *testing.T) {
	t.Parallel()

	_, out, _, _ := execOn(t, `, x/(\w+)@(\w+)/ p/user=$1 host=$2/`,
		"sam@plan9 glenda@acme")
	assert.Equal(t, "user=sam host=plan9\nuser=glenda host=acme\n", out)
}

func TestTemplateFilenameAndEscapes(t *testing.T) {
	t.Parallel()

	prog, err := sam.Parse(`, p/$FILENAME:\t$0\n/`)
	require.NoError(t, err)

	gb := gapbuffer.NewStr("hi")
	stream := sam.NewGapStream(gb, dot.FromCur(0))

	var out bytes.Buffer

	_, _, err = prog.Execute(stream, "notes.txt", &out)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt:\thi\n\n", out.String())
}

func TestTemplateMissingGroupFails(t *testing.T) {
	t.Parallel()

	prog, err := sam.Parse(`, x/ab/ p/$3/`)
	require.NoError(t, err)

	gb := gapbuffer.NewStr("ab")
	stream := sam.NewGapStream(gb, dot.FromCur(0))

	var out bytes.Buffer

	_, _, err = prog.Execute(stream, "test", &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, sam.ErrInvalidSub)
}

func TestInitialDotForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		text string
		want string
	}{
		{"full", ", c/X/", "abcdef", "X"},
		{"from n", "2, c/X/", "abcdef", "abX"},
		{"range", "1,3 c/X/", "abcdef", "aXdef"},
		{"omitted means full", "c/X/", "abcdef", "X"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, _, _, _ := execOn(t, tc.src, tc.text)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCurrentDotForm(t *testing.T) {
	t.Parallel()

	prog, err := sam.Parse(". c/X/")
	require.NoError(t, err)

	gb := gapbuffer.NewStr("abcdef")
	stream := sam.NewGapStream(gb,
		dot.FromCursors(dot.Cur(2), dot.Cur(4), true))

	var out bytes.Buffer

	from, to, err := prog.Execute(stream, "test", &out)
	require.NoError(t, err)
	assert.Equal(t, "abXef", gb.String())
	assert.Equal(t, 2, from)
	assert.Equal(t, 3, to)
}

func TestZeroWidthMatchMakesProgress(t *testing.T) {
	t.Parallel()

	// x* matches the empty string at every position; the loop must not
	// spin on it, and each zero-width match gets one appended dot.
	got, _, _, _ := execOn(t, ", x/x*/ a/./", "ab")
	assert.Equal(t, ".a.b.", got)
}

func TestCachedStdinStreamsLazily(t *testing.T) {
	t.Parallel()

	stream := sam.NewCachedReader(strings.NewReader("foo\nbar\nfoo\n"))

	prog, err := sam.Parse(", s/foo/baz/g")
	require.NoError(t, err)

	var out bytes.Buffer

	_, _, err = prog.Execute(stream, "stdin", &out)
	require.NoError(t, err)
	assert.Equal(t, "baz\nbar\nbaz\n", stream.Contents())
}

func TestCachedStdinReadsOnlyWhatAnExplicitRangeNeeds(t *testing.T) {
	t.Parallel()

	stream := sam.NewCachedReader(strings.NewReader("abcdef\nghijkl\n"))

	from, to := stream.MapInitialDot(0, 3)
	assert.Equal(t, 0, from)
	assert.Equal(t, 3, to)

	// Only the first line was pulled in to satisfy index 3.
	assert.Equal(t, 7, stream.LenChars())
}

func TestExecuteLeavesPartialStateOnTemplateError(t *testing.T) {
	t.Parallel()

	// The first match substitutes fine; the second hits the missing
	// group error because $1 only captures on the first alternative.
	prog, err := sam.Parse(`, x/(a)|b/ c/$1!/`)
	require.NoError(t, err)

	gb := gapbuffer.NewStr("a b")
	stream := sam.NewGapStream(gb, dot.FromCur(0))

	var out bytes.Buffer

	_, _, err = prog.Execute(stream, "test", &out)
	require.Error(t, err)
	assert.Equal(t, "a! b", gb.String())
}
