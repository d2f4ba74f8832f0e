// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     match_test.go
// Date:     07.Feb.2024
//
// =============================================================================

// Black-box testing of the exported streaming match API.
package regex_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Release-Candidate/samedit/internal/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeString is the simplest possible [regex.Input]: a rune slice.
type runeString []rune

func (s runeString) Len() int      { return len(s) }
func (s runeString) At(i int) rune { return s[i] }

func TestFindInIsBoundedByWindow(t *testing.T) {
	t.Parallel()

	prog, err := regex.Parse("oo")
	require.NoError(t, err)

	rs := runeString("foo foo foo")

	m, ok := prog.FindIn(rs, 4, 11)
	require.True(t, ok)

	start, end := m.Loc()
	assert.Equal(t, 5, start)
	assert.Equal(t, 7, end)

	_, ok = prog.FindIn(rs, 2, 5)
	assert.False(t, ok)
}

func TestFindInAnchorsAtWindowBounds(t *testing.T) {
	t.Parallel()

	prog, err := regex.Parse("^bar$")
	require.NoError(t, err)

	rs := runeString("foo bar baz")

	m, ok := prog.FindIn(rs, 4, 7)
	require.True(t, ok)

	start, end := m.Loc()
	assert.Equal(t, 4, start)
	assert.Equal(t, 7, end)

	_, ok = prog.FindIn(rs, 0, 11)
	assert.False(t, ok)
}

func TestMatchGroupText(t *testing.T) {
	t.Parallel()

	prog, err := regex.Parse(`(\w+)\@(\w+)`)
	require.NoError(t, err)

	rs := runeString("mail sam@plan9 end")

	m, ok := prog.FindIn(rs, 0, rs.Len())
	require.True(t, ok)

	full, ok := m.GroupText(0, rs)
	require.True(t, ok)
	assert.Equal(t, "sam@plan9", full)

	user, ok := m.GroupText(1, rs)
	require.True(t, ok)
	assert.Equal(t, "sam", user)

	host, ok := m.GroupText(2, rs)
	require.True(t, ok)
	assert.Equal(t, "plan9", host)

	_, _, ok = m.Group(3)
	assert.False(t, ok)
}

// TestSearchStaysLinearWithoutEarlyMatch pins down the worst case for a
// scanning matcher: a pattern whose prefix swallows the rest of the input
// from every offset, over a window with no match at all (and then one at
// the very end). Restarting the simulation per candidate offset is
// quadratic here; the seeded single pass must finish comfortably within
// the timeout.
func TestSearchStaysLinearWithoutEarlyMatch(t *testing.T) {
	t.Parallel()

	prog, err := regex.Parse("a*zzz")
	require.NoError(t, err)

	haystack := runeString(strings.Repeat("a", 100_000))

	done := make(chan bool, 1)

	go func() {
		_, ok := prog.FindIn(haystack, 0, haystack.Len())
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("search took too long, the scan is not linear in the input size")
	}

	// The same scan with the needle at the very end still finds it.
	late := runeString(strings.Repeat("a", 100_000) + "zzz")

	m, ok := prog.FindIn(late, 0, late.Len())
	require.True(t, ok)

	start, end := m.Loc()
	assert.Equal(t, 0, start)
	assert.Equal(t, late.Len(), end)
}

func TestSyntheticMatchHasNoGroups(t *testing.T) {
	t.Parallel()

	m := regex.SyntheticMatch(3, 9)

	start, end := m.Loc()
	assert.Equal(t, 3, start)
	assert.Equal(t, 9, end)

	_, _, ok := m.Group(1)
	assert.False(t, ok)
}
