// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     address_test.go
// Date:     07.Feb.2024
//
// =============================================================================

// Black-box testing of the sam/acme address language evaluator.
package dot_test

import (
	"testing"

	"github.com/Release-Candidate/samedit/internal/dot"
	"github.com/Release-Candidate/samedit/internal/gapbuffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressCharOffset(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("one\ntwo\nthree")
	d, err := dot.Evaluate("#4", dot.FromCur(0), gb, nil)
	require.NoError(t, err)
	assert.Equal(t, dot.Cur(4), d.ActiveCur())
}

func TestAddressLineNumber(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("one\ntwo\nthree")
	d, err := dot.Evaluate("1", dot.FromCur(0), gb, nil)
	require.NoError(t, err)
	assert.Equal(t, dot.Cur(4), d.ActiveCur()) // start of the second (0-based) line
}

func TestAddressEndOfBuffer(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("one\ntwo\nthree")
	d, err := dot.Evaluate("$", dot.FromCur(0), gb, nil)
	require.NoError(t, err)
	assert.Equal(t, dot.Cur(gb.LenChars()), d.ActiveCur())
}

func TestAddressRange(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("one\ntwo\nthree")
	d, err := dot.Evaluate("#0,$", dot.FromCur(0), gb, nil)
	require.NoError(t, err)
	assert.Equal(t, dot.Cur(0), d.Start)
	assert.Equal(t, dot.Cur(gb.LenChars()), d.End)
}

func TestAddressRelativeLine(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("one\ntwo\nthree")
	d, err := dot.Evaluate("0+1", dot.FromCur(0), gb, nil)
	require.NoError(t, err)
	assert.Equal(t, dot.Cur(4), d.ActiveCur())
}

func TestAddressDotKeepsCurrent(t *testing.T) {
	t.Parallel()

	gb := gapbuffer.NewStr("one\ntwo\nthree")
	d, err := dot.Evaluate(".", dot.FromCur(5), gb, nil)
	require.NoError(t, err)
	assert.Equal(t, dot.Cur(5), d.ActiveCur())
}
