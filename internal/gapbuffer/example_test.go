// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     example_test.go
// Date:     07.Feb.2024
//
// =============================================================================

package gapbuffer_test

import (
	"fmt"

	"github.com/Release-Candidate/samedit/internal/gapbuffer"
)

func ExampleNewStr() {
	gb := gapbuffer.NewStr("Hello, World!")

	fmt.Println(gb.String())
	fmt.Println(gb.LenChars())
	// Output:
	// Hello, World!
	// 13
}

func ExampleGapBuffer_MoveGap() {
	gb := gapbuffer.NewStr("Hello World!")

	// Park the gap where a burst of edits is about to happen, then
	// insert at the cursor.
	gb.MoveGap(5)
	gb.Insert(",")

	fmt.Println(gb.String())
	// Output:
	// Hello, World!
}

func ExampleGapBuffer_InsertStr() {
	gb := gapbuffer.NewStr("one\nthree")
	gb.InsertStr(4, "two\n")

	fmt.Println(gb.String())
	fmt.Println(gb.LenLines())
	// Output:
	// one
	// two
	// three
	// 3
}

func ExampleGapBuffer_RemoveRange() {
	gb := gapbuffer.NewStr("hello, world!")
	gb.RemoveRange(5, 12)

	fmt.Println(gb.String())
	// Output:
	// hello!
}

func ExampleGapBuffer_Slice() {
	gb := gapbuffer.NewStr("hello, world!")

	fmt.Println(gb.Slice(7, 12))
	// Output:
	// world
}
