// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     sam.go
// Date:     07.Feb.2024
//
// =============================================================================

// Package sam implements the sam-style edit language: a small program of
// structural-regex loops (x/y), guards (g/v), groups and actions
// (p/i/a/c/d/s) that evolves a dot over an [IterableStream] and mutates the
// stream as it goes.
//
// A program is parsed once with [Parse] and can then be executed against
// any stream: the in-memory gap buffer of an open file ([GapStream]) or a
// lazily-read stdin pipe ([CachedStdin]).
package sam

import (
	"errors"
	"fmt"

	"github.com/Release-Candidate/samedit/internal/regex"
)

// Variable usable in templates for injecting the current filename,
// following the naming convention used in Awk.
const fnameVar = "$FILENAME"

// Parse and validation errors.
var (
	ErrEmptyProgram     = errors.New("empty edit program")
	ErrEmptyGroup       = errors.New("empty expression group")
	ErrEmptyBranch      = errors.New("empty expression group branch")
	ErrMissingAction    = errors.New("edit programs must end with an action")
	ErrMissingDelimiter = errors.New("missing delimiter")
	ErrUnclosedDelim    = errors.New("unclosed delimiter")
	ErrUnclosedGroup    = errors.New("unclosed expression group")
	ErrInvalidSub       = errors.New("invalid substitution")
)

// exprKind enumerates the expression forms of the language.
type exprKind int

const (
	exprLoopMatches exprKind = iota // x/re/
	exprLoopBetween                 // y/re/
	exprIfContains                  // g/re/
	exprIfNot                       // v/re/
	exprGroup                       // { ... ; ... }
	exprPrint                       // p/text/
	exprInsert                      // i/text/
	exprAppend                      // a/text/
	exprChange                      // c/text/
	exprDelete                      // d
	exprSub                         // s/re/text/
	exprSubAll                      // s/re/text/g
)

// expr is a single parsed expression. Loop and guard forms carry a
// compiled regex, action forms a template, groups their branches.
type expr struct {
	kind     exprKind
	re       *regex.Program
	tmpl     string
	branches [][]expr
}

// isAction reports whether e is a valid final expression for a program or
// group branch.
func (e expr) isAction() bool {
	switch e.kind {
	case exprGroup, exprPrint, exprInsert, exprAppend, exprChange,
		exprDelete, exprSub, exprSubAll:
		return true
	default:
		return false
	}
}

// dotKind enumerates the initial-dot forms.
type dotKind int

const (
	dotFull dotKind = iota // ','
	dotCurrent             // '.'
	dotStart               // 'N,'
	dotRange               // 'N,M'
)

type initialDot struct {
	kind     dotKind
	from, to int
}

// Program is a parsed and validated edit program ready to execute.
type Program struct {
	initial initialDot
	exprs   []expr
}

// fmtErr wraps a sentinel with positional detail.
func fmtErr(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
