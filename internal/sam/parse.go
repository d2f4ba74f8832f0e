// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     parse.go
// Date:     07.Feb.2024
//
// =============================================================================

package sam

import (
	"strings"
	"unicode"

	"github.com/Release-Candidate/samedit/internal/regex"
)

// parser is a rune-indexed cursor over the program source.
type parser struct {
	src []rune
	pos int
}

// Parse parses and validates an edit program.
//
//	program := initial_dot expr+
//	initial_dot := ',' | '.' | N ',' M | N ',' | (empty)
func Parse(s string) (*Program, error) {
	p := &parser{src: []rune(strings.TrimSpace(s))}

	if p.eof() {
		return nil, ErrEmptyProgram
	}

	initial, err := p.parseInitialDot()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	var exprs []expr

	for !p.eof() {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, e)
		p.skipSpace()
	}

	prog := &Program{initial: initial, exprs: exprs}

	if len(exprs) > 0 {
		if err := validate(exprs); err != nil {
			return nil, err
		}
	}

	return prog, nil
}

// validate checks that a program (or group branch) ends with an action and
// recursively validates group branches.
func validate(exprs []expr) error {
	if len(exprs) == 0 {
		return ErrEmptyProgram
	}

	for _, e := range exprs {
		if e.kind == exprGroup {
			for _, branch := range e.branches {
				if err := validate(branch); err != nil {
					return err
				}
			}
		}
	}

	if !exprs[len(exprs)-1].isAction() {
		return ErrMissingAction
	}

	return nil
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() (rune, bool) {
	if p.eof() {
		return 0, false
	}

	return p.src[p.pos], true
}

func (p *parser) next() (rune, bool) {
	r, ok := p.peek()
	if ok {
		p.pos++
	}

	return r, ok
}

func (p *parser) skipSpace() {
	for {
		r, ok := p.peek()
		if !ok || !unicode.IsSpace(r) {
			return
		}

		p.pos++
	}
}

// parseInitialDot handles the optional leading dot expression. A leading
// rune that is none of ',', '.' or a digit means the dot was omitted and
// defaults to the full stream; nothing is consumed in that case.
func (p *parser) parseInitialDot() (initialDot, error) {
	r, ok := p.peek()
	if !ok {
		return initialDot{}, ErrEmptyProgram
	}

	switch {
	case r == ',':
		p.pos++
		return initialDot{kind: dotFull}, nil

	case r == '.':
		p.pos++
		return initialDot{kind: dotCurrent}, nil

	case isASCIIDigit(r):
		n := p.parseNum()

		sep, ok := p.next()
		if !ok || sep != ',' {
			return initialDot{}, fmtErr(ErrMissingDelimiter,
				"expected ',' after %d in initial dot", n)
		}

		r, ok := p.peek()
		if ok && isASCIIDigit(r) {
			m := p.parseNum()
			return initialDot{kind: dotRange, from: n, to: m}, nil
		}

		return initialDot{kind: dotStart, from: n}, nil

	default:
		return initialDot{kind: dotFull}, nil
	}
}

func (p *parser) parseNum() int {
	n := 0

	for {
		r, ok := p.peek()
		if !ok || !isASCIIDigit(r) {
			return n
		}

		n = n*10 + int(r-'0')
		p.pos++
	}
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// parseExpr parses a single expression starting at the current position.
func (p *parser) parseExpr() (expr, error) {
	r, ok := p.next()
	if !ok {
		return expr{}, ErrEmptyProgram
	}

	switch r {
	case 'x':
		re, err := p.parseRegexArg("x")
		return expr{kind: exprLoopMatches, re: re}, err

	case 'y':
		re, err := p.parseRegexArg("y")
		return expr{kind: exprLoopBetween, re: re}, err

	case 'g':
		re, err := p.parseRegexArg("g")
		return expr{kind: exprIfContains, re: re}, err

	case 'v':
		re, err := p.parseRegexArg("v")
		return expr{kind: exprIfNot, re: re}, err

	case 'p':
		tmpl, err := p.parseTextArg("p")
		return expr{kind: exprPrint, tmpl: tmpl}, err

	case 'i':
		tmpl, err := p.parseTextArg("i")
		return expr{kind: exprInsert, tmpl: tmpl}, err

	case 'a':
		tmpl, err := p.parseTextArg("a")
		return expr{kind: exprAppend, tmpl: tmpl}, err

	case 'c':
		tmpl, err := p.parseTextArg("c")
		return expr{kind: exprChange, tmpl: tmpl}, err

	case 'd':
		return expr{kind: exprDelete}, nil

	case 's':
		return p.parseSub()

	case '{':
		return p.parseGroup()

	default:
		return expr{}, fmtErr(ErrMissingAction, "unexpected character %q", r)
	}
}

// parseDelimited consumes a delimiter (the rune at the current position)
// and returns the text up to its next unescaped occurrence. An escaped
// delimiter is unescaped in the returned text; every other escape is left
// for the regex or template layer to interpret.
func (p *parser) parseDelimited(cmd string) (string, error) {
	delim, ok := p.next()
	if !ok {
		return "", fmtErr(ErrMissingDelimiter, "after %q", cmd)
	}

	if unicode.IsSpace(delim) || isASCIIDigit(delim) || unicode.IsLetter(delim) {
		return "", fmtErr(ErrMissingDelimiter, "%q cannot delimit %q", delim, cmd)
	}

	var b strings.Builder

	for {
		r, ok := p.next()
		if !ok {
			return "", fmtErr(ErrUnclosedDelim, "%q in %q", delim, cmd)
		}

		switch {
		case r == delim:
			return b.String(), nil

		case r == '\\':
			esc, ok := p.next()
			if !ok {
				return "", fmtErr(ErrUnclosedDelim, "%q in %q", delim, cmd)
			}

			if esc != delim {
				b.WriteRune('\\')
			}

			b.WriteRune(esc)

		default:
			b.WriteRune(r)
		}
	}
}

func (p *parser) parseRegexArg(cmd string) (*regex.Program, error) {
	src, err := p.parseDelimited(cmd)
	if err != nil {
		return nil, err
	}

	return regex.Parse(src)
}

func (p *parser) parseTextArg(cmd string) (string, error) {
	return p.parseDelimited(cmd)
}

// parseSub parses s/re/text/ with an optional trailing 'g'. The shared
// middle delimiter means the two halves are read in one pass.
func (p *parser) parseSub() (expr, error) {
	reSrc, err := p.parseDelimited("s")
	if err != nil {
		return expr{}, err
	}

	// The closing delimiter of the regex is the opening one of the
	// template, so back up one rune and read the second half.
	p.pos--

	tmpl, err := p.parseDelimited("s")
	if err != nil {
		return expr{}, err
	}

	re, err := regex.Parse(reSrc)
	if err != nil {
		return expr{}, err
	}

	kind := exprSub

	if r, ok := p.peek(); ok && r == 'g' {
		p.pos++
		kind = exprSubAll
	}

	return expr{kind: kind, re: re, tmpl: tmpl}, nil
}

// parseGroup parses '{' expr+ ((';'|',') expr+)* '}'. The opening brace
// has already been consumed.
func (p *parser) parseGroup() (expr, error) {
	var (
		branches [][]expr
		branch   []expr
	)

	for {
		p.skipSpace()

		r, ok := p.peek()
		if !ok {
			return expr{}, ErrUnclosedGroup
		}

		switch r {
		case '}':
			p.pos++

			if len(branch) == 0 && len(branches) == 0 {
				return expr{}, ErrEmptyGroup
			}

			if len(branch) == 0 {
				return expr{}, ErrEmptyBranch
			}

			branches = append(branches, branch)

			return expr{kind: exprGroup, branches: branches}, nil

		case ';', ',':
			p.pos++

			if len(branch) == 0 {
				return expr{}, ErrEmptyBranch
			}

			branches = append(branches, branch)
			branch = nil

		default:
			e, err := p.parseExpr()
			if err != nil {
				return expr{}, err
			}

			branch = append(branch, e)
		}
	}
}
