// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     exec.go
// Date:     07.Feb.2024
//
// =============================================================================

package sam

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Release-Candidate/samedit/internal/regex"
)

// frameKind enumerates the expression forms that need resumable state on
// the interpreter's work stack. Guards and actions never suspend, so they
// never push a frame.
type frameKind int

const (
	frameLoop    frameKind = iota // x/re/
	frameBetween                  // y/re/
	frameGroup                    // { ... }
)

// frame is one suspended loop or group: enough state to resume the
// enclosing expression chain once the body below it has produced its
// resulting dot.
type frame struct {
	kind  frameKind
	chain []expr
	pc    int // index of the suspended expression in chain

	re        *regex.Program
	from, to  int // loop bounds, kept consistent under edits
	startFrom int // the window start the loop was entered with
	preLen    int // stream length when the body was entered

	matchStart int // current match, pre-edit coordinates
	matchEnd   int

	branches [][]expr
	branch   int
	gm       regex.Match // the match a group replays into every branch
}

// Execute runs the program against stream. Lines printed by p/ land on
// out; fname is the value of $FILENAME in templates. The returned range
// is the final dot as half-open character indices, valid against the
// stream's state after all edits.
//
// A stream or template error aborts execution immediately: edits already
// applied stay applied and the caller is expected to rely on its edit log
// if it needs rollback.
func (p *Program) Execute(stream IterableStream, fname string, out io.Writer) (int, int, error) {
	var from, to int

	switch p.initial.kind {
	case dotFull:
		from, to = stream.MapInitialDot(0, -1)
	case dotStart:
		from, to = stream.MapInitialDot(p.initial.from, -1)
	case dotRange:
		from, to = stream.MapInitialDot(p.initial.from, p.initial.to)
	case dotCurrent:
		from, to = stream.CurrentDot()
	}

	if len(p.exprs) == 0 {
		return from, to, nil
	}

	from, to, err := run(p.exprs, regex.SyntheticMatch(from, to), stream, fname, out)

	n := stream.LenChars()

	return clampIdx(from, n), clampIdx(to, n), err
}

// run is the interpreter proper: a flat loop alternating between a
// descend phase (execute expressions until an action yields a dot) and a
// return phase (feed that dot into the innermost suspended frame). Loops
// and groups live on an explicit stack instead of the call stack.
func run(chain []expr, m regex.Match, stream IterableStream, fname string, out io.Writer) (int, int, error) {
	in := streamInput{stream}

	var stack []frame

	rfrom, rto, err := descend(chain, 0, &m, &stack, stream, in, fname, out)
	if err != nil {
		return rfrom, rto, err
	}

	for len(stack) > 0 {
		fr := &stack[len(stack)-1]

		switch fr.kind {
		case frameGroup:
			fr.branch++
			if fr.branch < len(fr.branches) {
				m = fr.gm
				branch := fr.branches[fr.branch]

				rfrom, rto, err = descend(branch, 0, &m, &stack, stream, in, fname, out)
				if err != nil {
					return rfrom, rto, err
				}

				continue
			}

			// rfrom/rto already hold the last branch's result.
			stack = stack[:len(stack)-1]

		case frameLoop:
			newLen := stream.LenChars()
			edited := newLen != fr.preLen
			fr.to += newLen - fr.preLen

			// The body's resulting end is where the search resumes. A
			// zero-width match always advances one further so the loop
			// cannot keep pace with text the body itself grows; a body
			// that edited nothing and left the dot at the match start is
			// bumped for the same reason.
			nextFrom := rto
			if nextFrom < fr.matchStart {
				nextFrom = fr.matchStart
			}

			if fr.matchEnd == fr.matchStart || (nextFrom == fr.matchStart && !edited) {
				nextFrom++
			}

			fr.from = nextFrom

			if nextFrom > fr.to {
				rfrom, rto = loopResult(fr)
				stack = stack[:len(stack)-1]

				continue
			}

			lm, ok := findIn(fr.re, in, nextFrom, fr.to)
			if !ok {
				rfrom, rto = loopResult(fr)
				stack = stack[:len(stack)-1]

				continue
			}

			fr.matchStart, fr.matchEnd = lm.Loc()
			fr.preLen = newLen
			m = lm
			bodyChain, bodyPc := fr.chain, fr.pc+1

			rfrom, rto, err = descend(bodyChain, bodyPc, &m, &stack, stream, in, fname, out)
			if err != nil {
				return rfrom, rto, err
			}

		case frameBetween:
			newLen := stream.LenChars()
			delta := newLen - fr.preLen
			fr.to += delta

			// Edits happened in the gap before the match, so the match
			// itself shifted by delta; resume searching right after it.
			nextFrom := fr.matchEnd + delta
			if fr.matchEnd == fr.matchStart {
				nextFrom++
			}

			fr.from = nextFrom

			popped := *fr
			stack = stack[:len(stack)-1]

			res, err := loopBetween(&popped, &stack, &m, stream, in, fname, out)
			if err != nil {
				return rfrom, rto, err
			}

			if res != nil {
				rfrom, rto = res[0], res[1]
				continue
			}

			rfrom, rto, err = descend(popped.chain, popped.pc+1, &m, &stack, stream, in, fname, out)
			if err != nil {
				return rfrom, rto, err
			}
		}
	}

	return rfrom, rto, nil
}

// descend executes expressions from chain[pc] onward until an action (or
// an exhausted guard) produces a resulting dot. Loop and group
// expressions push a frame for [run] to resume and continue straight into
// their body, so by the time descend returns the stack holds every
// suspension passed on the way down.
func descend(chain []expr, pc int, m *regex.Match, stack *[]frame, stream IterableStream, in streamInput, fname string, out io.Writer) (int, int, error) {
	for {
		mfrom, mto := m.Loc()

		if pc >= len(chain) {
			return mfrom, mto, nil
		}

		e := chain[pc]

		switch e.kind {
		case exprIfContains:
			if !matchesIn(e.re, in, mfrom, mto) {
				return mfrom, mto, nil
			}

			pc++

		case exprIfNot:
			if matchesIn(e.re, in, mfrom, mto) {
				return mfrom, mto, nil
			}

			pc++

		case exprLoopMatches:
			lm, ok := findIn(e.re, in, mfrom, mto)
			if !ok {
				return mfrom, mto, nil
			}

			ms, me := lm.Loc()
			*stack = append(*stack, frame{
				kind:       frameLoop,
				chain:      chain,
				pc:         pc,
				re:         e.re,
				from:       mfrom,
				to:         mto,
				startFrom:  mfrom,
				preLen:     stream.LenChars(),
				matchStart: ms,
				matchEnd:   me,
			})
			*m = lm

			pc++

		case exprLoopBetween:
			fr := frame{
				kind:      frameBetween,
				chain:     chain,
				pc:        pc,
				re:        e.re,
				from:      mfrom,
				to:        mto,
				startFrom: mfrom,
				preLen:    stream.LenChars(),
			}

			res, err := loopBetween(&fr, stack, m, stream, in, fname, out)
			if err != nil {
				return mfrom, mto, err
			}

			if res != nil {
				return res[0], res[1], nil
			}

			pc++

		case exprGroup:
			*stack = append(*stack, frame{
				kind:     frameGroup,
				chain:    chain,
				pc:       pc,
				branches: e.branches,
				branch:   0,
				from:     mfrom,
				to:       mto,
				gm:       *m,
			})

			chain = e.branches[0]
			pc = 0

		default:
			from, to, err := applyAction(e, *m, stream, in, fname, out)
			return from, to, err
		}
	}
}

// loopBetween searches for the next match from fr.from and, if the gap in
// front of it is non-empty, pushes fr and enters the body on that gap
// (returns nil). If the loop is finished it returns the final dot as a
// two-element slice. Empty gaps and zero-width matches at position 0 are
// skipped without running the body.
func loopBetween(fr *frame, stack *[]frame, m *regex.Match, stream IterableStream, in streamInput, fname string, out io.Writer) ([]int, error) {
	for {
		if fr.from > fr.to {
			from, to := loopResult(fr)
			return []int{from, to}, nil
		}

		lm, ok := findIn(fr.re, in, fr.from, fr.to)
		if !ok {
			from, to := loopResult(fr)
			return []int{from, to}, nil
		}

		ms, me := lm.Loc()

		// A zero-width match at the very start of the stream is skipped,
		// as is any match with no gap in front of it.
		if ms <= fr.from {
			fr.from = me
			if me == ms {
				fr.from = ms + 1
			}

			continue
		}

		gapFrom := fr.from
		fr.matchStart, fr.matchEnd = ms, me
		fr.preLen = stream.LenChars()

		*stack = append(*stack, *fr)
		*m = regex.SyntheticMatch(gapFrom, ms)

		return nil, nil
	}
}

// applyAction performs one of the terminal actions on the current match
// and returns the resulting dot.
func applyAction(e expr, m regex.Match, stream IterableStream, in streamInput, fname string, out io.Writer) (int, int, error) {
	from, to := m.Loc()
	n := stream.LenChars()
	from, to = clampIdx(from, n), clampIdx(to, n)

	switch e.kind {
	case exprPrint:
		s, err := templateMatch(e.tmpl, m, in, fname)
		if err != nil {
			return from, to, err
		}

		if _, err := fmt.Fprintln(out, s); err != nil {
			return from, to, err
		}

		return from, to, nil

	case exprInsert:
		s, err := templateMatch(e.tmpl, m, in, fname)
		if err != nil {
			return from, to, err
		}

		if err := stream.Insert(from, s); err != nil {
			return from, to, err
		}

		return from, to + runeLen(s), nil

	case exprAppend:
		s, err := templateMatch(e.tmpl, m, in, fname)
		if err != nil {
			return from, to, err
		}

		if err := stream.Insert(to, s); err != nil {
			return from, to, err
		}

		return from, to + runeLen(s), nil

	case exprChange:
		s, err := templateMatch(e.tmpl, m, in, fname)
		if err != nil {
			return from, to, err
		}

		if err := stream.Remove(from, to); err != nil {
			return from, to, err
		}

		if err := stream.Insert(from, s); err != nil {
			return from, to, err
		}

		return from, from + runeLen(s), nil

	case exprDelete:
		if err := stream.Remove(from, to); err != nil {
			return from, to, err
		}

		return from, from, nil

	case exprSub:
		return substitute(e, from, to, stream, in, fname, false)

	case exprSubAll:
		return substitute(e, from, to, stream, in, fname, true)

	default:
		return from, to, fmt.Errorf("not an action expression: %d", e.kind)
	}
}

// substitute implements s/re/text/ and its global variant. The global
// form is the moral equivalent of x/re/ c/text/: repeated first-match
// substitution with the window's end tracked across length changes.
func substitute(e expr, from int, to int, stream IterableStream, in streamInput, fname string, global bool) (int, int, error) {
	searchFrom := from

	for {
		lm, ok := findIn(e.re, in, searchFrom, to)
		if !ok {
			return from, to, nil
		}

		ms, me := lm.Loc()

		s, err := templateMatch(e.tmpl, lm, in, fname)
		if err != nil {
			return from, to, err
		}

		if err := stream.Remove(ms, me); err != nil {
			return from, to, err
		}

		if err := stream.Insert(ms, s); err != nil {
			return from, to, err
		}

		inserted := runeLen(s)
		to += inserted - (me - ms)

		if !global {
			return from, to, nil
		}

		searchFrom = ms + inserted
		if me == ms && inserted == 0 {
			searchFrom = ms + 1
		}

		if searchFrom > to {
			return from, to, nil
		}
	}
}

// findIn searches [from, to) with the bounds clamped to the stream's
// current length, so stale loop bounds after edits can never index past
// the end.
func findIn(re *regex.Program, in streamInput, from int, to int) (regex.Match, bool) {
	n := in.Len()
	from, to = clampIdx(from, n), clampIdx(to, n)

	if from > to {
		return regex.Match{}, false
	}

	return re.FindIn(in, from, to)
}

// loopResult is the dot a finished loop reports: the window it was
// entered with, with the end tracked across edits. Keeping the original
// start (rather than the advanced search position) makes a global
// substitution and its equivalent x-loop agree on the final dot.
func loopResult(fr *frame) (int, int) {
	from := fr.startFrom
	if from > fr.to {
		from = fr.to
	}

	return from, fr.to
}

func matchesIn(re *regex.Program, in streamInput, from int, to int) bool {
	_, ok := findIn(re, in, from, to)
	return ok
}

func runeLen(s string) int {
	return len([]rune(s))
}

// templateMatch expands a replacement template against a match: $0..$9
// are the capture groups, $FILENAME the current file name, and the \n and
// \t escapes become their literal characters. Referencing a group the
// match did not capture is an error.
func templateMatch(tmpl string, m regex.Match, in regex.Input, fname string) (string, error) {
	out := tmpl

	if strings.Contains(out, fnameVar) {
		out = strings.ReplaceAll(out, fnameVar, fname)
	}

	out = strings.ReplaceAll(out, `\n`, "\n")
	out = strings.ReplaceAll(out, `\t`, "\t")

	for n := 0; n <= 9; n++ {
		v := "$" + strconv.Itoa(n)
		if !strings.Contains(tmpl, v) {
			continue
		}

		sm, ok := m.GroupText(n, in)
		if !ok {
			return "", fmtErr(ErrInvalidSub, "no group for $%d", n)
		}

		out = strings.ReplaceAll(out, v, sm)
	}

	return out, nil
}
