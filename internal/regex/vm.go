// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     vm.go
// Date:     07.Feb.2024
//
// =============================================================================

package regex

import "github.com/Release-Candidate/samedit/internal/dot"

// runeSource is the minimal indexed character stream the VM matches
// against, decoupled from the richer [dot.TextBuffer] contract the
// address language needs. It is the internal face of [Input].
type runeSource interface {
	Len() int
	At(i int) rune
}

// bufferSource adapts a [dot.TextBuffer] to a [runeSource].
type bufferSource struct{ b dot.TextBuffer }

func (s bufferSource) Len() int { return s.b.LenChars() }

func (s bufferSource) At(i int) rune {
	str := s.b.Slice(i, i+1)
	for _, r := range str {
		return r
	}

	return 0
}

// reversedSource presents src back to front, used to implement backward
// search by matching a reversed program against a reversed view of the
// text instead of scanning the forward program backwards by hand.
type reversedSource struct{ src runeSource }

func (s reversedSource) Len() int { return s.src.Len() }

func (s reversedSource) At(i int) rune { return s.src.At(s.Len() - 1 - i) }

// thread is one live VM thread: a program counter and its capture slots.
type thread struct {
	pc    int
	saves []int
}

// threadList is a Thompson-VM thread list with its mark slab
// pre-allocated to program length; a generation counter deduplicates
// thread spawns per input character without clearing the slab.
type threadList struct {
	threads []thread
	marks   []int
	gen     int
}

func newThreadList(n int) *threadList {
	return &threadList{marks: make([]int, n)}
}

func (l *threadList) reset() {
	l.gen++
	l.threads = l.threads[:0]
}

func (l *threadList) seen(pc int) bool {
	return l.marks[pc] == l.gen
}

func (l *threadList) mark(pc int) {
	l.marks[pc] = l.gen
}

// addThread follows Split/Jump/Save and the zero-width assertions eagerly,
// adding only consuming instructions (or Match) to the list, exactly once
// per generation.
func addThread(list *threadList, insts []inst, pc int, saves []int, pos int, atLo bool, atHi bool, rs runeSource) {
	if list.seen(pc) {
		return
	}

	list.mark(pc)

	switch insts[pc].op {
	case opJump:
		addThread(list, insts, insts[pc].x, saves, pos, atLo, atHi, rs)

	case opSplit:
		addThread(list, insts, insts[pc].x, saves, pos, atLo, atHi, rs)
		addThread(list, insts, insts[pc].y, saves, pos, atLo, atHi, rs)

	case opSave:
		cp := append([]int(nil), saves...)
		if insts[pc].slot < len(cp) {
			cp[insts[pc].slot] = pos
		}

		addThread(list, insts, pc+1, cp, pos, atLo, atHi, rs)

	case opStartAnchor:
		if atLo {
			addThread(list, insts, pc+1, saves, pos, atLo, atHi, rs)
		}

	case opEndAnchor:
		if atHi {
			addThread(list, insts, pc+1, saves, pos, atLo, atHi, rs)
		}

	case opWordBoundary:
		before := pos > 0 && isWordRune(rs.At(pos-1))
		after := pos < rs.Len() && isWordRune(rs.At(pos))
		boundary := before != after

		if boundary != insts[pc].negate {
			addThread(list, insts, pc+1, saves, pos, atLo, atHi, rs)
		}

	default:
		list.threads = append(list.threads, thread{pc: pc, saves: saves})
	}
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func matches(in inst, r rune) bool {
	switch in.op {
	case opChar:
		return in.r == r
	case opAny:
		return r != '\n'
	case opTrueAny:
		return true
	case opClass:
		return matchClass(in.class, r)
	default:
		return false
	}
}

func matchClass(c *classNode, r rune) bool {
	in := false

	for _, rg := range c.ranges {
		if r >= rg[0] && r <= rg[1] {
			in = true

			break
		}
	}

	if c.negate {
		return !in && r != '\n'
	}

	return in
}

// search runs one two-list simulation over [lo, hi), looking for the
// leftmost match starting at or after `from`. Instead of re-running an
// anchored simulation per candidate offset, a fresh start thread is
// seeded into the live list at every position (at the lowest priority,
// so earlier starts win) until a match commits; the thread-list
// deduplication then bounds the whole scan at O(|program| * |input|)
// regardless of where -- or whether -- the match is.
//
// When a Match thread surfaces, every lower-priority thread of that step
// is cut and seeding stops; surviving higher-priority threads may still
// extend the match, so the last one recorded wins (greedy,
// leftmost-first). lo/hi also bound the `^`/`$` assertions.
func (p *Program) search(rs runeSource, lo int, hi int, from int) (slots []int, ok bool) {
	clist := newThreadList(len(p.insts))
	nlist := newThreadList(len(p.insts))

	initSaves := make([]int, p.numSlots)
	for i := range initSaves {
		initSaves[i] = -1
	}

	var matched []int

	pos := from
	clist.reset()

	for {
		if matched == nil && pos <= hi {
			addThread(clist, p.insts, 0, initSaves, pos, pos == lo, pos == hi, rs)
		}

		if len(clist.threads) == 0 && (matched != nil || pos >= hi) {
			return matched, matched != nil
		}

		hasChar := pos < hi

		r := rune(0)
		if hasChar {
			r = rs.At(pos)
		}

		nlist.reset()

		for _, th := range clist.threads {
			if p.insts[th.pc].op == opMatch {
				matched = th.saves

				break
			}

			if hasChar && matches(p.insts[th.pc], r) {
				addThread(nlist, p.insts, th.pc+1, th.saves, pos+1, pos+1 == lo, pos+1 == hi, rs)
			}
		}

		clist, nlist = nlist, clist
		pos++
	}
}

// FindForward returns the first match at or after character index from,
// searching the whole buffer.
func (p *Program) FindForward(b dot.TextBuffer, from int) (start int, end int, ok bool) {
	rs := bufferSource{b}
	n := rs.Len()

	if slots, ok := p.search(rs, 0, n, from); ok {
		return slots[0], slots[1], true
	}

	return 0, 0, false
}

// FindBackward returns the nearest match ending at or before character
// index from, implemented by matching the regex's reversed AST against a
// reversed view of the buffer starting from the mirrored position.
func (p *Program) FindBackward(b dot.TextBuffer, from int) (start int, end int, ok bool) {
	if p.reversed == nil {
		return 0, 0, false
	}

	rs := bufferSource{b}
	rrs := reversedSource{src: rs}
	n := rs.Len()

	if slots, ok := p.reversed.search(rrs, 0, n, n-from); ok {
		return n - slots[1], n - slots[0], true
	}

	return 0, 0, false
}

// Compiler implements [dot.Compiler] by compiling a pattern with [Parse].
type Compiler struct{}

// Compile implements [dot.Compiler].
func (Compiler) Compile(pattern string) (dot.Matcher, error) {
	return Parse(pattern)
}
