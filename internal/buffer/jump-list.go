// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     jump-list.go
// Date:     07.Feb.2024
//
// =============================================================================

package buffer

import "github.com/Release-Candidate/samedit/internal/dot"

// Jump is one remembered position: a buffer and a cursor within it.
type Jump struct {
	BufID int
	Cur   dot.Cur
}

// JumpList remembers positions the user jumped away from so they can walk
// back and forth through them. Pushing a new jump clears the forward
// history, like a browser's.
type JumpList struct {
	back    []Jump
	forward []Jump
}

// Push records the position being jumped away from.
func (j *JumpList) Push(jump Jump) {
	if n := len(j.back); n > 0 && j.back[n-1] == jump {
		return
	}

	j.back = append(j.back, jump)
	j.forward = j.forward[:0]
}

// Back returns the previous position, recording current so the jump can
// be retraced. ok=false if there is no history.
func (j *JumpList) Back(current Jump) (Jump, bool) {
	n := len(j.back)
	if n == 0 {
		return Jump{}, false
	}

	jump := j.back[n-1]
	j.back = j.back[:n-1]
	j.forward = append(j.forward, current)

	return jump, true
}

// Forward retraces a jump undone with [JumpList.Back].
func (j *JumpList) Forward(current Jump) (Jump, bool) {
	n := len(j.forward)
	if n == 0 {
		return Jump{}, false
	}

	jump := j.forward[n-1]
	j.forward = j.forward[:n-1]
	j.back = append(j.back, current)

	return jump, true
}
