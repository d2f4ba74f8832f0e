// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     render-line.go
// Date:     07.Feb.2024
//
// =============================================================================

package buffer

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Release-Candidate/samedit/internal/dot"
)

// RawRLineUnchecked produces the render text of line y truncated to
// cols-lpad screen cells: tabs are expanded to the configured tabstop and
// wide (East-Asian) runes take the cells they need. When dotRange is
// non-nil it holds a character-column range within the line and is
// rewritten in place to render columns, so the caller can highlight the
// dot without re-deriving the expansion. y must be a valid line index.
func (b *Buffer) RawRLineUnchecked(y int, lpad int, cols int, dotRange *[2]int) string {
	line := strings.TrimSuffix(b.txt.LineString(y), "\n")
	maxCells := cols - lpad

	if maxCells <= 0 {
		return ""
	}

	var (
		out   strings.Builder
		cells int
	)

	renderCols := make([]int, 0, len(line)+1)

	for _, r := range line {
		renderCols = append(renderCols, cells)

		w := runewidth.RuneWidth(r)

		if r == '\t' {
			w = b.cfg.Tabstop - cells%b.cfg.Tabstop
		}

		if cells+w > maxCells {
			break
		}

		if r == '\t' {
			out.WriteString(strings.Repeat(" ", w))
		} else {
			out.WriteRune(r)
		}

		cells += w
	}

	renderCols = append(renderCols, cells)

	renderColOf := func(charCol int) int {
		if charCol < 0 {
			return 0
		}

		if charCol >= len(renderCols) {
			return cells
		}

		return renderCols[charCol]
	}

	if dotRange != nil {
		dotRange[0] = renderColOf(dotRange[0])
		dotRange[1] = renderColOf(dotRange[1])
	}

	return out.String()
}

// RenderColOfCur returns the tab-expanded render column of a cursor
// within its own line, used to keep the wanted column stable when moving
// the dot between lines.
func (b *Buffer) RenderColOfCur(c dot.Cur) int {
	line := b.txt.ByteToLine(b.txt.CharToByte(int(c)))
	col := int(c) - b.txt.LineToChar(line)

	cells := 0

	for i, r := range []rune(strings.TrimSuffix(b.txt.LineString(line), "\n")) {
		if i >= col {
			break
		}

		if r == '\t' {
			cells += b.cfg.Tabstop - cells%b.cfg.Tabstop
		} else {
			cells += runewidth.RuneWidth(r)
		}
	}

	return cells
}

// UpdateRX refreshes the cached render column of the active cursor.
func (b *Buffer) UpdateRX() {
	b.RX = b.RenderColOfCur(b.Dot.ActiveCur())
}

// ClampScroll adjusts the viewport offsets so the active cursor stays
// visible in a rows x cols window.
func (b *Buffer) ClampScroll(rows int, cols int) {
	b.UpdateRX()

	y := b.txt.ByteToLine(b.txt.CharToByte(int(b.Dot.ActiveCur())))

	if y < b.RowOff {
		b.RowOff = y
	}

	if y >= b.RowOff+rows {
		b.RowOff = y - rows + 1
	}

	if b.RX < b.ColOff {
		b.ColOff = b.RX
	}

	if b.RX >= b.ColOff+cols {
		b.ColOff = b.RX - cols + 1
	}
}
