// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/demo/linefeed.go
// Summary: Minimal byte-stream interpreter feeding the display pipeline.
// Usage: Demo host only; it handles line discipline and SGR colors, not
// full terminal emulation.

package demo

import (
	"unicode/utf8"

	"github.com/framegrace/texelflow/display"
)

const tabStop = 8

type feedState int

const (
	stateGround feedState = iota
	stateEscape
	stateCSI
	stateOSC
)

// LineFeed converts a raw output stream into logical-line writes on a
// pipeline. Escape sequences other than SGR are consumed and dropped.
type LineFeed struct {
	p *display.Pipeline

	line  *display.Line
	index int
	col   int
	attr  display.AttrWord

	state   feedState
	params  []byte
	pending []byte
}

// NewLineFeed starts feeding at the end of the pipeline's current
// content.
func NewLineFeed(p *display.Pipeline) *LineFeed {
	return &LineFeed{
		p:     p,
		line:  display.NewLine(),
		index: p.Lines(),
		attr:  display.DefaultAttr,
	}
}

// Feed consumes a chunk of output. Incomplete UTF-8 sequences are held
// until the next chunk completes them.
func (f *LineFeed) Feed(data []byte) {
	f.pending = append(f.pending, data...)

	for len(f.pending) > 0 {
		r, size := utf8.DecodeRune(f.pending)
		if r == utf8.RuneError && size == 1 && !utf8.FullRune(f.pending) {
			return
		}
		f.pending = f.pending[size:]
		f.advance(r)
	}
	f.flush()
}

func (f *LineFeed) advance(r rune) {
	switch f.state {
	case stateEscape:
		switch r {
		case '[':
			f.state = stateCSI
			f.params = f.params[:0]
		case ']':
			f.state = stateOSC
		default:
			f.state = stateGround
		}
		return
	case stateCSI:
		if r >= 0x40 && r <= 0x7e {
			if r == 'm' {
				f.applySGR()
			}
			f.state = stateGround
		} else {
			f.params = append(f.params, byte(r))
		}
		return
	case stateOSC:
		// Terminated by BEL; the two-byte ST terminator collapses to its
		// final byte once the ESC re-enters the escape state.
		if r == 0x07 {
			f.state = stateGround
		} else if r == 0x1b {
			f.state = stateEscape
		}
		return
	}

	switch {
	case r == 0x1b:
		f.state = stateEscape
	case r == '\n':
		f.flush()
		f.line = display.NewLine()
		f.index = f.p.Lines()
		f.col = 0
	case r == '\r':
		f.col = 0
	case r == '\b':
		if f.col > 0 {
			f.col--
		}
	case r == '\t':
		f.col += tabStop - f.col%tabStop
	case r >= 0x20:
		f.writeRune(r)
	}
}

func (f *LineFeed) writeRune(r rune) {
	cells := display.CellsForRune(r, f.attr)
	for i, c := range cells {
		f.line.SetCell(f.col+i, c)
	}
	f.col += len(cells)
}

// flush pushes the working line into the pipeline and places the cursor
// on its last physical row. The width comes from the pipeline at flush
// time, so writes after a resize wrap at the new width without any
// coordination with the event loop.
func (f *LineFeed) flush() {
	width := f.p.Width()
	cur := display.Cursor{X: f.col % width, Visible: true}
	if err := f.p.LineWritten(f.index, f.line.Clone(), cur, width); err != nil {
		return
	}
	cur.Y = f.p.RowCount() - 1
	f.p.SetCursor(cur)
}

// applySGR interprets the accumulated SGR parameters into the working
// attribute word.
func (f *LineFeed) applySGR() {
	codes := parseParams(f.params)
	if len(codes) == 0 {
		codes = []int{0}
	}

	fg, bg := f.attr.FG(), f.attr.BG()
	flags := f.attr.Flags()

	for i := 0; i < len(codes); i++ {
		c := codes[i]
		switch {
		case c == 0:
			fg, bg = display.DefaultFGIndex, display.DefaultBGIndex
			flags = 0
		case c == 1:
			flags |= display.AttrBold
		case c == 4:
			flags |= display.AttrUnderline
		case c == 5:
			flags |= display.AttrBlink
		case c == 7:
			flags |= display.AttrInverse
		case c == 8:
			flags |= display.AttrInvisible
		case c == 22:
			flags &^= display.AttrBold
		case c == 24:
			flags &^= display.AttrUnderline
		case c == 25:
			flags &^= display.AttrBlink
		case c == 27:
			flags &^= display.AttrInverse
		case c == 28:
			flags &^= display.AttrInvisible
		case c >= 30 && c <= 37:
			fg = c - 30
		case c == 38 && i+2 < len(codes) && codes[i+1] == 5:
			fg = codes[i+2] & 0xff
			i += 2
		case c == 39:
			fg = display.DefaultFGIndex
		case c >= 40 && c <= 47:
			bg = c - 40
		case c == 48 && i+2 < len(codes) && codes[i+1] == 5:
			bg = codes[i+2] & 0xff
			i += 2
		case c == 49:
			bg = display.DefaultBGIndex
		case c >= 90 && c <= 97:
			fg = c - 90 + 8
		case c >= 100 && c <= 107:
			bg = c - 100 + 8
		}
	}

	f.attr = display.MakeAttr(fg, bg, flags, display.WidthNormal)
}

func parseParams(raw []byte) []int {
	var out []int
	n, have := 0, false
	for _, b := range raw {
		switch {
		case b >= '0' && b <= '9':
			n = n*10 + int(b-'0')
			have = true
		case b == ';':
			out = append(out, n)
			n, have = 0, true
		}
	}
	if have {
		out = append(out, n)
	}
	return out
}
