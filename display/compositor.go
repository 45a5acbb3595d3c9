// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/compositor.go
// Summary: Compositor decodes cell attribute words into styled runs.
//
// Architecture:
//
//	The compositor scans one physical row's cells left to right and emits
//	maximal runs of cells sharing one effective style. "Effective" folds
//	in the decode rules that accumulated in terminal renderers over the
//	years: bold promotes the dim ANSI colors to their bright twins,
//	inverse swaps foreground and background and then pins the default
//	sentinels that swap drags in, the cursor cell is forced to
//	reverse-video, and trailing halves of wide glyphs are skipped because
//	the leader already painted them.
//
//	Rows longer than the current width (written before a narrowing
//	resize) are chunked into width-sized segments; trailing all-blank
//	segments are trimmed down to a minimum of one so the cursor always
//	has a paintable row.

package display

import "strings"

// Style is the decoded, effective rendering attribute for a run.
// FG and BG are palette indices; slots 256/257 mean the terminal default
// foreground/background.
type Style struct {
	FG, BG    int
	Bold      bool
	Underline bool
	Blink     bool

	// Hidden preserves the run's columns without showing its text
	// (invisible attribute). The run is emitted, not omitted.
	Hidden bool
}

// DefaultStyle is the decoded form of the DefaultAttr sentinel.
var DefaultStyle = Style{FG: DefaultFGIndex, BG: DefaultBGIndex}

// IsDefault reports whether the style equals the unstyled sentinel.
// Sinks typically map default runs onto their native default style
// instead of opening an explicit styled span.
func (s Style) IsDefault() bool {
	return s == DefaultStyle
}

// Run is a maximal contiguous span of cells sharing one effective style.
// Wide runs contain wide-glyph leaders only; the sink doubles their
// rendered column width.
type Run struct {
	Text  string
	Wide  bool
	Style Style
}

// Cols returns the number of screen columns the run occupies.
func (r Run) Cols() int {
	n := len([]rune(r.Text))
	if r.Wide {
		return n * 2
	}
	return n
}

// Cursor is the session cursor as reported by the input-handling
// collaborator: a physical position plus visibility.
type Cursor struct {
	X, Y    int
	Visible bool
}

// cursorAttr is the override applied to the cell under a visible cursor,
// regardless of the cell's stored attribute: default colors in
// reverse-video.
const cursorAttr = DefaultAttr | AttrInverse

// Compositor turns one physical row's cells into styled runs. The bold
// capability is resolved once at session start and threaded in here; it
// is deliberately not module-level state.
type Compositor struct {
	caps Capabilities
}

// NewCompositor creates a compositor for a session with the given
// capabilities.
func NewCompositor(caps Capabilities) *Compositor {
	return &Compositor{caps: caps}
}

// decode expands an attribute word into its effective style and width
// tag, applying bold promotion and inverse pinning.
func (c *Compositor) decode(attr AttrWord) (Style, bool) {
	st := Style{
		FG:        attr.FG(),
		BG:        attr.BG(),
		Bold:      attr&AttrBold != 0,
		Underline: attr&AttrUnderline != 0,
		Blink:     attr&AttrBlink != 0,
		Hidden:    attr&AttrInvisible != 0,
	}

	// Bold simulates bright colors for the dim ANSI range, unless the
	// host capability probe disabled it (bold glyphs render at a
	// different width there, so the sink keeps the dim color and relies
	// on the bold flag alone).
	if st.Bold && st.FG < 8 && c.caps.BoldIsBright {
		st.FG += 8
	}

	if attr&AttrInverse != 0 {
		st.FG, st.BG = st.BG, st.FG
		// Inverse combined with the extended palette drags the default
		// sentinels into the wrong slot; pin them to white-on-black.
		if st.BG == DefaultBGIndex {
			st.BG = 15
		}
		if st.FG == DefaultFGIndex {
			st.FG = 0
		}
	}

	return st, attr.Width() == WidthWide
}

// CompositeRow composites the cells of a single physical row. The row's
// physical index and the session cursor decide the cursor override; width
// bounds the scan, substituting default blanks for missing cells.
// Default-styled cells are emitted as runs like any other instead of
// being suppressed; the run's Style reports IsDefault so a sink can map
// it to its native default rendition.
func (c *Compositor) CompositeRow(cells []Cell, width, row int, cur Cursor) []Run {
	if width <= 0 {
		width = DefaultWidth
	}

	runs := make([]Run, 0, 4)
	var text strings.Builder
	var cs Style
	var cw bool
	open := false

	flush := func() {
		if open && text.Len() > 0 {
			runs = append(runs, Run{Text: text.String(), Wide: cw, Style: cs})
		}
		text.Reset()
		open = false
	}

	col := 0
	for col < width {
		cell := BlankCell
		if col < len(cells) {
			cell = cells[col]
		}

		// The trailing half of a wide glyph was already rendered by its
		// leader.
		if cell.Attr.Width() == WidthTrailing {
			col++
			continue
		}

		attr := cell.Attr
		if cur.Visible && row == cur.Y && col == cur.X {
			attr = cursorAttr
		}

		st, wide := c.decode(attr)
		if !open || st != cs || wide != cw {
			flush()
			cs, cw = st, wide
			open = true
		}

		r := cell.Rune
		if r == 0 {
			r = ' '
		}
		text.WriteRune(r)

		if wide {
			col += 2
		} else {
			col++
		}
	}
	flush()
	return runs
}

// CompositeLine composites a whole logical line occupying physical rows
// baseRow onward. Lines no longer than the width produce one row of
// runs. Stale rows (written before a narrowing resize) are chunked into
// width-sized segments, each composited as its own physical row, with
// trailing all-blank segments trimmed down to a minimum of one.
func (c *Compositor) CompositeLine(cells []Cell, width, baseRow int, cur Cursor) [][]Run {
	if width <= 0 {
		width = DefaultWidth
	}

	if len(cells) <= width {
		return [][]Run{c.CompositeRow(cells, width, baseRow, cur)}
	}

	var chunks [][]Cell
	for off := 0; off < len(cells); off += width {
		end := off + width
		if end > len(cells) {
			end = len(cells)
		}
		chunks = append(chunks, cells[off:end])
	}

	keep := len(chunks)
	for keep > 1 && allBlank(chunks[keep-1]) {
		keep--
	}
	chunks = chunks[:keep]

	out := make([][]Run, len(chunks))
	for i, chunk := range chunks {
		out[i] = c.CompositeRow(chunk, width, baseRow+i, cur)
	}
	return out
}

func allBlank(cells []Cell) bool {
	for _, cell := range cells {
		if !cell.IsBlank() {
			return false
		}
	}
	return true
}
