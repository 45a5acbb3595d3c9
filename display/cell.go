// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/cell.go
// Summary: Cell and packed attribute word for the display pipeline.
// Usage: Consumed by the compositor when decoding cells into styled runs.
// Notes: Palette slots 256 and 257 are the default foreground/background.

package display

// AttrWord packs one cell's rendering attributes into a single word:
//
//	bits 0-8    background palette index (0-511)
//	bits 9-17   foreground palette index (0-511)
//	bits 18-22  flags (bold, underline, blink, inverse, invisible)
//	bits 26-27  column width class (1 normal, 2 wide leader, 0 trailing)
type AttrWord uint32

const (
	attrBGShift    = 0
	attrFGShift    = 9
	attrColorMask  = 0x1FF
	attrWidthShift = 26
	attrWidthMask  = 0x3
)

// Flag bits. Everything from bit 18 up is a flag.
const (
	AttrBold      AttrWord = 1 << 18
	AttrUnderline AttrWord = 1 << 19
	AttrBlink     AttrWord = 1 << 20
	AttrInverse   AttrWord = 1 << 21
	AttrInvisible AttrWord = 1 << 22

	attrFlagsMask = AttrBold | AttrUnderline | AttrBlink | AttrInverse | AttrInvisible
)

// Palette slots for the terminal default colors, following the 258-slot
// palette layout (16 ANSI + 240 xterm + two default slots).
const (
	DefaultFGIndex = 256
	DefaultBGIndex = 257
)

// WidthClass describes how many columns a cell occupies.
type WidthClass uint8

const (
	// WidthTrailing marks the continuation half of a wide glyph. Trailing
	// cells are skipped by the compositor; the leader already covers them.
	WidthTrailing WidthClass = 0

	// WidthNormal is a regular single-column cell.
	WidthNormal WidthClass = 1

	// WidthWide is the leading half of a two-column glyph.
	WidthWide WidthClass = 2
)

// DefaultAttr is the sentinel attribute word marking "no explicit styling":
// default foreground and background, no flags, normal width.
const DefaultAttr = AttrWord(DefaultBGIndex)<<attrBGShift |
	AttrWord(DefaultFGIndex)<<attrFGShift |
	AttrWord(WidthNormal)<<attrWidthShift

// MakeAttr builds an attribute word from its parts.
func MakeAttr(fg, bg int, flags AttrWord, width WidthClass) AttrWord {
	return AttrWord(bg&attrColorMask)<<attrBGShift |
		AttrWord(fg&attrColorMask)<<attrFGShift |
		flags&attrFlagsMask |
		AttrWord(width&attrWidthMask)<<attrWidthShift
}

// BG returns the background palette index (bits 0-8).
func (a AttrWord) BG() int {
	return int(a>>attrBGShift) & attrColorMask
}

// FG returns the foreground palette index (bits 9-17).
func (a AttrWord) FG() int {
	return int(a>>attrFGShift) & attrColorMask
}

// Flags returns only the flag bits.
func (a AttrWord) Flags() AttrWord {
	return a & attrFlagsMask
}

// Width returns the column width class.
func (a AttrWord) Width() WidthClass {
	return WidthClass(a>>attrWidthShift) & attrWidthMask
}

// WithWidth returns a copy of the word with the width class replaced.
func (a AttrWord) WithWidth(w WidthClass) AttrWord {
	a &^= AttrWord(attrWidthMask) << attrWidthShift
	return a | AttrWord(w&attrWidthMask)<<attrWidthShift
}

// Cell represents a single character cell: a codepoint plus its packed
// attribute word.
type Cell struct {
	Rune rune
	Attr AttrWord
}

// BlankCell is the default blank substituted for missing cells during a
// transient resize gap.
var BlankCell = Cell{Rune: ' ', Attr: DefaultAttr}

// IsBlank reports whether the cell renders as an unstyled blank. Width
// class is ignored so stale wide-glyph padding still counts as blank.
func (c Cell) IsBlank() bool {
	if c.Rune != ' ' && c.Rune != 0 {
		return false
	}
	return c.Attr.WithWidth(WidthNormal) == DefaultAttr
}
