// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/width.go
// Summary: Rune-to-width-class mapping via go-runewidth.

package display

import "github.com/mattn/go-runewidth"

// WidthClassFor returns the column width class a rune occupies when
// written as a cell. Zero-width runes (combining marks) come back as
// WidthTrailing; CJK and other double-width runes as WidthWide.
func WidthClassFor(r rune) WidthClass {
	switch runewidth.RuneWidth(r) {
	case 0:
		return WidthTrailing
	case 2:
		return WidthWide
	default:
		return WidthNormal
	}
}

// CellsForRune builds the cell(s) a rune occupies: a single cell for
// normal runes, a leader plus trailing placeholder for wide runes.
func CellsForRune(r rune, attr AttrWord) []Cell {
	switch WidthClassFor(r) {
	case WidthWide:
		return []Cell{
			{Rune: r, Attr: attr.WithWidth(WidthWide)},
			{Rune: 0, Attr: attr.WithWidth(WidthTrailing)},
		}
	case WidthTrailing:
		return []Cell{{Rune: r, Attr: attr.WithWidth(WidthTrailing)}}
	default:
		return []Cell{{Rune: r, Attr: attr.WithWidth(WidthNormal)}}
	}
}
