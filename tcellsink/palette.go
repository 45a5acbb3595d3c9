// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: tcellsink/palette.go
// Summary: 258-slot color palette mapping pipeline indices to tcell colors.

package tcellsink

import (
	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelflow/display"
)

// Palette maps the pipeline's palette indices to concrete colors. Slots
// 0-255 are the xterm palette; slot 256 is the session default foreground
// and slot 257 the default background.
type Palette [258]tcell.Color

// Color resolves a palette index, falling back to the terminal default
// for anything out of range.
func (p *Palette) Color(idx int) tcell.Color {
	if idx < 0 || idx >= len(p) {
		return tcell.ColorDefault
	}
	return p[idx]
}

// NewDefaultPalette returns the standard xterm 256 color palette with
// white-on-black defaults in the sentinel slots.
func NewDefaultPalette() Palette {
	var p Palette
	// First 16 ANSI colors
	p[0] = tcell.NewRGBColor(0, 0, 0)        // Black
	p[1] = tcell.NewRGBColor(128, 0, 0)      // Maroon
	p[2] = tcell.NewRGBColor(0, 128, 0)      // Green
	p[3] = tcell.NewRGBColor(128, 128, 0)    // Olive
	p[4] = tcell.NewRGBColor(0, 0, 128)      // Navy
	p[5] = tcell.NewRGBColor(128, 0, 128)    // Purple
	p[6] = tcell.NewRGBColor(0, 128, 128)    // Teal
	p[7] = tcell.NewRGBColor(192, 192, 192)  // Silver
	p[8] = tcell.NewRGBColor(128, 128, 128)  // Grey
	p[9] = tcell.NewRGBColor(255, 0, 0)      // Red
	p[10] = tcell.NewRGBColor(0, 255, 0)     // Lime
	p[11] = tcell.NewRGBColor(255, 255, 0)   // Yellow
	p[12] = tcell.NewRGBColor(0, 0, 255)     // Blue
	p[13] = tcell.NewRGBColor(255, 0, 255)   // Fuchsia
	p[14] = tcell.NewRGBColor(0, 255, 255)   // Aqua
	p[15] = tcell.NewRGBColor(255, 255, 255) // White

	// 6x6x6 color cube
	levels := []int32{0, 95, 135, 175, 215, 255}
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[i] = tcell.NewRGBColor(levels[r], levels[g], levels[b])
				i++
			}
		}
	}

	// Grayscale ramp
	for j := 0; j < 24; j++ {
		gray := int32(8 + j*10)
		p[i] = tcell.NewRGBColor(gray, gray, gray)
		i++
	}

	p[display.DefaultFGIndex] = p[15]
	p[display.DefaultBGIndex] = p[0]

	return p
}
