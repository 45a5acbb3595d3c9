// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: tcellsink/sink.go
// Summary: tcell-backed paint sink for the display pipeline.
// Usage: Attach to a Pipeline; refreshes land on a tcell.Screen.

package tcellsink

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelflow/display"
)

// ScreenSink paints composited runs onto a tcell.Screen. The pipeline
// addresses the whole scrollback as physical rows; the sink shows the
// window starting at top. Scroll position can move from an input
// goroutine while the pipeline paints, so the sink carries its own lock.
type ScreenSink struct {
	mu      sync.Mutex
	screen  tcell.Screen
	palette Palette
	top     int
}

// NewScreenSink wraps an initialized screen with the default palette.
func NewScreenSink(screen tcell.Screen) *ScreenSink {
	return &ScreenSink{
		screen:  screen,
		palette: NewDefaultPalette(),
	}
}

// SetPalette replaces the color palette.
func (s *ScreenSink) SetPalette(p Palette) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palette = p
}

// Top returns the pipeline row shown at the top of the screen.
func (s *ScreenSink) Top() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top
}

// SetTop scrolls the window so the given pipeline row is at screen row 0.
func (s *ScreenSink) SetTop(top int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if top < 0 {
		top = 0
	}
	s.top = top
}

// FollowTail positions the window so the newest rows fill the screen.
func (s *ScreenSink) FollowTail(rowCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, h := s.screen.Size()
	top := rowCount - h
	if top < 0 {
		top = 0
	}
	s.top = top
}

// Refresh implements display.PaintSink. Rows with a nil run slice are
// left untouched; the pipeline repaints them once their reflow entry
// exists.
func (s *ScreenSink) Refresh(start, end int, rows [][]display.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := s.screen.Size()

	for row := start; row <= end && row-start < len(rows); row++ {
		runs := rows[row-start]
		if runs == nil {
			continue
		}
		sr := row - s.top
		if sr < 0 || sr >= h {
			continue
		}

		x := 0
		for _, run := range runs {
			st := s.styleFor(run.Style)
			for _, r := range run.Text {
				if run.Style.Hidden {
					// Hidden cells keep their style but show nothing.
					s.screen.SetContent(x, sr, ' ', nil, st)
					if run.Wide {
						s.screen.SetContent(x+1, sr, ' ', nil, st)
					}
				} else {
					s.screen.SetContent(x, sr, r, nil, st)
				}
				if run.Wide {
					x += 2
				} else {
					x++
				}
			}
		}
		// Chunked rows can cover less than the full width; blank the rest
		// so stale content never survives a shrink.
		for ; x < w; x++ {
			s.screen.SetContent(x, sr, ' ', nil, s.styleFor(display.DefaultStyle))
		}
	}

	s.screen.Show()
}

func (s *ScreenSink) styleFor(st display.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(s.palette.Color(st.FG)).
		Background(s.palette.Color(st.BG))
	style = style.Bold(st.Bold)
	style = style.Underline(st.Underline)
	style = style.Blink(st.Blink)
	return style
}
