// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/caps.go
// Summary: Session capability probe, resolved once at startup.

package display

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Capabilities holds display-environment facts resolved once per session
// and threaded into the components that need them. In particular
// BoldIsBright replaces the historical module-level "bold width quirk"
// flag: it is plain configuration, not mutable global state.
type Capabilities struct {
	// BoldIsBright enables bright-color simulation: bold cells with a
	// foreground palette index below 8 are promoted to index+8. Disabled
	// on hosts where bold glyphs render at a different width than regular
	// glyphs, since the promotion exists to avoid relying on bold fonts.
	BoldIsBright bool

	// IsTerminal reports whether stdout is an interactive terminal.
	IsTerminal bool

	// Width and Height are the probed viewport dimensions, with the usual
	// 80x24 fallback when probing is impossible.
	Width, Height int
}

// DefaultCapabilities returns the capabilities assumed when no probe ran.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		BoldIsBright: true,
		Width:        DefaultWidth,
		Height:       DefaultRows,
	}
}

// DetectCapabilities probes the current display environment. Call once at
// session start and hand the result to NewCompositor / the pipeline.
func DetectCapabilities() Capabilities {
	caps := DefaultCapabilities()

	fd := int(os.Stdout.Fd())
	caps.IsTerminal = term.IsTerminal(fd)
	if caps.IsTerminal {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			caps.Width, caps.Height = w, h
		}
	}

	// The linux console renders bold with its own glyph widths; bright
	// promotion there changes colors the palette never asked for.
	if t := os.Getenv("TERM"); t == "linux" || strings.HasPrefix(t, "cons") {
		caps.BoldIsBright = false
	}
	if os.Getenv("TEXELFLOW_NO_BOLD_BRIGHT") != "" {
		caps.BoldIsBright = false
	}

	return caps
}
