// Copyright 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package display

import "testing"

func TestDefaultCapabilities(t *testing.T) {
	caps := DefaultCapabilities()
	if !caps.BoldIsBright {
		t.Error("bright promotion should default on")
	}
	if caps.Width != DefaultWidth || caps.Height != DefaultRows {
		t.Errorf("expected %dx%d fallback, got %dx%d",
			DefaultWidth, DefaultRows, caps.Width, caps.Height)
	}
}

func TestDetectCapabilities_LinuxConsoleDisablesBright(t *testing.T) {
	t.Setenv("TERM", "linux")
	if caps := DetectCapabilities(); caps.BoldIsBright {
		t.Error("linux console must not promote bold to bright")
	}

	t.Setenv("TERM", "xterm-256color")
	t.Setenv("TEXELFLOW_NO_BOLD_BRIGHT", "1")
	if caps := DetectCapabilities(); caps.BoldIsBright {
		t.Error("override variable must disable bright promotion")
	}
}

func TestDetectCapabilities_FallbackSizeWithoutTTY(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("TEXELFLOW_NO_BOLD_BRIGHT", "")
	caps := DetectCapabilities()
	if caps.IsTerminal {
		t.Skip("running on a real terminal")
	}
	if caps.Width != DefaultWidth || caps.Height != DefaultRows {
		t.Errorf("expected fallback size, got %dx%d", caps.Width, caps.Height)
	}
}
