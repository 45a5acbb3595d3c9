// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/display.go
// Summary: Typed view of the display-related configuration sections.

package config

import (
	"os"
	"path/filepath"
	"time"
)

// Settings is the resolved display configuration consumed by pipeline
// construction.
type Settings struct {
	MaxLines       int
	FrameInterval  time.Duration
	BoldIsBright   bool
	HistoryEnabled bool
	HistoryPath    string
	Shell          string
}

// Display resolves the display settings from the loaded configuration.
func Display() Settings {
	cfg := System()
	s := Settings{
		MaxLines:       cfg.GetInt("display", "max_lines", 5000),
		FrameInterval:  cfg.GetDurationMS("display", "frame_interval_ms", 16*time.Millisecond),
		BoldIsBright:   cfg.GetBool("display", "bold_is_bright", true),
		HistoryEnabled: cfg.GetBool("history", "enabled", false),
		HistoryPath:    cfg.GetString("history", "path", ""),
		Shell:          cfg.GetString("demo", "shell", ""),
	}
	if s.MaxLines <= 0 {
		s.MaxLines = 5000
	}
	if s.HistoryPath == "" {
		s.HistoryPath = defaultHistoryPath()
	}
	if s.Shell == "" {
		if sh := os.Getenv("SHELL"); sh != "" {
			s.Shell = sh
		} else {
			s.Shell = "/bin/sh"
		}
	}
	return s
}

func defaultHistoryPath() string {
	root, err := configRoot()
	if err != nil {
		return filepath.Join(os.TempDir(), "texelflow-history.db")
	}
	return filepath.Join(root, "history.db")
}
