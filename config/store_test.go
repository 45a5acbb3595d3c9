// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"
)

func resetStore() {
	once = sync.Once{}
	current = nil
	loadErr = nil
}

func TestDefaultsWrittenOnFirstLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	cfg := System()
	if cfg.GetInt("display", "max_lines", 0) != 5000 {
		t.Fatalf("expected default max_lines")
	}

	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	var disk Config
	if err := json.Unmarshal(data, &disk); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	if disk.Section("display") == nil {
		t.Fatalf("expected display section on disk")
	}
	if disk.Section("history") == nil {
		t.Fatalf("expected history section on disk")
	}
}

func TestSaveWritesUpdates(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	resetStore()

	Set(Config{
		"display": map[string]interface{}{
			"max_lines": 1234,
		},
	})
	if err := Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	resetStore()
	if got := System().GetInt("display", "max_lines", 0); got != 1234 {
		t.Fatalf("expected max_lines 1234 after reload, got %d", got)
	}
}

func TestDisplaySettingsResolve(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SHELL", "/bin/zsh")
	resetStore()

	Set(Config{
		"display": map[string]interface{}{
			"frame_interval_ms": 8,
			"bold_is_bright":    false,
		},
		"history": map[string]interface{}{
			"enabled": true,
		},
	})

	s := Display()
	if s.FrameInterval != 8*time.Millisecond {
		t.Errorf("expected 8ms frame interval, got %v", s.FrameInterval)
	}
	if s.BoldIsBright {
		t.Error("expected bright promotion disabled")
	}
	if !s.HistoryEnabled {
		t.Error("expected history enabled")
	}
	if s.HistoryPath == "" {
		t.Error("expected a default history path")
	}
	if s.Shell != "/bin/zsh" {
		t.Errorf("expected shell from environment, got %q", s.Shell)
	}
	if s.MaxLines != 5000 {
		t.Errorf("expected default max_lines, got %d", s.MaxLines)
	}
}

func TestGetIntCoercions(t *testing.T) {
	cfg := Config{
		"display": map[string]interface{}{
			"a": float64(7),
			"b": "42",
		},
	}
	if got := cfg.GetInt("display", "a", 0); got != 7 {
		t.Errorf("float64 coercion: got %d", got)
	}
	if got := cfg.GetInt("display", "b", 0); got != 42 {
		t.Errorf("string coercion: got %d", got)
	}
	if got := cfg.GetInt("display", "missing", 9); got != 9 {
		t.Errorf("default fallthrough: got %d", got)
	}
}
