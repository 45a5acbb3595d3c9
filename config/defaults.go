// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for the texelflow configuration file.

package config

func applyDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("display", Section{
		"max_lines":         5000,
		"frame_interval_ms": 16,
		"bold_is_bright":    true,
	})
	cfg.RegisterDefaults("history", Section{
		"enabled": false,
		"path":    "",
	})
	cfg.RegisterDefaults("demo", Section{
		"shell": "",
	})
}
