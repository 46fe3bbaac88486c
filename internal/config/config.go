// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config loads optional CLI defaults from a TOML file with
// environment overrides. Command-line flags always win over both.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	OutputDir  string // default output directory; empty = beside the source
	Format     string // default output format
	SampleRate int    // default sampling rate for wav output
}

type fileConfig struct {
	OutputDir  string `toml:"output_dir"`
	Format     string `toml:"output_format"`
	SampleRate int    `toml:"rate_sampling"`
}

// Load reads $XDG_CONFIG_HOME/tdmsx/config.toml (or the home equivalent)
// when present, then applies TDMSX_* environment overrides. A missing file
// is not an error.
func Load() (*Config, error) {
	cfg := &Config{Format: "npy"}

	if path := configFilePath(); path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err == nil {
			if fc.OutputDir != "" {
				cfg.OutputDir = expandTilde(fc.OutputDir)
			}
			if fc.Format != "" {
				cfg.Format = fc.Format
			}
			if fc.SampleRate > 0 {
				cfg.SampleRate = fc.SampleRate
			}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TDMSX_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = expandTilde(v)
	}
	if v := os.Getenv("TDMSX_OUTPUT_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("TDMSX_RATE_SAMPLING"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			cfg.SampleRate = rate
		}
	}
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "tdmsx")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "tdmsx")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
