// Copyright 2025 Permdiff
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed default-config.yml
var defaultConfig []byte

// Config carries tool defaults. Flags set explicitly on the command line
// override anything loaded here.
type Config struct {
	OutputFormat    string `yaml:"output_format"`
	LogLevel        string `yaml:"log_level"`
	LogFile         string `yaml:"log_file,omitempty"`
	Recursive       bool   `yaml:"recursive"`
	IgnoreOwnership bool   `yaml:"ignore_ownership"`
	Include         string `yaml:"include,omitempty"`
	Exclude         string `yaml:"exclude,omitempty"`
}

// NewConfig parses a YAML config document.
func NewConfig(c []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(c, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() (*Config, error) {
	return NewConfig(defaultConfig)
}

// Load returns the effective config: the embedded defaults overlaid with the
// first config file found. A missing per-user file silently keeps the
// defaults; a missing explicit or $PERMDIFF_CONFIG file is an error, as is a
// malformed file anywhere.
func Load(fsys afero.Fs, explicit string) (*Config, error) {
	config, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	path, required := searchPath(explicit)
	if path == "" {
		return config, nil
	}

	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check config file %s: %w", path, err)
	}
	if !exists {
		if required {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return config, nil
	}

	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// searchPath picks the config file location: the explicit path when given,
// then $PERMDIFF_CONFIG, then the per-user default.
func searchPath(explicit string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if env := os.Getenv("PERMDIFF_CONFIG"); env != "" {
		return env, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".config", "permdiff", "config.yml"), false
}
