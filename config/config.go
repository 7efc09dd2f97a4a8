// Copyright 2025 Poiesic Systems
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


// Package config loads extraction configuration from YAML files.
//
// Values not present in the file keep their defaults from
// core.DefaultStrategyConfiguration, so a file only needs to name the
// settings it changes:
//
//	domain: computer_science
//	similarity_threshold: 0.8
//	strategy_weights:
//	  rule_based: 1.2
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/conceptry/core"
)

// Load reads a YAML configuration file, applies it over the defaults,
// and validates the result.
func Load(path string) (core.StrategyConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.StrategyConfiguration{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return core.StrategyConfiguration{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse unmarshals YAML over the default configuration and validates
// the result. Unknown keys are rejected.
func Parse(data []byte) (core.StrategyConfiguration, error) {
	cfg := core.DefaultStrategyConfiguration()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return core.StrategyConfiguration{}, fmt.Errorf("%w: %w", core.ErrInvalidConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return core.StrategyConfiguration{}, err
	}
	return cfg, nil
}
