// Copyright 2025 UMH Systems GmbH
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

// Package config loads the engine configuration: YAML file first, then
// environment overrides on top, then validation. Everything has a working
// default; an embedding without any config at all gets a usable engine.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/united-manufacturing-hub/recordgrid/pkg/constants"
	"github.com/united-manufacturing-hub/recordgrid/pkg/logger"
)

// Environment override keys.
const (
	envBackendURL     = "RECORDGRID_BACKEND_URL"
	envPageSize       = "RECORDGRID_PAGE_SIZE"
	envRequestTimeout = "RECORDGRID_REQUEST_TIMEOUT"
	envFilterDebounce = "RECORDGRID_FILTER_DEBOUNCE"
	envMetricsAddr    = "RECORDGRID_METRICS_ADDR"
)

// Config is the engine configuration.
type Config struct {
	// BackendURL is the base URL of the record backend.
	BackendURL string `yaml:"backendUrl"`

	// PageSize is the default window size; remembered settings and share
	// tokens can override it per grid.
	PageSize int `yaml:"pageSize"`

	// RequestTimeout bounds every backend call.
	RequestTimeout time.Duration `yaml:"requestTimeout"`

	// FilterDebounce is how long filter text input settles before a
	// re-query fires.
	FilterDebounce time.Duration `yaml:"filterDebounce"`

	// LabelCacheTTL bounds the identifier-to-label cache.
	LabelCacheTTL time.Duration `yaml:"labelCacheTtl"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `yaml:"metricsAddr"`
}

// Default returns the configuration an embedding gets with no file and no
// environment.
func Default() Config {
	return Config{
		PageSize:       constants.DefaultPageSize,
		RequestTimeout: constants.DefaultRequestTimeout,
		FilterDebounce: constants.DefaultFilterDebounce,
		LabelCacheTTL:  constants.DefaultLabelCacheTTL,
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// is absent), applies environment overrides, and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	log := logger.For(logger.ComponentGrid)

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
			log.Debugf("No config file at %s, using defaults", path)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.BackendURL = getAsString(envBackendURL, cfg.BackendURL)
	cfg.MetricsAddr = getAsString(envMetricsAddr, cfg.MetricsAddr)

	var err error
	if cfg.PageSize, err = getAsInt(envPageSize, cfg.PageSize); err != nil {
		log.Warnf("Ignoring override: %v", err)
	}
	if cfg.RequestTimeout, err = getAsDuration(envRequestTimeout, cfg.RequestTimeout); err != nil {
		log.Warnf("Ignoring override: %v", err)
	}
	if cfg.FilterDebounce, err = getAsDuration(envFilterDebounce, cfg.FilterDebounce); err != nil {
		log.Warnf("Ignoring override: %v", err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("pageSize must be positive, got %d", c.PageSize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("requestTimeout must be positive, got %s", c.RequestTimeout)
	}
	if c.FilterDebounce < 0 {
		return fmt.Errorf("filterDebounce must not be negative, got %s", c.FilterDebounce)
	}
	return nil
}
