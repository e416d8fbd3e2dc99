// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package config loads the hub service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize caps the config file read (1MB). Prevents accidental
// memory blowups from a mispointed path.
const MaxConfigFileSize = 1024 * 1024

// LLMConfig configures the generative backend shared by all feeds.
type LLMConfig struct {
	// Model is the chat completion model name.
	Model string `yaml:"model"`

	// APIKey overrides OPENAI_API_KEY. Usually left empty in the file.
	APIKey string `yaml:"api_key"`

	// SystemPrompt is prepended to every feed prompt.
	SystemPrompt string `yaml:"system_prompt"`

	// TimeoutSeconds bounds one generative call. Default 30.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"gte=0,lte=600"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// TracingConfig configures OTLP trace export. Tracing is off until an
// endpoint is set; spans stay no-op without a collector.
type TracingConfig struct {
	// OTLPEndpoint is the collector's gRPC endpoint, e.g. "localhost:4317".
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure disables TLS on the collector connection.
	Insecure bool `yaml:"insecure"`
}

// Config is the full hub configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" validate:"required"`

	// DataDir is the BadgerDB directory.
	DataDir string `yaml:"data_dir" validate:"required"`

	LLM     LLMConfig     `yaml:"llm"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Listen:  ":8087",
		DataDir: "~/.hearth/data",
		LLM: LLMConfig{
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Timeout returns the LLM call timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// Load reads configuration from path, then applies environment overrides.
//
// Description:
//
//	A missing file is not an error; defaults apply. Recognized overrides:
//	HEARTH_LISTEN, HEARTH_DATA_DIR, HEARTH_LOG_LEVEL, HEARTH_LLM_TIMEOUT,
//	HEARTH_OTLP_ENDPOINT, OPENAI_MODEL. The result is validated before
//	being returned.
//
// Inputs:
//
//	path - YAML config file path. Empty string skips file loading.
//
// Outputs:
//
//	Config - Merged configuration.
//	error - Non-nil for unreadable files, bad YAML, or invalid values.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env + defaults
		case err != nil:
			return cfg, fmt.Errorf("stat config %s: %w", path, err)
		case info.Size() > MaxConfigFileSize:
			return cfg, fmt.Errorf("config %s exceeds %d bytes", path, MaxConfigFileSize)
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HEARTH_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("HEARTH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("HEARTH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HEARTH_LLM_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.LLM.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("HEARTH_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.OTLPEndpoint = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
}
