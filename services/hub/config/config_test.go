// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8087", cfg.Listen)
	assert.Equal(t, "~/.hearth/data", cfg.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Listen, cfg.Listen)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
data_dir: /tmp/hearth-test
llm:
  model: gpt-4o
  timeout_seconds: 60
log:
  level: debug
  json: true
tracing:
  otlp_endpoint: collector:4317
  insecure: true
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/tmp/hearth-test", cfg.DataDir)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 60*time.Second, cfg.Timeout())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "collector:4317", cfg.Tracing.OTLPEndpoint)
	assert.True(t, cfg.Tracing.Insecure)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":8087"
data_dir: /tmp/hearth-test
log:
  level: loud
`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HEARTH_LISTEN", ":7070")
	t.Setenv("HEARTH_DATA_DIR", "/tmp/hearth-env")
	t.Setenv("HEARTH_LOG_LEVEL", "warn")
	t.Setenv("HEARTH_LLM_TIMEOUT", "90")
	t.Setenv("HEARTH_OTLP_ENDPOINT", "localhost:4317")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, "/tmp/hearth-env", cfg.DataDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 90*time.Second, cfg.Timeout())
	assert.Equal(t, "localhost:4317", cfg.Tracing.OTLPEndpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
data_dir: /tmp/hearth-file
`), 0600))
	t.Setenv("HEARTH_LISTEN", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, "/tmp/hearth-file", cfg.DataDir)
}

func TestBogusTimeoutEnvIgnored(t *testing.T) {
	t.Setenv("HEARTH_LLM_TIMEOUT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}
