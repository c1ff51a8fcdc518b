// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config dir at an empty temp dir and moves into another
// one, so no stray .env or lethe.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("LETHE_CONFIG_DIR", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadConfigOrDefault_NoFile(t *testing.T) {
	isolate(t)

	cfg := LoadConfigOrDefault("")
	require.NotNil(t, cfg)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Detection.Persons)
	assert.Equal(t, 50.0, cfg.Detection.PersonThreshold)
	assert.Equal(t, 64, cfg.Substitution.MaxAttempts)
	assert.Equal(t, 80, cfg.Substitution.MaxAge)
	assert.Equal(t, ".lethe", cfg.Output.MappingExtension)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestLoadConfigOrDefault_NonexistentFile(t *testing.T) {
	isolate(t)

	cfg := LoadConfigOrDefault("/nonexistent/path/config.yaml")
	require.NotNil(t, cfg)
	assert.Equal(t, "_anonimizado", cfg.Output.AnonymizedSuffix)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	dir := isolate(t)
	configPath := filepath.Join(dir, "config.yaml")

	content := `
detection:
  persons: false
  person_threshold: 70
substitution:
  max_age: 60
output:
  format: json
logging:
  level: debug
workers: 3
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.False(t, cfg.Detection.Persons)
	assert.Equal(t, 70.0, cfg.Detection.PersonThreshold)
	assert.Equal(t, 6, cfg.Detection.BirthContextWindow)
	assert.Equal(t, 60, cfg.Substitution.MaxAge)
	assert.Equal(t, 64, cfg.Substitution.MaxAttempts)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := isolate(t)
	configPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("detection: [unclosed"), 0600))

	_, err := LoadConfig(configPath)
	assert.Error(t, err)

	cfg := LoadConfigOrDefault(configPath)
	require.NotNil(t, cfg)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	dir := isolate(t)

	tests := map[string]string{
		"threshold": "detection:\n  person_threshold: 150\n",
		"window":    "detection:\n  birth_context_window: 0\n",
		"max_age":   "substitution:\n  max_age: 10\n",
		"format":    "output:\n  format: xml\n",
		"log":       "logging:\n  format: pretty\n",
		"extension": "output:\n  mapping_extension: lethe\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))
			_, err := LoadConfig(configPath)
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("LETHE_LOG_LEVEL", "warn")
	t.Setenv("LETHE_LOG_FORMAT", "json")
	t.Setenv("LETHE_WORKERS", "2")
	t.Setenv("LETHE_PERSON_THRESHOLD", "65.5")
	t.Setenv("LETHE_METRICS_FILE", "/tmp/lethe.prom")
	t.Setenv("LETHE_NO_COLOR", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 65.5, cfg.Detection.PersonThreshold)
	assert.Equal(t, "/tmp/lethe.prom", cfg.Metrics.Textfile)
	assert.True(t, cfg.Output.NoColor)
}

func TestDotEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LETHE_WORKERS=5\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("LETHE_WORKERS") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
}

func TestDotEnvFile_Malformed(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LETHE_LOG_LEVEL=\"debug\n"), 0600))

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")

	// LoadConfigOrDefault falls back to the built-in defaults
	cfg := LoadConfigOrDefault("")
	require.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)
	assert.Equal(t, "", FindConfigFile())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lethe.yaml"), []byte("workers: 1\n"), 0600))
	assert.Equal(t, ".lethe.yaml", FindConfigFile())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lethe.yaml"), []byte("workers: 1\n"), 0600))
	assert.Equal(t, "lethe.yaml", FindConfigFile())
}

func TestValidateConfigNil(t *testing.T) {
	assert.Error(t, ValidateConfig(nil))
	assert.NoError(t, ValidateConfig(Default()))
}
