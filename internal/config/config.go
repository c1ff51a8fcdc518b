// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"lethe/internal/paths"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Detection    DetectionConfig    `yaml:"detection"`
	Substitution SubstitutionConfig `yaml:"substitution"`
	Output       OutputConfig       `yaml:"output"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`

	// Workers bounds how many documents are processed at once in batch mode
	Workers int `yaml:"workers"`
}

// DetectionConfig tunes the entity detector.
type DetectionConfig struct {
	// Persons enables the name recognizer. With it off detection runs on
	// patterns only.
	Persons            bool    `yaml:"persons"`
	PersonThreshold    float64 `yaml:"person_threshold"`
	BirthContextWindow int     `yaml:"birth_context_window"`
}

// SubstitutionConfig tunes replacement generation.
type SubstitutionConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	MaxAge      int `yaml:"max_age"`
}

// OutputConfig controls file naming and rendering.
type OutputConfig struct {
	AnonymizedSuffix string `yaml:"anonymized_suffix"`
	MappingSuffix    string `yaml:"mapping_suffix"`
	RestoredSuffix   string `yaml:"restored_suffix"`
	MappingExtension string `yaml:"mapping_extension"`
	Format           string `yaml:"format"`
	NoColor          bool   `yaml:"no_color"`
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig names the Prometheus textfile written after each run.
// An empty path disables the export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			Persons:            true,
			PersonThreshold:    50,
			BirthContextWindow: 6,
		},
		Substitution: SubstitutionConfig{
			MaxAttempts: 64,
			MaxAge:      80,
		},
		Output: OutputConfig{
			AnonymizedSuffix: "_anonimizado",
			MappingSuffix:    "_mapping",
			RestoredSuffix:   "_restaurado",
			MappingExtension: ".lethe",
			Format:           "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Workers: max(1, runtime.NumCPU()),
	}
}

// LoadConfig loads the configuration from a YAML file over the defaults and
// then applies environment overrides. An empty path yields the defaults
// plus the environment.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		cleanPath := filepath.Clean(configPath)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// Fields absent from the document keep their default values
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	ApplyEnv(config)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides config fields from LETHE_* environment variables. The
// current values serve as defaults, so unset variables change nothing.
func ApplyEnv(config *Config) {
	config.Logging.Level = env.GetString("LETHE_LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = env.GetString("LETHE_LOG_FORMAT", config.Logging.Format)
	config.Workers = env.GetInt("LETHE_WORKERS", config.Workers)
	config.Detection.PersonThreshold = env.GetFloat64("LETHE_PERSON_THRESHOLD", config.Detection.PersonThreshold)
	config.Metrics.Textfile = env.GetString("LETHE_METRICS_FILE", config.Metrics.Textfile)
	config.Output.NoColor = env.GetBool("LETHE_NO_COLOR", config.Output.NoColor)
}

// loadDotEnv loads ./.env and then the .env in the config directory.
// godotenv never overrides variables that are already set, so the process
// environment wins over both files. A file that exists but does not parse
// is an error.
func loadDotEnv() error {
	candidates := []string{".env", paths.GetEnvFile()}
	for _, envPath := range candidates {
		if !fileExists(envPath) {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("error loading %s: %w", envPath, err)
		}
	}
	return nil
}

// FindConfigFile looks for a configuration file in the working directory and
// then in the user config directory. It returns "" when none exists.
func FindConfigFile() string {
	for _, name := range []string{"lethe.yaml", "lethe.yml", ".lethe.yaml", ".lethe.yml"} {
		if fileExists(name) {
			return name
		}
	}

	standardConfig := paths.GetConfigFile()
	if fileExists(standardConfig) {
		return standardConfig
	}
	return ""
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ValidateConfig checks value ranges and enumerations.
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if t := config.Detection.PersonThreshold; t < 0 || t > 100 {
		return fmt.Errorf("detection.person_threshold must be between 0 and 100, got %v", t)
	}
	if config.Detection.BirthContextWindow < 1 {
		return fmt.Errorf("detection.birth_context_window must be positive, got %d", config.Detection.BirthContextWindow)
	}
	if config.Substitution.MaxAttempts < 1 {
		return fmt.Errorf("substitution.max_attempts must be positive, got %d", config.Substitution.MaxAttempts)
	}
	if a := config.Substitution.MaxAge; a < 19 || a > 120 {
		return fmt.Errorf("substitution.max_age must be between 19 and 120, got %d", a)
	}
	if config.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", config.Workers)
	}

	switch strings.ToLower(config.Output.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", config.Output.Format)
	}
	switch strings.ToLower(config.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", config.Logging.Format)
	}

	if !strings.HasPrefix(config.Output.MappingExtension, ".") {
		return fmt.Errorf("output.mapping_extension must start with a dot, got %q", config.Output.MappingExtension)
	}
	if config.Output.AnonymizedSuffix == "" || config.Output.RestoredSuffix == "" {
		return fmt.Errorf("output suffixes cannot be empty")
	}

	return nil
}

// LoadConfigOrDefault loads configFile, or the discovered config file when
// configFile is empty, and falls back to defaults on any error.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		cfg, err = LoadConfig("")
		if err != nil {
			cfg = Default()
		}
	}
	return cfg
}
