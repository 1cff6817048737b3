package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Drosera/pkg/pagegen"
	"github.com/CTAG07/Drosera/pkg/templating"
	"github.com/natefinch/atomic"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig holds process-level settings: inputs, logging and the ledger.
type AppConfig struct {
	LogLevel     string   `json:"log_level" toml:"log_level"`
	TemplateDir  string   `json:"template_dir" toml:"template_dir"`
	KeywordsAr   []string `json:"keywords_ar" toml:"keywords_ar"`
	KeywordsEn   []string `json:"keywords_en" toml:"keywords_en"`
	LedgerPath   string   `json:"ledger_path" toml:"ledger_path"`
	WatchInputs  bool     `json:"watch_inputs" toml:"watch_inputs"`
	WatchDelayMs int      `json:"watch_delay_ms" toml:"watch_delay_ms"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	App       *AppConfig                 `json:"app_config" toml:"app_config"`
	Generator *pagegen.Config            `json:"generator_config" toml:"generator_config"`
	Templates *templating.TemplateConfig `json:"template_config" toml:"template_config"`
}

// DefaultAppConfig creates an app configuration with default values. Inputs
// are read from the working directory, like the stock templates.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		LogLevel:     "info",
		TemplateDir:  ".",
		KeywordsAr:   []string{"keywords_ar.txt"},
		KeywordsEn:   []string{"keywords_en.txt"},
		LedgerPath:   "./data/drosera_ledger.db",
		WatchInputs:  false,
		WatchDelayMs: 500,
	}
}

// DefaultConfig returns a Config with every section set to its defaults.
func DefaultConfig() *Config {
	return &Config{
		App:       DefaultAppConfig(),
		Generator: pagegen.DefaultConfig(),
		Templates: templating.DefaultConfig(),
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func marshalConfig(path string, config *Config) ([]byte, error) {
	if isTOML(path) {
		return toml.Marshal(config)
	}
	return json.MarshalIndent(config, "", "  ")
}

// LoadConfig reads the configuration from the file at path, as TOML when the
// path ends in .toml and as JSON otherwise. Sections or fields missing from
// the file keep their defaults. If the file doesn't exist, it is created with
// default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = marshalConfig(path, config)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The process can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(file, config)
	} else {
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A section present but explicitly null replaces the default with nil.
	if config.App == nil {
		config.App = DefaultAppConfig()
	}
	if config.Generator == nil {
		config.Generator = pagegen.DefaultConfig()
	}
	if config.Templates == nil {
		config.Templates = templating.DefaultConfig()
	}
	return config, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
