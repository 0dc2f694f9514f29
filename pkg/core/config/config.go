// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/voxkit/websearch/pkg/websearch"
)

// DefaultLanguage is the response language used when neither the caller
// nor the device profile names one.
const DefaultLanguage = "zh_CN"

// Config represents the main configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	LLM      LLMConfig      `yaml:"llm"`
	Profiles ProfilesConfig `yaml:"profiles"`
	Language string         `yaml:"language"` // default response language
	Plugins  PluginsConfig  `yaml:"plugins"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig selects log level and format
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LLMConfig points at an OpenAI-compatible chat completions backend.
// An empty Model disables the chat endpoint.
type LLMConfig struct {
	Endpoint string        `yaml:"endpoint"` // e.g. "https://api.openai.com/v1"
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ProfilesConfig selects the device profile store backend
type ProfilesConfig struct {
	Type string `yaml:"type"` // "memory" (default), "sqlite" or "postgres"
	DSN  string `yaml:"dsn"`  // file path for sqlite, connection string for postgres
}

// PluginsConfig holds per-function plugin settings
type PluginsConfig struct {
	WebSearch websearch.Config `yaml:"web_search"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		LLM: LLMConfig{
			Timeout: 60 * time.Second,
		},
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyEnv lets environment variables override file config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		cfg.Plugins.WebSearch.Serper.APIKey = v
	}
	if v := os.Getenv("WEB_SEARCH_ENGINE"); v != "" {
		cfg.Plugins.WebSearch.Engine = v
	}
	if v := os.Getenv("PROFILE_STORE_DSN"); v != "" {
		cfg.Profiles.DSN = v
	}
	if v := os.Getenv("PROFILE_STORE_TYPE"); v != "" {
		cfg.Profiles.Type = v
	}
}

// applyDefaults fills unset values. The web search engine is deliberately
// left alone: the web_search function resolves it per call.
func applyDefaults(cfg *Config) {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Profiles.Type == "" {
		cfg.Profiles.Type = "memory"
	}
	if cfg.Plugins.WebSearch.MaxResults <= 0 {
		cfg.Plugins.WebSearch.MaxResults = websearch.DefaultMaxResults
	}
	if cfg.Plugins.WebSearch.Timeout <= 0 {
		cfg.Plugins.WebSearch.Timeout = 10 * time.Second
	}
}
