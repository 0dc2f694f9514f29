// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
server:
  host: 127.0.0.1
  port: 9090
logging:
  level: debug
  format: text
language: en_US
profiles:
  type: sqlite
  dsn: /tmp/profiles.db
plugins:
  web_search:
    engine: serper
    max_results: 3
    timeout: 4s
    duckduckgo:
      safe_search: moderate
      time_limit: m
    serper:
      api_key: file-key
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	for _, key := range []string{"SERPER_API_KEY", "WEB_SEARCH_ENGINE", "PROFILE_STORE_DSN", "PROFILE_STORE_TYPE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.Timeout != 60*time.Second {
		t.Errorf("expected default server timeout, got %v", cfg.Server.Timeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Language != "en_US" {
		t.Errorf("Language = %q", cfg.Language)
	}
	if cfg.Profiles.Type != "sqlite" || cfg.Profiles.DSN != "/tmp/profiles.db" {
		t.Errorf("unexpected profiles config: %+v", cfg.Profiles)
	}

	ws := cfg.Plugins.WebSearch
	if ws.Engine != "serper" || ws.MaxResults != 3 || ws.Timeout != 4*time.Second {
		t.Errorf("unexpected web_search config: %+v", ws)
	}
	if ws.Serper.APIKey != "file-key" {
		t.Errorf("Serper.APIKey = %q", ws.Serper.APIKey)
	}
	if ws.DuckDuckGo.SafeSearch != "moderate" || ws.DuckDuckGo.TimeLimit != "m" {
		t.Errorf("unexpected duckduckgo config: %+v", ws.DuckDuckGo)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "env-key")
	t.Setenv("WEB_SEARCH_ENGINE", "duckduckgo")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Plugins.WebSearch.Serper.APIKey != "env-key" {
		t.Errorf("expected env api key, got %q", cfg.Plugins.WebSearch.Serper.APIKey)
	}
	if cfg.Plugins.WebSearch.Engine != "duckduckgo" {
		t.Errorf("expected env engine, got %q", cfg.Plugins.WebSearch.Engine)
	}
}

func TestLoad_EngineLeftUnset(t *testing.T) {
	t.Setenv("WEB_SEARCH_ENGINE", "")

	cfg, err := Load(writeConfig(t, "language: zh_CN\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Plugins.WebSearch.Engine != "" {
		t.Errorf("engine should stay unset for per-call resolution, got %q", cfg.Plugins.WebSearch.Engine)
	}
	if cfg.Plugins.WebSearch.MaxResults != 5 || cfg.Plugins.WebSearch.Timeout != 10*time.Second {
		t.Errorf("expected web_search defaults, got %+v", cfg.Plugins.WebSearch)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [unterminated")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	cfg := Default()
	if cfg.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", cfg.Language, DefaultLanguage)
	}
	if cfg.Profiles.Type != "memory" {
		t.Errorf("Profiles.Type = %q, want memory", cfg.Profiles.Type)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
}
