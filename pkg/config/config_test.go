// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Auth.Mode != "none" {
		t.Errorf("expected default auth mode none, got %s", cfg.Auth.Mode)
	}
	if !cfg.Tasks.Enabled {
		t.Error("expected task tracking enabled by default")
	}
	if cfg.Telemetry.Exporter != "stdout" {
		t.Errorf("expected default telemetry exporter stdout, got %s", cfg.Telemetry.Exporter)
	}
}

func TestLoadRejectsUnknownTelemetryExporter(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("telemetry:\n  exporter: \"jaeger\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown telemetry exporter")
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
agent:
  name: "calculator"
  url: "https://agents.example.com/calc"
auth:
  mode: "apikey"
  keys: ["k1", "k2"]
mcp:
  - name: "fs"
    command: "mcp-fs"
    prefix: "fs."
`
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Agent.Name != "calculator" {
		t.Errorf("agent name = %s", cfg.Agent.Name)
	}
	if cfg.Auth.Mode != "apikey" || len(cfg.Auth.Keys) != 2 {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if len(cfg.MCP) != 1 || cfg.MCP[0].Prefix != "fs." {
		t.Errorf("mcp = %+v", cfg.MCP)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("A2ALITE_LOG_LEVEL", "debug")
	defer os.Unsetenv("A2ALITE_LOG_LEVEL")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug from env, got %s", cfg.Log.Level)
	}
}

func TestLoadRejectsInvalidAuth(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  mode: \"apikey\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for apikey mode without keys")
	}
}
