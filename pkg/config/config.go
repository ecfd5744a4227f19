// SPDX-License-Identifier: Apache-2.0

// Package config loads agent deployment settings from a YAML file with
// environment overrides (A2ALITE_LOG_LEVEL -> log.level).
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the environment variables read as overrides.
const EnvPrefix = "A2ALITE_"

type Config struct {
	Agent     AgentConfig     `koanf:"agent"`
	Log       LogConfig       `koanf:"log"`
	Auth      AuthConfig      `koanf:"auth"`
	Tasks     TasksConfig     `koanf:"tasks"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	MCP       []MCPServer     `koanf:"mcp"`

	// SkillManifest points at an optional YAML overlay for skill
	// descriptions and tags.
	SkillManifest string `koanf:"skill_manifest"`
}

type AgentConfig struct {
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
	Version     string `koanf:"version"`
	URL         string `koanf:"url"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type AuthConfig struct {
	// Mode selects the provider: none, apikey, bearer, oauth2.
	Mode     string   `koanf:"mode"`
	Keys     []string `koanf:"keys"`
	Header   string   `koanf:"header"`
	Issuer   string   `koanf:"issuer"`
	Audience string   `koanf:"audience"`
	JWKSURI  string   `koanf:"jwks_uri"`
}

type TasksConfig struct {
	Enabled bool `koanf:"enabled"`
}

type TelemetryConfig struct {
	// Exporter selects the span and metric exporter: stdout or otlp.
	Exporter     string `koanf:"exporter"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

// MCPServer describes one MCP server whose tools are imported as skills.
type MCPServer struct {
	Name    string   `koanf:"name"`
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
	Prefix  string   `koanf:"prefix"`
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	k.Set("agent.version", "0.1.0")
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("auth.mode", "none")
	k.Set("tasks.enabled", true)
	k.Set("telemetry.exporter", "stdout")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.Mode {
	case "", "none", "apikey", "bearer", "oauth2":
	default:
		return fmt.Errorf("unknown auth mode %q", c.Auth.Mode)
	}
	if c.Auth.Mode == "apikey" && len(c.Auth.Keys) == 0 {
		return fmt.Errorf("auth mode apikey requires at least one key")
	}
	if c.Auth.Mode == "oauth2" && c.Auth.Issuer == "" {
		return fmt.Errorf("auth mode oauth2 requires an issuer")
	}
	switch c.Telemetry.Exporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
	}
	return nil
}
