// SPDX-License-Identifier: Apache-2.0

// Package agentcard builds the discovery document an agent publishes: its
// identity, capability flags, auth scheme, and flattened skill descriptors.
package agentcard

import (
	"encoding/json"

	"github.com/jllopis/a2alite/pkg/agent"
	"github.com/jllopis/a2alite/pkg/auth"
)

// Card is the discovery document served from the well-known path.
type Card struct {
	Name               string                 `json:"name"`
	Description        string                 `json:"description,omitempty"`
	Version            string                 `json:"version"`
	URL                string                 `json:"url,omitempty"`
	DocumentationURL   string                 `json:"documentationUrl,omitempty"`
	Capabilities       Capabilities           `json:"capabilities"`
	SecuritySchemes    map[string]auth.Scheme `json:"securitySchemes,omitempty"`
	DefaultInputModes  []string               `json:"defaultInputModes"`
	DefaultOutputModes []string               `json:"defaultOutputModes"`
	Skills             []Skill                `json:"skills"`
}

// Capabilities flags what the agent's transport supports.
type Capabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

// Skill is one flattened skill descriptor.
type Skill struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
	Streaming   bool     `json:"streaming,omitempty"`
}

// Config overrides fields that cannot be derived from the agent itself.
type Config struct {
	DocumentationURL  string
	PushNotifications bool
	InputModes        []string
	OutputModes       []string
}

// Build assembles the discovery document for a. Streaming capability is
// derived from the registered skills; the auth scheme comes from the
// configured provider.
func Build(a *agent.Agent, cfg Config) *Card {
	inputModes := cfg.InputModes
	if len(inputModes) == 0 {
		inputModes = []string{"text/plain", "application/json"}
	}
	outputModes := cfg.OutputModes
	if len(outputModes) == 0 {
		outputModes = []string{"text/plain", "application/json"}
	}

	card := &Card{
		Name:               a.Name(),
		Description:        a.Description(),
		Version:            a.Version(),
		URL:                a.URL(),
		DocumentationURL:   cfg.DocumentationURL,
		DefaultInputModes:  inputModes,
		DefaultOutputModes: outputModes,
		Capabilities: Capabilities{
			PushNotifications: cfg.PushNotifications,
		},
		Skills: []Skill{},
	}

	for _, def := range a.Registry().All() {
		if def.IsStreaming() {
			card.Capabilities.Streaming = true
		}
		card.Skills = append(card.Skills, Skill{
			Name:        def.Name,
			Description: def.Description,
			Tags:        def.Tags,
			InputModes:  inputModes,
			OutputModes: outputModes,
			Streaming:   def.IsStreaming(),
		})
	}

	// The no-op provider's zero scheme advertises nothing.
	if scheme := a.AuthProvider().Scheme(); scheme.Type != "" {
		card.SecuritySchemes = map[string]auth.Scheme{"default": scheme}
	}
	return card
}

// MarshalIndent renders the card as the JSON document served to callers.
func (c *Card) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
