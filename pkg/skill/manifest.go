// SPDX-License-Identifier: Apache-2.0

package skill

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is a YAML overlay for skill metadata. Handlers stay in code; the
// manifest lets descriptions and tags be maintained alongside deployment
// config without a rebuild.
//
//	skills:
//	  - name: add
//	    description: Adds two numbers.
//	    tags: [math, arithmetic]
type Manifest struct {
	Skills []ManifestEntry `yaml:"skills"`
}

// ManifestEntry overrides the metadata of one registered skill.
type ManifestEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML. Entries without a name are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse skill manifest: %w", err)
	}
	for i, entry := range m.Skills {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("skill manifest entry %d: name is required", i)
		}
	}
	return &m, nil
}

// Apply overlays the manifest onto the registry. Entries naming skills that
// are not registered are reported, not applied.
func (m *Manifest) Apply(r *Registry) error {
	var missing []string
	for _, entry := range m.Skills {
		def, ok := r.Get(entry.Name)
		if !ok {
			missing = append(missing, entry.Name)
			continue
		}
		if entry.Description != "" {
			def.Description = entry.Description
		}
		if len(entry.Tags) > 0 {
			def.Tags = entry.Tags
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("skill manifest names unregistered skills: %s", strings.Join(missing, ", "))
	}
	return nil
}
