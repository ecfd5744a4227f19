// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/a2alite/pkg/skill"
)

// RegisterOption customizes tool import.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	prefix string
	filter func(mcp.Tool) bool
}

// WithPrefix namespaces imported skill names, e.g. "fs." + tool name.
func WithPrefix(prefix string) RegisterOption {
	return func(c *registerConfig) { c.prefix = prefix }
}

// WithFilter imports only tools the predicate accepts.
func WithFilter(filter func(mcp.Tool) bool) RegisterOption {
	return func(c *registerConfig) { c.filter = filter }
}

// RegisterTools lists the server's tools and registers each as a skill on
// registry. Imported skills take a free-form params mapping which is
// validated against the tool's own schema requirements before the remote
// call.
func RegisterTools(ctx context.Context, registry *skill.Registry, c *Client, opts ...RegisterOption) ([]string, error) {
	cfg := registerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	tools, err := c.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}

	var registered []string
	for _, tool := range tools {
		if cfg.filter != nil && !cfg.filter(tool) {
			continue
		}
		name := cfg.prefix + tool.Name
		if _, err := registry.Register(name, toolHandler(c, tool),
			skill.WithDescription(tool.Description),
			skill.WithTags("mcp"),
		); err != nil {
			return registered, fmt.Errorf("register mcp tool %s: %w", tool.Name, err)
		}
		registered = append(registered, name)
	}
	return registered, nil
}

// toolHandler builds the skill handler delegating to one remote tool.
func toolHandler(c *Client, tool mcp.Tool) func(context.Context, map[string]any) (any, error) {
	return func(ctx context.Context, params map[string]any) (any, error) {
		if err := checkRequiredArgs(tool, params); err != nil {
			return nil, err
		}
		return c.CallTool(ctx, tool.Name, params)
	}
}

func checkRequiredArgs(tool mcp.Tool, args map[string]any) error {
	schema := tool.InputSchema
	if schema.Type != "" && schema.Type != "object" {
		return nil
	}
	var missing []string
	for _, key := range schema.Required {
		if _, ok := args[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("mcp tool %s: missing required arguments: %s", tool.Name, strings.Join(missing, ", "))
	}
	return nil
}
