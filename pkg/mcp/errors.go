// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	a2aerrors "github.com/jllopis/a2alite/pkg/errors"
)

// jsonrpcCoded matches transport errors that expose a JSON-RPC error code.
type jsonrpcCoded interface {
	Code() int
}

// classifyCallError maps a tool-call failure to a typed error. Detection is
// tiered: a structured JSON-RPC code is authoritative; message sniffing is
// the last resort for servers that report missing tools as plain text.
func classifyCallError(tool string, err error) error {
	if err == nil {
		return nil
	}
	if typed := new(a2aerrors.Error); errors.As(err, &typed) {
		return typed
	}

	var coded jsonrpcCoded
	if errors.As(err, &coded) {
		switch coded.Code() {
		case mcp.METHOD_NOT_FOUND, mcp.INVALID_PARAMS:
			return toolNotFound(tool, err)
		}
	}

	if looksLikeMissingTool(err.Error()) {
		return toolNotFound(tool, err)
	}
	return err
}

func looksLikeMissingTool(message string) bool {
	lowered := strings.ToLower(message)
	for _, marker := range []string{"tool not found", "unknown tool", "no such tool", "not found:"} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func toolNotFound(tool string, cause error) *a2aerrors.Error {
	message := "MCP tool not found"
	if tool != "" {
		message = fmt.Sprintf("MCP tool not found: %s", tool)
	}
	return a2aerrors.New(a2aerrors.CodeToolNotFound, message, cause)
}

// IsToolNotFound reports whether err represents a missing remote tool.
func IsToolNotFound(err error) bool {
	typed := new(a2aerrors.Error)
	return errors.As(err, &typed) && typed.Code == a2aerrors.CodeToolNotFound
}

// unwrapResult converts a tool result into a plain value: structured
// content when present, else concatenated text content. A result flagged
// as an error becomes a Go error, with missing-tool replies classified.
func unwrapResult(tool string, result *mcp.CallToolResult) (any, error) {
	if result == nil {
		return nil, errors.New("mcp tool result is nil")
	}
	if result.IsError {
		text := textContent(result.Content)
		if looksLikeMissingTool(text) {
			return nil, toolNotFound(tool, errors.New(text))
		}
		return nil, fmt.Errorf("mcp tool %s failed: %s", tool, text)
	}
	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}
	return textContent(result.Content), nil
}

func textContent(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}
