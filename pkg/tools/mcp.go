// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maarifa/agentcore/pkg/core"
)

// MCPCaller abstracts MCP tool execution. Heavyweight capability
// implementations (PDF manipulation, image generation, vision inference)
// live behind MCP servers; the core only sees their declared contracts.
type MCPCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// RegisterMCPTools converts MCP tool declarations into capability
// definitions backed by caller and registers them. The MCP input schema's
// property names and required list become the parameter specs.
func RegisterMCPTools(r *Registry, caller MCPCaller, mcpTools []mcp.Tool, requiredRoles []core.Role) error {
	if caller == nil {
		return fmt.Errorf("mcp caller is required")
	}
	for _, t := range mcpTools {
		def, err := mcpDefinition(t, caller, requiredRoles)
		if err != nil {
			return err
		}
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func mcpDefinition(t mcp.Tool, caller MCPCaller, requiredRoles []core.Role) (Definition, error) {
	if t.Name == "" {
		return Definition{}, fmt.Errorf("mcp tool name is required")
	}

	params, err := mcpParams(t)
	if err != nil {
		return Definition{}, err
	}

	name := t.Name
	return Definition{
		Name:          name,
		Description:   Description{EN: t.Description, AR: t.Description},
		Params:        params,
		RequiredRoles: append([]core.Role(nil), requiredRoles...),
		Enabled:       true,
		Handler: func(ctx context.Context, args map[string]any, _ *core.ToolContext) (any, error) {
			result, err := caller.CallTool(ctx, name, args)
			if err != nil {
				return nil, err
			}
			return mcpResultToOutput(result)
		},
	}, nil
}

func mcpParams(t mcp.Tool) ([]ParamSpec, error) {
	schema := t.InputSchema
	if schema.Type != "" && schema.Type != "object" {
		return nil, fmt.Errorf("mcp tool %q: unsupported schema type %q", t.Name, schema.Type)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	var specs []ParamSpec
	for name, raw := range schema.Properties {
		prop, _ := raw.(map[string]any)
		specs = append(specs, ParamSpec{
			Name:        name,
			Type:        mcpParamType(prop),
			Description: mcpPropString(prop, "description"),
			Required:    required[name],
		})
	}
	return specs, nil
}

func mcpParamType(prop map[string]any) ParamType {
	switch mcpPropString(prop, "type") {
	case "number":
		return TypeNumber
	case "integer":
		return TypeInteger
	case "boolean":
		return TypeBoolean
	case "array":
		return TypeArray
	default:
		return TypeString
	}
}

func mcpPropString(prop map[string]any, key string) string {
	if prop == nil {
		return ""
	}
	s, _ := prop[key].(string)
	return s
}

func mcpResultToOutput(result *mcp.CallToolResult) (any, error) {
	if result == nil {
		return nil, fmt.Errorf("mcp tool result is nil")
	}
	if result.IsError {
		return nil, fmt.Errorf("mcp tool returned error: %s", mcpTextContent(result.Content))
	}
	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}
	if text := mcpTextContent(result.Content); text != "" {
		return text, nil
	}
	return result, nil
}

func mcpTextContent(items []mcp.Content) string {
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
