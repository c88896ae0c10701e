// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"sort"

	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/llm"
)

// GetOpenAITools exports the role-filtered catalog as function-calling
// tool definitions: name, description, and a JSON-schema parameter shape
// with required populated from each parameter's flag.
func (r *Registry) GetOpenAITools(role core.Role) []llm.Tool {
	defs := r.GetAllDefinitions(role)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	out := make([]llm.Tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, llm.Tool{
			Type: llm.ToolTypeFunction,
			Function: llm.FunctionDef{
				Name:        def.Name,
				Description: def.Description.For("en"),
				Parameters:  paramSchema(def),
			},
		})
	}
	return out
}

func paramSchema(def *Definition) map[string]any {
	properties := make(map[string]any, len(def.Params))
	var required []string
	for _, p := range def.Params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if required == nil {
		required = []string{}
	}
	schema["required"] = required
	return schema
}
