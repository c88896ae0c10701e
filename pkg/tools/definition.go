// SPDX-License-Identifier: Apache-2.0

// Package tools provides the capability registry: the catalog of named,
// typed, role-gated capabilities the planner executes.
package tools

import (
	"context"
	"fmt"

	"github.com/maarifa/agentcore/pkg/core"
)

// ParamType is the primitive type of a capability parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
)

var validParamTypes = map[ParamType]bool{
	TypeString:  true,
	TypeNumber:  true,
	TypeInteger: true,
	TypeBoolean: true,
	TypeArray:   true,
}

// ParamSpec declares one capability parameter.
type ParamSpec struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any      // applied when an optional parameter is absent
	Enum        []string // optional closed value set, string params only
}

// Description carries the capability's human description in both locales.
type Description struct {
	AR string
	EN string
}

// For returns the text for locale, falling back to Arabic.
func (d Description) For(locale string) string {
	if locale == "en" && d.EN != "" {
		return d.EN
	}
	if d.AR != "" {
		return d.AR
	}
	return d.EN
}

// Handler is a capability's execution function. The params have already
// been validated and defaulted; tc is read-only.
type Handler func(ctx context.Context, params map[string]any, tc *core.ToolContext) (any, error)

// Definition is the immutable record describing one capability. It is
// registered once at process start; re-registration is the only sanctioned
// mutation (used for overrides and testing).
type Definition struct {
	Name          string
	Description   Description
	Params        []ParamSpec
	RequiredRoles []core.Role // empty = any authenticated caller
	Enabled       bool
	Streamable    bool
	Cacheable     bool
	Handler       Handler
}

// validate rejects malformed definitions at registration time so call
// sites never see a half-formed capability.
func (d *Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("capability name is required")
	}
	if d.Handler == nil {
		return fmt.Errorf("capability %q: handler is required", d.Name)
	}
	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("capability %q: parameter name is required", d.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("capability %q: duplicate parameter %q", d.Name, p.Name)
		}
		seen[p.Name] = true
		if !validParamTypes[p.Type] {
			return fmt.Errorf("capability %q: parameter %q has unknown type %q", d.Name, p.Name, p.Type)
		}
		if len(p.Enum) > 0 && p.Type != TypeString {
			return fmt.Errorf("capability %q: parameter %q: enum requires string type", d.Name, p.Name)
		}
		if p.Required && p.Default != nil {
			return fmt.Errorf("capability %q: parameter %q: required parameters cannot carry defaults", d.Name, p.Name)
		}
	}
	return nil
}
