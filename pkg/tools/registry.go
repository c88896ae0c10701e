// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/errors"
	"github.com/maarifa/agentcore/pkg/policy"
)

// Result carries a successful execution's payload and timing. Duration is
// populated on every path, success or failure.
type Result struct {
	Data     any
	Duration time.Duration
}

// Registry is the process-wide capability catalog. Definitions are
// registered at boot; Execute dispatches by name after validating
// parameters and role permission.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition

	execCounter  metric.Int64Counter
	execDuration metric.Float64Histogram
}

// NewRegistry creates an empty registry with OTel instruments.
func NewRegistry() *Registry {
	meter := otel.Meter("agentcore/tools")
	counter, _ := meter.Int64Counter(
		"agentcore.tools.executions",
		metric.WithDescription("Capability executions by name and outcome"),
	)
	duration, _ := meter.Float64Histogram(
		"agentcore.tools.duration",
		metric.WithDescription("Capability execution duration"),
		metric.WithUnit("ms"),
	)
	return &Registry{
		defs:         make(map[string]*Definition),
		execCounter:  counter,
		execDuration: duration,
	}
}

// Register adds or overwrites a capability by name. Malformed definitions
// are rejected here so dispatch never has to re-validate.
func (r *Registry) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = &def
	return nil
}

// MustRegister registers def or panics. For boot-time wiring where a
// malformed definition is a programming error.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(fmt.Sprintf("tools: %v", err))
	}
}

// GetDefinition returns the definition for name.
func (r *Registry) GetDefinition(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}

// GetAllDefinitions returns every enabled definition the role may see:
// included when RequiredRoles is empty or role is a member.
func (r *Registry) GetAllDefinitions(role core.Role) []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Definition
	for _, def := range r.defs {
		if !def.Enabled {
			continue
		}
		if policy.CanUseTool(role, def.RequiredRoles) {
			out = append(out, def)
		}
	}
	return out
}

// CheckPermission combines registry lookup with the policy role check.
func (r *Registry) CheckPermission(name string, role core.Role) bool {
	def, ok := r.GetDefinition(name)
	if !ok || !def.Enabled {
		return false
	}
	return policy.CanUseTool(role, def.RequiredRoles)
}

// Execute runs the named capability: lookup, permission, parameter
// validation and defaulting, then the handler under a timer. Handler
// failures are wrapped as TOOL_EXECUTION_FAILED carrying the capability
// name and original cause; cancellation and transport failures keep their
// taxonomy classification.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any, tc *core.ToolContext) (Result, error) {
	start := time.Now()
	res, err := r.execute(ctx, name, params, tc)
	res.Duration = time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = string(errors.CodeOf(err))
	}
	r.execCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", name),
		attribute.String("outcome", outcome),
	))
	r.execDuration.Record(ctx, float64(res.Duration.Milliseconds()), metric.WithAttributes(
		attribute.String("tool", name),
	))
	return res, err
}

func (r *Registry) execute(ctx context.Context, name string, params map[string]any, tc *core.ToolContext) (Result, error) {
	def, ok := r.GetDefinition(name)
	if !ok || !def.Enabled {
		return Result{}, errors.Newf(errors.CodeToolNotFound, "capability %q not found", name).
			WithContext("tool", name)
	}

	var role core.Role
	if tc != nil {
		role = tc.Role
	}
	if !policy.CanUseTool(role, def.RequiredRoles) {
		return Result{}, errors.Newf(errors.CodePermissionDenied, "role %q may not invoke %q", role, name).
			WithContext("tool", name)
	}

	resolved, err := resolveParams(def, params)
	if err != nil {
		return Result{}, err
	}

	data, err := def.Handler(ctx, resolved, tc)
	if err != nil {
		wrapped := errors.Wrap(err)
		// Timeouts, backend outages, and image-batch violations keep
		// their own kind; everything else becomes a tool failure.
		switch wrapped.Code {
		case errors.CodeLLMTimeout, errors.CodeLLMUnavailable,
			errors.CodeNoImagesProvided, errors.CodeImageLimitExceeded,
			errors.CodeInvalidInput:
			return Result{}, wrapped.WithContext("tool", name)
		default:
			return Result{}, errors.New(errors.CodeToolExecutionFailed, fmt.Sprintf("capability %q failed", name), err).
				WithContext("tool", name)
		}
	}
	return Result{Data: data}, nil
}

// resolveParams validates required parameters, applies declared defaults,
// and enforces enum membership. Validation always runs before execution.
func resolveParams(def *Definition, params map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(params))
	for k, v := range params {
		resolved[k] = v
	}
	for _, spec := range def.Params {
		value, present := resolved[spec.Name]
		if !present || value == nil {
			if spec.Required {
				return nil, errors.Newf(errors.CodeInvalidInput, "missing required parameter %q", spec.Name).
					WithContext("tool", def.Name).
					WithContext("parameter", spec.Name)
			}
			if spec.Default != nil {
				resolved[spec.Name] = spec.Default
			}
			continue
		}
		if len(spec.Enum) > 0 {
			s, ok := value.(string)
			if !ok || !containsString(spec.Enum, s) {
				return nil, errors.Newf(errors.CodeInvalidInput, "parameter %q must be one of %v", spec.Name, spec.Enum).
					WithContext("tool", def.Name).
					WithContext("parameter", spec.Name)
			}
		}
	}
	return resolved, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
