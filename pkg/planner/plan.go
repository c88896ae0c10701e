// SPDX-License-Identifier: Apache-2.0

// Package planner builds and executes ordered capability plans. Each step
// walks a small state machine; the plan aggregates results or the first
// fatal failure.
package planner

import (
	"github.com/google/uuid"

	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/errors"
	"github.com/maarifa/agentcore/pkg/intent"
)

// FailurePolicy controls how a plan reacts to a failed step.
type FailurePolicy string

const (
	// FailFast skips every remaining step after the first failure.
	FailFast FailurePolicy = "fail_fast"

	// ContinueOnError keeps running later steps. The plan still reports
	// the first failure; failed steps are never hidden.
	ContinueOnError FailurePolicy = "continue"
)

// OutputRef is a typed reference to a prior step's output: the step index
// and the output field to extract. An empty Field takes the whole output.
type OutputRef struct {
	Step  int
	Field string
}

// Step is one capability invocation in a plan.
type Step struct {
	Tool   string
	Params map[string]any
	// Refs wires parameters to prior step outputs, resolved at execution
	// time. The map key is the parameter name to fill.
	Refs map[string]OutputRef

	Status   core.StepStatus
	Output   any
	Err      *errors.Error
	Duration int64 // milliseconds
}

// Plan is an ordered step list built for one routed request and discarded
// after the response is returned. It is never persisted by the core.
type Plan struct {
	ID     string
	Intent intent.Intent
	Steps  []*Step
	Policy FailurePolicy
}

// NewPlan creates a plan over explicit steps.
func NewPlan(in intent.Intent, policy FailurePolicy, steps ...*Step) *Plan {
	if policy == "" {
		policy = FailFast
	}
	for _, s := range steps {
		s.Status = core.StepPending
		if s.Params == nil {
			s.Params = make(map[string]any)
		}
	}
	return &Plan{
		ID:     uuid.NewString(),
		Intent: in,
		Steps:  steps,
		Policy: policy,
	}
}

// FromRoute builds the single-step plan serving a routed intent.
func FromRoute(in intent.Intent, route intent.Route, params map[string]any) *Plan {
	if params == nil {
		params = make(map[string]any)
	}
	return NewPlan(in, FailFast, &Step{Tool: route.CapabilityName, Params: params})
}

// Status derives the overall plan status from its steps: done iff every
// step is done, failed when any step failed, otherwise the partially
// completed steps remain visible for diagnosis.
func (p *Plan) Status() core.StepStatus {
	done := 0
	for _, s := range p.Steps {
		switch s.Status {
		case core.StepFailed:
			return core.StepFailed
		case core.StepDone:
			done++
		}
	}
	if done == len(p.Steps) && len(p.Steps) > 0 {
		return core.StepDone
	}
	return core.StepPending
}

// FirstFailure returns the first failed step's error, if any.
func (p *Plan) FirstFailure() *errors.Error {
	for _, s := range p.Steps {
		if s.Status == core.StepFailed && s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Outputs returns the outputs of every completed step, by index. Partial
// results survive a failure so callers can decide whether they are useful.
func (p *Plan) Outputs() map[int]any {
	out := make(map[int]any)
	for i, s := range p.Steps {
		if s.Status == core.StepDone {
			out[i] = s.Output
		}
	}
	return out
}
