// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/errors"
	"github.com/maarifa/agentcore/pkg/intent"
	"github.com/maarifa/agentcore/pkg/tools"
)

// Executor walks a plan's steps in order, re-checking policy before each
// step and recording every transition to telemetry and audit.
type Executor struct {
	registry *tools.Registry
	flags    intent.FeatureFlags
	emitter  core.EventEmitter
	audit    AuditStore
	tracer   trace.Tracer
}

// NewExecutor creates an executor. A nil emitter or audit store is
// replaced with a no-op.
func NewExecutor(registry *tools.Registry, flags intent.FeatureFlags, emitter core.EventEmitter, audit AuditStore) *Executor {
	if emitter == nil {
		emitter = core.NoopEventEmitter{}
	}
	if audit == nil {
		audit = NewMemoryAuditStore()
	}
	return &Executor{
		registry: registry,
		flags:    flags,
		emitter:  emitter,
		audit:    audit,
		tracer:   otel.Tracer("agentcore/planner"),
	}
}

// Result is the outcome of one plan execution. Outputs of completed steps
// are always present, failure or not.
type Result struct {
	Plan    *Plan
	Status  core.StepStatus
	Err     *errors.Error
	Outputs map[int]any
}

// Execute runs the plan sequentially. Each step re-checks permission and,
// when the plan's intent requires an admin role or a feature flag, both
// gates, before the capability is invoked. Under FailFast the first
// failure skips every remaining pending step.
func (e *Executor) Execute(ctx context.Context, plan *Plan, tc *core.ToolContext) Result {
	for i, step := range plan.Steps {
		if step.Status != core.StepPending {
			continue
		}

		stepCtx, span := e.tracer.Start(ctx, "Planner.Step",
			trace.WithAttributes(
				attribute.String("plan.id", plan.ID),
				attribute.Int("step.index", i),
				attribute.String("step.tool", step.Tool),
			),
		)
		e.runStep(stepCtx, plan, i, step, tc)
		span.End()

		if step.Status == core.StepFailed && plan.Policy == FailFast {
			for j := i + 1; j < len(plan.Steps); j++ {
				e.skipStep(ctx, plan, j, plan.Steps[j], tc)
			}
			break
		}
	}

	return Result{
		Plan:    plan,
		Status:  plan.Status(),
		Err:     plan.FirstFailure(),
		Outputs: plan.Outputs(),
	}
}

func (e *Executor) runStep(ctx context.Context, plan *Plan, index int, step *Step, tc *core.ToolContext) {
	start := time.Now()
	step.Status = core.StepRunning
	e.record(ctx, plan, index, step, tc, core.EventStepStarted, 0)

	if err := e.preflight(plan, step, tc); err != nil {
		e.fail(ctx, plan, index, step, tc, err, start)
		return
	}

	params, err := resolveRefs(plan, step)
	if err != nil {
		e.fail(ctx, plan, index, step, tc, err, start)
		return
	}

	res, execErr := e.registry.Execute(ctx, step.Tool, params, tc)
	step.Duration = res.Duration.Milliseconds()
	if execErr != nil {
		e.fail(ctx, plan, index, step, tc, errors.Wrap(execErr), start)
		return
	}

	step.Output = res.Data
	step.Status = core.StepDone
	e.record(ctx, plan, index, step, tc, core.EventStepCompleted, time.Since(start).Milliseconds())
}

// preflight re-checks the policy gates without invoking the capability.
func (e *Executor) preflight(plan *Plan, step *Step, tc *core.ToolContext) *errors.Error {
	var role core.Role
	if tc != nil {
		role = tc.Role
	}

	if intent.RequiresAdmin(plan.Intent) && role != core.RoleAdmin {
		return errors.Newf(errors.CodePermissionDenied, "intent %q requires an admin role", plan.Intent).
			WithContext("tool", step.Tool)
	}
	if intent.RequiresFeatureFlag(plan.Intent) && !e.flagEnabled(plan.Intent) {
		// A disabled feature is invisible, not forbidden.
		return errors.Newf(errors.CodeToolNotFound, "capability %q is not available", step.Tool).
			WithContext("tool", step.Tool)
	}
	if !e.registry.Has(step.Tool) {
		return errors.Newf(errors.CodeToolNotFound, "capability %q not found", step.Tool).
			WithContext("tool", step.Tool)
	}
	if !e.registry.CheckPermission(step.Tool, role) {
		return errors.Newf(errors.CodePermissionDenied, "role %q may not invoke %q", role, step.Tool).
			WithContext("tool", step.Tool)
	}
	return nil
}

func (e *Executor) flagEnabled(in intent.Intent) bool {
	switch in {
	case intent.IntentDamageAssessment:
		return e.flags.DamageAssessment
	default:
		return true
	}
}

// resolveRefs fills parameters wired to prior step outputs, failing fast
// when the referenced step has not produced the field.
func resolveRefs(plan *Plan, step *Step) (map[string]any, *errors.Error) {
	if len(step.Refs) == 0 {
		return step.Params, nil
	}

	params := make(map[string]any, len(step.Params)+len(step.Refs))
	for k, v := range step.Params {
		params[k] = v
	}
	for param, ref := range step.Refs {
		if ref.Step < 0 || ref.Step >= len(plan.Steps) {
			return nil, errors.Newf(errors.CodeInvalidInput, "parameter %q references step %d, which does not exist", param, ref.Step)
		}
		src := plan.Steps[ref.Step]
		if src.Status != core.StepDone {
			return nil, errors.Newf(errors.CodeInvalidInput, "parameter %q references step %d, which has not completed", param, ref.Step)
		}
		value := src.Output
		if ref.Field != "" {
			fields, ok := src.Output.(map[string]any)
			if !ok {
				return nil, errors.Newf(errors.CodeInvalidInput, "step %d output has no addressable fields", ref.Step)
			}
			value, ok = fields[ref.Field]
			if !ok {
				return nil, errors.Newf(errors.CodeInvalidInput, "step %d produced no field %q", ref.Step, ref.Field)
			}
		}
		params[param] = value
	}
	return params, nil
}

func (e *Executor) fail(ctx context.Context, plan *Plan, index int, step *Step, tc *core.ToolContext, err *errors.Error, start time.Time) {
	step.Err = err
	step.Status = core.StepFailed
	e.record(ctx, plan, index, step, tc, core.EventStepFailed, time.Since(start).Milliseconds())
}

func (e *Executor) skipStep(ctx context.Context, plan *Plan, index int, step *Step, tc *core.ToolContext) {
	if step.Status != core.StepPending {
		return
	}
	step.Status = core.StepSkipped
	e.record(ctx, plan, index, step, tc, core.EventStepSkipped, 0)
}

// record emits the telemetry event and audit entry for one transition.
// Failures share the audit shape of successes; the outcome field is the
// only difference.
func (e *Executor) record(ctx context.Context, plan *Plan, index int, step *Step, tc *core.ToolContext, event core.EventType, elapsedMs int64) {
	requestID, sessionID := "", ""
	if tc != nil {
		requestID, sessionID = tc.RequestID, tc.SessionID
	}

	payload := map[string]any{
		"plan_id": plan.ID,
		"step":    index,
		"tool":    step.Tool,
		"status":  string(step.Status),
	}
	e.emitter.Emit(ctx, core.NewEvent(event, requestID, sessionID, payload))

	entry := AuditEntry{
		RequestID: requestID,
		SessionID: sessionID,
		PlanID:    plan.ID,
		StepIndex: index,
		Tool:      step.Tool,
		Status:    string(step.Status),
		Outcome:   outcomeOf(step),
		Duration:  elapsedMs,
		Params:    truncateParams(step.Params),
		At:        time.Now().UTC(),
	}
	if step.Err != nil {
		entry.Error = step.Err.Error()
	}
	// Audit failures must not fail the plan.
	_ = e.audit.Record(ctx, entry)
}

func outcomeOf(step *Step) string {
	switch step.Status {
	case core.StepDone:
		return "success"
	case core.StepFailed:
		return string(errors.CodeOf(step.Err))
	case core.StepSkipped:
		return "skipped"
	default:
		return "in_progress"
	}
}
