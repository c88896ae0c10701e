// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/maarifa/agentcore/pkg/core"
)

// Semantic conventions for agent core telemetry. LLM attributes extend
// the standard gen_ai conventions.
const (
	// Request attributes
	AttrRequestID = "agentcore.request.id"
	AttrSessionID = "agentcore.session.id"
	AttrUserRole  = "agentcore.user.role"
	AttrLocale    = "agentcore.request.locale"

	// Intent attributes
	AttrIntent           = "agentcore.intent.name"
	AttrIntentConfidence = "agentcore.intent.confidence"

	// Plan attributes
	AttrPlanID     = "agentcore.plan.id"
	AttrPlanSteps  = "agentcore.plan.steps"
	AttrPlanStatus = "agentcore.plan.status"
	AttrStepIndex  = "agentcore.step.index"
	AttrStepTool   = "agentcore.step.tool"
	AttrStepStatus = "agentcore.step.status"

	// Capability attributes
	AttrToolName       = "agentcore.tool.name"
	AttrToolDurationMs = "agentcore.tool.duration_ms"
	AttrToolSuccess    = "agentcore.tool.success"

	// Policy attributes
	AttrPolicyAllowed      = "agentcore.policy.allowed"
	AttrPolicyReason       = "agentcore.policy.reason"
	AttrSafetyCategories   = "agentcore.safety.categories"
	AttrRateLimitRemaining = "agentcore.ratelimit.remaining"

	// Cache attributes
	AttrCacheNamespace = "agentcore.cache.namespace"
	AttrCacheHit       = "agentcore.cache.hit"

	// Error attributes
	AttrErrorCode      = "agentcore.error.code"
	AttrErrorRetryable = "agentcore.error.retryable"

	// LLM attributes
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMProvider     = "gen_ai.system"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrLLMDurationMs   = "gen_ai.duration_ms"
)

// RequestAttrs returns span attributes for one request context.
func RequestAttrs(tc *core.ToolContext) []attribute.KeyValue {
	if tc == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrRequestID, tc.RequestID),
		attribute.String(AttrSessionID, tc.SessionID),
		attribute.String(AttrUserRole, string(tc.Role)),
		attribute.String(AttrLocale, tc.Locale),
	}
}

// StepAttrs returns span attributes for one plan step.
func StepAttrs(planID string, index int, tool string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrPlanID, planID),
		attribute.Int(AttrStepIndex, index),
		attribute.String(AttrStepTool, tool),
	}
}
