// SPDX-License-Identifier: Apache-2.0

// Package agent assembles the orchestration core into one inbound
// pipeline: policy gates, intent routing, plan execution and response
// assembly.
package agent

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/maarifa/agentcore/pkg/cache"
	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/errors"
	"github.com/maarifa/agentcore/pkg/intent"
	"github.com/maarifa/agentcore/pkg/llm"
	"github.com/maarifa/agentcore/pkg/memory"
	"github.com/maarifa/agentcore/pkg/planner"
	"github.com/maarifa/agentcore/pkg/policy"
	"github.com/maarifa/agentcore/pkg/telemetry"
	"github.com/maarifa/agentcore/pkg/tools"
)

// Request is one inbound user message with its caller identity.
type Request struct {
	Message   string
	SessionID string
	UserID    string
	Role      core.Role
	Locale    string // "ar" (default) or "en"
	Images    []tools.ImageRef
}

// Response is the structured result returned to the calling layer.
type Response struct {
	OK        bool         `json:"ok"`
	Data      any          `json:"data,omitempty"`
	ErrorCode errors.Code  `json:"error_code,omitempty"`
	Error     string       `json:"error,omitempty"`
	RequestID string       `json:"request_id"`
	Intent    intent.Intent `json:"intent,omitempty"`
	PlanID    string       `json:"plan_id,omitempty"`
	Cached    bool         `json:"cached,omitempty"`
}

// Agent owns the per-process orchestration state: policy engine, caches,
// registry and executor. It is created once at boot and shared by every
// request worker.
type Agent struct {
	policy     *policy.Engine
	classifier *intent.Classifier
	registry   *tools.Registry
	executor   *planner.Executor
	store      *cache.Store
	provider   llm.Provider
	history    memory.History
	audit      planner.AuditStore
	metrics    *telemetry.RequestMetrics
	emitter    core.EventEmitter
	logger     *slog.Logger
	flags      intent.FeatureFlags
	tracer     trace.Tracer
}

// Option configures the agent.
type Option func(*Agent)

// WithPolicyEngine replaces the default policy engine.
func WithPolicyEngine(e *policy.Engine) Option {
	return func(a *Agent) { a.policy = e }
}

// WithFeatureFlags sets the feature flags shared by classifier and
// planner.
func WithFeatureFlags(flags intent.FeatureFlags) Option {
	return func(a *Agent) { a.flags = flags }
}

// WithCacheStore replaces the default cache store.
func WithCacheStore(s *cache.Store) Option {
	return func(a *Agent) { a.store = s }
}

// WithHistory sets the conversation history backend.
func WithHistory(h memory.History) Option {
	return func(a *Agent) { a.history = h }
}

// WithMetrics sets the request metrics recorder.
func WithMetrics(m *telemetry.RequestMetrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithEventEmitter sets the emitter receiving plan and policy events.
func WithEventEmitter(e core.EventEmitter) Option {
	return func(a *Agent) { a.emitter = e }
}

// WithLogger sets the agent's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithAuditStore sets the plan audit backend.
func WithAuditStore(s planner.AuditStore) Option {
	return func(a *Agent) { a.audit = s }
}

// New builds an agent around a registry and provider. The registry is
// expected to already hold the capability catalog; RegisterBuiltins
// does that for the builtin set.
func New(registry *tools.Registry, provider llm.Provider, opts ...Option) *Agent {
	a := &Agent{
		registry: registry,
		provider: provider,
		history:  memory.NewInMemoryHistory(),
		emitter:  core.NoopEventEmitter{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("agentcore/agent"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.policy == nil {
		a.policy = policy.NewEngine(policy.DefaultRateLimitConfig())
	}
	if a.store == nil {
		a.store = cache.NewStore(cache.StoreConfig{})
	}
	a.classifier = intent.NewClassifier(a.flags)
	a.executor = planner.NewExecutor(a.registry, a.flags, a.emitter, a.audit)
	return a
}

// Classifier exposes the intent classifier for lexicon overlays.
func (a *Agent) Classifier() *intent.Classifier { return a.classifier }

// Store exposes the cache store for admin/introspection surfaces.
func (a *Agent) Store() *cache.Store { return a.store }

// HandleRequest runs the full pipeline for one request. It never
// returns an unclassified failure; every error path carries exactly one
// taxonomy code and a localized message.
func (a *Agent) HandleRequest(ctx context.Context, req Request) *Response {
	start := time.Now()
	tc := core.NewToolContext(req.SessionID, req.UserID, req.Role, req.Locale)
	ctx = core.WithRequestID(ctx, tc.RequestID)

	ctx, span := a.tracer.Start(ctx, "Agent.HandleRequest",
		trace.WithAttributes(telemetry.RequestAttrs(tc)...))
	defer span.End()

	resp := a.handle(ctx, req, tc)

	outcome := "success"
	if !resp.OK {
		outcome = string(resp.ErrorCode)
	}
	a.metrics.RecordRequest(ctx, string(resp.Intent), outcome, float64(time.Since(start).Milliseconds()))
	a.logger.InfoContext(ctx, "request handled",
		"request_id", tc.RequestID,
		"intent", string(resp.Intent),
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp
}

func (a *Agent) handle(ctx context.Context, req Request, tc *core.ToolContext) *Response {
	// The input ceiling is checked ahead of every other gate, before any
	// normalization-dependent processing.
	if err := policy.CheckInputSize(req.Message); err != nil {
		return a.failure(tc, intent.IntentUnknown, "", err)
	}

	if gateErr := a.gates(ctx, req, tc); gateErr != nil {
		return a.failure(tc, intent.IntentUnknown, "", gateErr)
	}

	sanitized := a.policy.SanitizeInput(req.Message)

	detected := a.classify(sanitized)
	route := intent.RouteIntent(detected.Intent)

	if route.RequiresImages {
		if err := tools.ValidateImageBatch(req.Images, tools.MaxImagesPerRequest); err != nil {
			return a.failure(tc, detected.Intent, "", err)
		}
	}

	// Capability-result cache for cacheable single-capability routes.
	params := a.buildParams(req, sanitized, route)
	if def, ok := a.registry.GetDefinition(route.CapabilityName); ok && def.Cacheable {
		if cached, hit := a.store.Tool.Get(route.CapabilityName, params); hit {
			a.metrics.RecordCacheLookup(ctx, "tool", true)
			return a.success(tc, detected.Intent, "", cached, true)
		}
		a.metrics.RecordCacheLookup(ctx, "tool", false)
	}

	plan := planner.FromRoute(detected.Intent, route, params)
	result := a.executor.Execute(ctx, plan, tc)
	if result.Err != nil {
		return a.failure(tc, detected.Intent, plan.ID, result.Err)
	}

	output := result.Outputs[len(plan.Steps)-1]

	if def, ok := a.registry.GetDefinition(route.CapabilityName); ok && def.Cacheable {
		a.store.Tool.Set(route.CapabilityName, params, output)
	}

	a.remember(ctx, tc, req.Message, output)
	return a.success(tc, detected.Intent, plan.ID, output, false)
}

// HandleStream serves a streamable route as a pull-based chunk stream.
// Non-streamable routes and providers fall back to a single-chunk stream
// carrying the full response.
func (a *Agent) HandleStream(ctx context.Context, req Request) (llm.Stream, *Response) {
	resp := a.HandleRequest(ctx, req)
	if !resp.OK {
		return llm.NewChunkStream(nil), resp
	}

	if text, ok := resp.Data.(string); ok {
		return llm.NewChunkStream(splitForStream(text)), resp
	}
	return llm.NewChunkStream(nil), resp
}

// gates runs rate limiting, message limits, safety and base permission.
func (a *Agent) gates(ctx context.Context, req Request, tc *core.ToolContext) *errors.Error {
	rl := a.policy.CheckRateLimit(tc.Identifier(), "chat", tc.Authenticated())
	if !rl.Allowed {
		a.metrics.RecordBlock(ctx, "rate_limit")
		a.emitter.Emit(ctx, core.NewEvent(core.EventRateLimited, tc.RequestID, tc.SessionID, map[string]any{
			"reset_at": rl.ResetAt,
		}))
		return errors.Newf(errors.CodeRateLimited, "rate limit exceeded for %s", tc.Identifier()).
			WithContext("reset_at", rl.ResetAt)
	}

	limits := a.policy.GetMessageLimits(tc.Role)
	if utf8.RuneCountInString(req.Message) > limits.MaxLength {
		a.metrics.RecordBlock(ctx, "message_length")
		return errors.Newf(errors.CodeInvalidInput, "message exceeds the %d character limit for role %q", limits.MaxLength, tc.Role)
	}

	if !a.policy.HasPermission(tc.Role, policy.PermAgentUse) {
		a.metrics.RecordBlock(ctx, "permission")
		return errors.Newf(errors.CodePermissionDenied, "role %q may not use the assistant", tc.Role)
	}

	safety := a.policy.CheckSafety(a.policy.SanitizeInput(req.Message))
	if !safety.Allowed {
		a.metrics.RecordBlock(ctx, "safety")
		a.emitter.Emit(ctx, core.NewEvent(core.EventSafetyBlocked, tc.RequestID, tc.SessionID, map[string]any{
			"categories": safety.FlaggedCategories,
		}))
		return errors.Newf(errors.CodeSafetyBlocked, "input flagged: %v", safety.FlaggedCategories).
			WithContext("categories", safety.FlaggedCategories)
	}
	return nil
}

// classify routes clearly off-topic input to clarification instead of
// the tutoring pipeline.
func (a *Agent) classify(sanitized string) intent.Result {
	detected := a.classifier.DetectIntent(sanitized)
	if detected.Intent == intent.IntentGeneralEducation && !a.policy.IsEducationallyRelevant(sanitized) {
		return intent.Result{Intent: intent.IntentUnknown}
	}
	return detected
}

func (a *Agent) buildParams(req Request, sanitized string, route intent.Route) map[string]any {
	params := map[string]any{
		"message": sanitized,
	}
	if route.RequiresImages {
		params["images"] = req.Images
	}
	if route.CapabilityName == "search_courses" {
		params["query"] = sanitized
	}
	if route.FallbackMessage != "" {
		params["fallback"] = route.FallbackMessage
	}
	return params
}

func (a *Agent) remember(ctx context.Context, tc *core.ToolContext, message string, output any) {
	if a.history == nil {
		return
	}
	_ = a.history.Append(ctx, memory.Turn{SessionID: tc.SessionID, Role: "user", Content: message})
	if text, ok := output.(string); ok {
		_ = a.history.Append(ctx, memory.Turn{SessionID: tc.SessionID, Role: "assistant", Content: text})
	}
}

func (a *Agent) success(tc *core.ToolContext, in intent.Intent, planID string, data any, cached bool) *Response {
	return &Response{
		OK:        true,
		Data:      data,
		RequestID: tc.RequestID,
		Intent:    in,
		PlanID:    planID,
		Cached:    cached,
	}
}

func (a *Agent) failure(tc *core.ToolContext, in intent.Intent, planID string, err error) *Response {
	return &Response{
		OK:        false,
		ErrorCode: errors.CodeOf(err),
		Error:     errors.UserMessageFor(err, errors.Locale(tc.Locale)),
		RequestID: tc.RequestID,
		Intent:    in,
		PlanID:    planID,
	}
}

func splitForStream(text string) []string {
	const size = 64
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}
