// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"github.com/maarifa/agentcore/pkg/core"
)

// Engine bundles the stateless policy rules with the one piece of state
// they need: the rate-limit windows. One Engine is constructed at boot
// and shared by every request worker.
type Engine struct {
	limiter *RateLimiter
}

// NewEngine creates a policy engine with the given rate-limit config.
func NewEngine(cfg RateLimitConfig) *Engine {
	return &Engine{limiter: NewRateLimiter(cfg)}
}

// CheckRateLimit records one attempt for (identifier, action).
func (e *Engine) CheckRateLimit(identifier, action string, authenticated bool) RateLimitResult {
	return e.limiter.Check(identifier, action, authenticated)
}

// CheckSafety screens text against every safety category.
func (e *Engine) CheckSafety(text string) SafetyResult {
	return CheckSafety(text)
}

// SanitizeInput strips injection tokens and truncates.
func (e *Engine) SanitizeInput(text string) string {
	return SanitizeInput(text)
}

// HasPermission reports whether role holds perm.
func (e *Engine) HasPermission(role core.Role, perm Permission) bool {
	return HasPermission(role, perm)
}

// CheckPermissions verifies role holds every permission in perms.
func (e *Engine) CheckPermissions(role core.Role, perms []Permission) PermissionCheck {
	return CheckPermissions(role, perms)
}

// CanUseTool reports whether role may invoke a tool gated by requiredRoles.
func (e *Engine) CanUseTool(role core.Role, requiredRoles []core.Role) bool {
	return CanUseTool(role, requiredRoles)
}

// GetMessageLimits returns the message limits for role.
func (e *Engine) GetMessageLimits(role core.Role) MessageLimits {
	return GetMessageLimits(role)
}

// IsEducationallyRelevant gates routing into the domain pipeline.
func (e *Engine) IsEducationallyRelevant(text string) bool {
	return IsEducationallyRelevant(text)
}
