// SPDX-License-Identifier: Apache-2.0

// Package policy provides the stateless access-control rules of the core:
// the role/permission matrix, rate limiting, input safety screening, and
// per-role message limits.
package policy

import "github.com/maarifa/agentcore/pkg/core"

// Permission is a hierarchical permission tier string.
type Permission string

const (
	PermAgentUse      Permission = "agent:use"
	PermToolsBasic    Permission = "agent:tools:basic"
	PermToolsAdvanced Permission = "agent:tools:advanced"
	PermToolsAdmin    Permission = "agent:tools:admin"
	PermMemoryRead    Permission = "agent:memory:read"
	PermMemoryWrite   Permission = "agent:memory:write"
	PermAuditRead     Permission = "agent:audit:read"
)

// rolePermissions is a strict superset chain: each role holds everything
// the roles below it hold. An undefined role has zero permissions.
var rolePermissions = map[core.Role][]Permission{
	core.RoleGuest: {
		PermAgentUse,
	},
	core.RoleStudent: {
		PermAgentUse,
		PermToolsBasic,
		PermMemoryRead,
		PermMemoryWrite,
	},
	core.RoleInstructor: {
		PermAgentUse,
		PermToolsBasic,
		PermToolsAdvanced,
		PermMemoryRead,
		PermMemoryWrite,
	},
	core.RoleAdmin: {
		PermAgentUse,
		PermToolsBasic,
		PermToolsAdvanced,
		PermToolsAdmin,
		PermMemoryRead,
		PermMemoryWrite,
		PermAuditRead,
	},
}

// Permissions returns the permission set for role. Unknown roles get none.
func Permissions(role core.Role) []Permission {
	perms := rolePermissions[role]
	return append([]Permission(nil), perms...)
}

// HasPermission reports whether role holds perm. An empty or unknown role
// holds nothing.
func HasPermission(role core.Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionCheck is the outcome of a multi-permission check.
type PermissionCheck struct {
	Allowed bool
	Missing []Permission
}

// CheckPermissions verifies role holds every permission in perms.
func CheckPermissions(role core.Role, perms []Permission) PermissionCheck {
	var missing []Permission
	for _, p := range perms {
		if !HasPermission(role, p) {
			missing = append(missing, p)
		}
	}
	return PermissionCheck{Allowed: len(missing) == 0, Missing: missing}
}

// CanUseTool reports whether role may invoke a tool gated by requiredRoles.
// An empty requiredRoles list admits any caller, guests included.
func CanUseTool(role core.Role, requiredRoles []core.Role) bool {
	if len(requiredRoles) == 0 {
		return true
	}
	for _, r := range requiredRoles {
		if r == role {
			return true
		}
	}
	return false
}

// MessageLimits bounds a caller's message size and visible history.
type MessageLimits struct {
	MaxLength  int
	MaxHistory int
}

// messageLimits is strictly increasing by role tier.
var messageLimits = map[core.Role]MessageLimits{
	core.RoleGuest:      {MaxLength: 500, MaxHistory: 5},
	core.RoleStudent:    {MaxLength: 2000, MaxHistory: 20},
	core.RoleInstructor: {MaxLength: 4000, MaxHistory: 50},
	core.RoleAdmin:      {MaxLength: 8000, MaxHistory: 100},
}

// GetMessageLimits returns the limits for role. Unknown roles get the
// guest limits.
func GetMessageLimits(role core.Role) MessageLimits {
	if limits, ok := messageLimits[role]; ok {
		return limits
	}
	return messageLimits[core.RoleGuest]
}
