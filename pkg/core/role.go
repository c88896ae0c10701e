package core

// Role identifies the caller's tier. The chain is a strict superset:
// every permission a role holds is held by the roles above it.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// roleRank orders roles for tier comparison. Unknown roles rank below guest.
var roleRank = map[Role]int{
	RoleGuest:      1,
	RoleStudent:    2,
	RoleInstructor: 3,
	RoleAdmin:      4,
}

// Known reports whether r is one of the defined roles.
func (r Role) Known() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r sits at or above other in the tier chain.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}
