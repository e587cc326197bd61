package models

// Workspace roles, ordered by rank.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

var roleRanks = map[string]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleMember: 2,
	RoleViewer: 1,
}

// RoleRank returns the rank of a workspace role. Unknown roles rank 0 so that
// permission checks fail closed instead of erroring.
func RoleRank(role string) int {
	return roleRanks[role]
}

// RoleAtLeast reports whether the effective role grants at least the required
// role.
func RoleAtLeast(effective, required string) bool {
	return RoleRank(effective) >= RoleRank(required)
}

// ValidRole reports whether role is one of the four workspace roles.
func ValidRole(role string) bool {
	_, ok := roleRanks[role]
	return ok
}
