package auth

// Role represents a dashboard role.
type Role string

const (
	RoleOperator  Role = "operator"
	RoleManager   Role = "manager"
	RoleExecutive Role = "executive"
)

// Roles lists every role from least to most privileged.
var Roles = []Role{RoleOperator, RoleManager, RoleExecutive}

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleOperator, RoleManager, RoleExecutive:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleOperator:
		return 1
	case RoleManager:
		return 2
	case RoleExecutive:
		return 3
	default:
		return 0
	}
}
