package auth

import "slices"

// Role is a platform-wide permission role carried in the caller's token.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// Actor is the resolved identity of the caller of a lifecycle operation.
type Actor struct {
	ID    string
	Roles []Role
}

// HasRole reports whether the actor carries the given role.
func (a Actor) HasRole(role Role) bool {
	return slices.Contains(a.Roles, role)
}

// IsAdmin reports whether the actor is a platform administrator.
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// ParseRoles converts raw role claims into known roles, dropping unknown ones.
func ParseRoles(raw []string) []Role {
	roles := make([]Role, 0, len(raw))
	for _, r := range raw {
		switch role := Role(r); role {
		case RoleAdmin, RoleModerator, RoleMember:
			roles = append(roles, role)
		}
	}
	return roles
}
