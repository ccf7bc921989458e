package models

import "time"

// MemberRole is a user's role inside a single project.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	return r == MemberRoleAdmin || r == MemberRoleMember
}

// ParseMemberRole converts a string to MemberRole. Unknown values map to
// MemberRoleMember.
func ParseMemberRole(s string) MemberRole {
	if s == string(MemberRoleAdmin) {
		return MemberRoleAdmin
	}
	return MemberRoleMember
}

// ProjectMember represents a user's membership in a project, joined with the
// user's public fields.
type ProjectMember struct {
	ProjectID   string     `json:"project_id"`
	UserID      string     `json:"user_id"`
	Role        MemberRole `json:"role"`
	JoinedAt    time.Time  `json:"joined_at"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
}
