package entities

// UserRole defines user roles carried in access tokens
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleRecruiter UserRole = "recruiter"
	RoleCandidate UserRole = "candidate"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleRecruiter, RoleCandidate:
		return true
	}
	return false
}

// CanAccessAllCalls reports whether the role bypasses call ownership checks
func (r UserRole) CanAccessAllCalls() bool {
	return r == RoleAdmin
}
