package auth

type Role string

const (
	RoleSeeker     Role = "SEEKER"
	RoleProvider   Role = "PROVIDER"
	RoleEmployee   Role = "EMPLOYEE"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSeeker, RoleProvider, RoleEmployee, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports roles allowed to drive booking transitions on behalf of
// either party and to resolve disputes.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsStaff reports roles that may read and post in any booking chat.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleManager || r.IsAdmin()
}

// Actor is the authenticated caller of a domain operation.
type Actor struct {
	UserID int
	Role   Role
}
