package models

// Role is the capability level supplied by the external auth layer.
// The core never authenticates credentials; it only checks capability.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Actor identifies who is performing a mutating operation
type Actor struct {
	Name string
	Role Role
}

// IsAdmin reports whether the actor holds admin capability or above
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

// IsSuperAdmin reports whether the actor holds super-admin capability
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}
