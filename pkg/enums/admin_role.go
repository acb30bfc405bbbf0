package enums

import "fmt"

// AdminRole represents a church-level permissions role.
type AdminRole string

const (
	AdminRoleOwner AdminRole = "owner"
	AdminRoleAdmin AdminRole = "admin"
	AdminRoleStaff AdminRole = "staff"
	// AdminRoleSuper is the platform-operator role; it is never stored on a
	// church_users row, only on super_admins and in token claims.
	AdminRoleSuper AdminRole = "super_admin"
)

var validAdminRoles = []AdminRole{
	AdminRoleOwner,
	AdminRoleAdmin,
	AdminRoleStaff,
	AdminRoleSuper,
}

// String implements fmt.Stringer.
func (r AdminRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known AdminRole.
func (r AdminRole) IsValid() bool {
	for _, candidate := range validAdminRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAdminRole converts raw input into an AdminRole.
func ParseAdminRole(value string) (AdminRole, error) {
	for _, candidate := range validAdminRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin role %q", value)
}
