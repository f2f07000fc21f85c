package enums

import "fmt"

// UserRole is the operator role carried in access tokens.
type UserRole string

const (
	UserRoleAdmin      UserRole = "administrador"
	UserRoleSupervisor UserRole = "supervisor"
	UserRoleSeller     UserRole = "vendedor"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleSupervisor,
	UserRoleSeller,
}

func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
