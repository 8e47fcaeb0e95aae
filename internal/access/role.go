package access

import "fmt"

// Role is the stored role of an account.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleTeacher    Role = "teacher"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole converts stored role text into a Role. Unknown values are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleTeacher, RoleSuperAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }
