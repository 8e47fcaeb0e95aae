package access

import "github.com/google/uuid"

// Principal is the authenticated actor of a request. It is one of Owner,
// Teacher or SuperAdmin; the set is closed by the unexported marker method.
type Principal interface {
	AccountID() uuid.UUID
	Role() Role
	principal()
}

// Owner runs a school and owns its tenant data.
type Owner struct {
	ID uuid.UUID
}

// Teacher works for an owner and holds the permissions the owner delegated.
type Teacher struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Permissions PermissionSet
}

// SuperAdmin administers licensing across tenants.
type SuperAdmin struct {
	ID uuid.UUID
}

func (o Owner) AccountID() uuid.UUID      { return o.ID }
func (t Teacher) AccountID() uuid.UUID    { return t.ID }
func (s SuperAdmin) AccountID() uuid.UUID { return s.ID }

func (Owner) Role() Role      { return RoleOwner }
func (Teacher) Role() Role    { return RoleTeacher }
func (SuperAdmin) Role() Role { return RoleSuperAdmin }

func (Owner) principal()      {}
func (Teacher) principal()    {}
func (SuperAdmin) principal() {}
