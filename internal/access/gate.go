package access

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot holds the authorization facts cached in a session at login time.
// Role is kept as stored text so that a damaged row can be detected.
type Snapshot struct {
	AccountID           uuid.UUID
	Username            string
	Role                string
	OwnerID             *uuid.UUID
	Entitlement         Entitlement
	Permissions         PermissionSet
	NextLicenseSequence int
	CreatedAt           time.Time
}

// Request is the per-request authorization context. It is built once by
// Authenticate and passed down explicitly; nothing mutates it afterwards.
type Request struct {
	Principal           Principal
	Username            string
	Entitlement         Entitlement
	NextLicenseSequence int
}

// Role returns the role of the request's principal.
func (r *Request) Role() Role { return r.Principal.Role() }

// AccountID returns the id of the authenticated account.
func (r *Request) AccountID() uuid.UUID { return r.Principal.AccountID() }

// Authenticate validates a session snapshot and builds the request context.
// A nil snapshot yields ErrUnauthenticated; a snapshot with a missing role, an
// unknown role or a teacher without owner linkage yields ErrCorruptSession.
func Authenticate(snap *Snapshot) (*Request, error) {
	if snap == nil {
		return nil, ErrUnauthenticated
	}
	if snap.AccountID == uuid.Nil || snap.Role == "" {
		return nil, ErrCorruptSession
	}
	role, err := ParseRole(snap.Role)
	if err != nil {
		return nil, ErrCorruptSession
	}

	var p Principal
	switch role {
	case RoleOwner:
		p = Owner{ID: snap.AccountID}
	case RoleTeacher:
		if snap.OwnerID == nil || *snap.OwnerID == uuid.Nil {
			return nil, ErrCorruptSession
		}
		p = Teacher{ID: snap.AccountID, OwnerID: *snap.OwnerID, Permissions: snap.Permissions}
	case RoleSuperAdmin:
		p = SuperAdmin{ID: snap.AccountID}
	}

	return &Request{
		Principal:           p,
		Username:            snap.Username,
		Entitlement:         snap.Entitlement,
		NextLicenseSequence: snap.NextLicenseSequence,
	}, nil
}

// RequireEntitled fails with ErrUnlicensed when an owner or teacher has
// neither a valid license nor an active trial. Super admins always pass.
func RequireEntitled(req *Request) error {
	if req == nil || req.Principal == nil {
		return ErrUnauthenticated
	}
	if _, ok := req.Principal.(SuperAdmin); ok {
		return nil
	}
	if !req.Entitlement.Entitled() {
		return ErrUnlicensed
	}
	return nil
}

// RequireRole fails with ErrForbidden unless the principal has the given role.
// Checking for super_admin needs only authentication; every other role check
// first requires entitlement.
func RequireRole(req *Request, role Role) error {
	if req == nil || req.Principal == nil {
		return ErrUnauthenticated
	}
	if role != RoleSuperAdmin {
		if err := RequireEntitled(req); err != nil {
			return err
		}
	}
	if req.Principal.Role() != role {
		return ErrForbidden
	}
	return nil
}

// HasPermission resolves a permission for the principal. Owners and super
// admins hold every permission; teachers hold exactly what was delegated.
func HasPermission(req *Request, perm Permission) bool {
	if req == nil {
		return false
	}
	switch p := req.Principal.(type) {
	case SuperAdmin:
		return true
	case Owner:
		return true
	case Teacher:
		return p.Permissions.Has(perm)
	default:
		return false
	}
}

// RequirePermission requires entitlement and then the given permission.
func RequirePermission(req *Request, perm Permission) error {
	if err := RequireEntitled(req); err != nil {
		return err
	}
	if !HasPermission(req, perm) {
		return ErrForbidden
	}
	return nil
}

// RequirePermissionKey is RequirePermission for a stored key. Unknown keys
// return ErrUnknownPermission.
func RequirePermissionKey(req *Request, key string) error {
	perm, err := ParsePermission(key)
	if err != nil {
		return err
	}
	return RequirePermission(req, perm)
}
