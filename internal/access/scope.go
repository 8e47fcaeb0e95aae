package access

import "github.com/google/uuid"

// Scope identifies the tenant whose rows a query may touch. Every repository
// method on tenant-owned tables takes a Scope and filters by it.
type Scope struct {
	ownerID uuid.UUID
}

// ScopeOf returns the scope of the given owner account. Request handlers use
// ResolveScope; ScopeOf is for explicit cross-tenant work by super admins.
func ScopeOf(ownerID uuid.UUID) Scope {
	return Scope{ownerID: ownerID}
}

// OwnerID returns the tenant's owner account id.
func (s Scope) OwnerID() uuid.UUID { return s.ownerID }

// IsZero reports whether the scope is unset.
func (s Scope) IsZero() bool { return s.ownerID == uuid.Nil }

// Validate returns ErrNoScope for an unset scope.
func (s Scope) Validate() error {
	if s.IsZero() {
		return ErrNoScope
	}
	return nil
}

// ResolveScope returns the data-owner scope of a request: the owner's own id,
// or the teacher's owner id. Super admins have no scope.
func ResolveScope(req *Request) (Scope, bool) {
	if req == nil {
		return Scope{}, false
	}
	switch p := req.Principal.(type) {
	case Owner:
		return ScopeOf(p.ID), true
	case Teacher:
		return ScopeOf(p.OwnerID), true
	default:
		return Scope{}, false
	}
}
