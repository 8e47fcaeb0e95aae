package access

import (
	"fmt"
	"strings"
)

// Permission is one delegable feature area a teacher may be granted by the owner.
type Permission uint8

const (
	PermViewDashboard Permission = iota
	PermViewClasses
	PermViewPayments
	PermRecordPayments
	PermViewExpenses
	PermRecordAttendance

	numPermissions
)

var permissionKeys = [numPermissions]string{
	PermViewDashboard:    "can_view_dashboard",
	PermViewClasses:      "can_view_classes",
	PermViewPayments:     "can_view_payments",
	PermRecordPayments:   "can_record_payments",
	PermViewExpenses:     "can_view_expenses",
	PermRecordAttendance: "can_record_attendance",
}

// AllPermissions lists every permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, 0, numPermissions)
	for p := Permission(0); p < numPermissions; p++ {
		out = append(out, p)
	}
	return out
}

// Key returns the stored key of the permission, e.g. "can_view_classes".
func (p Permission) Key() string {
	if p >= numPermissions {
		return fmt.Sprintf("permission(%d)", uint8(p))
	}
	return permissionKeys[p]
}

func (p Permission) String() string { return p.Key() }

// ParsePermission resolves a permission key. Unknown keys are an error rather
// than a silent false.
func ParsePermission(key string) (Permission, error) {
	key = strings.TrimSpace(key)
	for i, k := range permissionKeys {
		if k == key {
			return Permission(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPermission, key)
}

// PermissionSet is an immutable set of granted permissions.
type PermissionSet uint16

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s = s.With(p)
	}
	return s
}

// ParsePermissionSet builds a set from stored keys, failing on any unknown key.
func ParsePermissionSet(keys []string) (PermissionSet, error) {
	var s PermissionSet
	for _, k := range keys {
		p, err := ParsePermission(k)
		if err != nil {
			return 0, err
		}
		s = s.With(p)
	}
	return s, nil
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	return p < numPermissions && s&(1<<p) != 0
}

// With returns a copy of the set with p added.
func (s PermissionSet) With(p Permission) PermissionSet {
	if p >= numPermissions {
		return s
	}
	return s | 1<<p
}

// Without returns a copy of the set with p removed.
func (s PermissionSet) Without(p Permission) PermissionSet {
	if p >= numPermissions {
		return s
	}
	return s &^ (1 << p)
}

// Keys returns the stored keys of the granted permissions in declaration order.
func (s PermissionSet) Keys() []string {
	keys := []string{}
	for _, p := range AllPermissions() {
		if s.Has(p) {
			keys = append(keys, p.Key())
		}
	}
	return keys
}

// Flags returns every permission key mapped to whether it is granted.
func (s PermissionSet) Flags() map[string]bool {
	flags := make(map[string]bool, numPermissions)
	for _, p := range AllPermissions() {
		flags[p.Key()] = s.Has(p)
	}
	return flags
}
