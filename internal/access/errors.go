package access

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when there is no valid session.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrCorruptSession is returned when a session exists but its cached facts are
// structurally invalid. It matches ErrUnauthenticated; the session must be terminated.
var ErrCorruptSession = fmt.Errorf("%w: session data is missing or invalid", ErrUnauthenticated)

// ErrUnlicensed is returned when an owner or teacher is neither licensed nor trialing.
var ErrUnlicensed = errors.New("account is not licensed")

// ErrForbidden is returned when the role or permission does not allow the action.
var ErrForbidden = errors.New("access denied")

// ErrUnknownPermission is returned for permission keys outside the closed set.
var ErrUnknownPermission = errors.New("unknown permission")

// ErrUnknownRole is returned for role values outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// ErrNoScope is returned by tenant repositories when called without an owner scope.
var ErrNoScope = errors.New("tenant scope is required")
