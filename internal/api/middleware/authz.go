package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/api/response"
)

// Navigation targets sent with denials.
const (
	LoginPath     = "/login"
	LicensePath   = "/license"
	DashboardPath = "/dashboard"
)

type denial struct {
	Redirect string `json:"redirect"`
}

// Deny writes the response for a failed guard. Each outcome names where the
// client should go next, in the Location header and in error.details.
func Deny(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	status, code, message, target := http.StatusForbidden, "FORBIDDEN", "You do not have permission to access this page", DashboardPath
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		status, code, message, target = http.StatusUnauthorized, "UNAUTHENTICATED", "Please log in to continue", LoginPath
	case errors.Is(err, access.ErrUnlicensed):
		status, code, message, target = http.StatusPaymentRequired, "UNLICENSED", "Your license or trial has expired", LicensePath
	case errors.Is(err, access.ErrForbidden):
	case errors.Is(err, access.ErrUnknownPermission):
		slog.Error("guard used an unknown permission", "error", err, "path", r.URL.Path, "requestId", requestID)
	default:
		slog.Error("unexpected guard error", "error", err, "path", r.URL.Path, "requestId", requestID)
	}

	w.Header().Set("Location", target)
	response.ErrWithDetails(w, status, code, message, denial{Redirect: target}, requestID)
}

func guard(check func(req *access.Request) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := check(GetRequest(r.Context())); err != nil {
				Deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return guard(func(req *access.Request) error {
		if req == nil {
			return access.ErrUnauthenticated
		}
		return nil
	})
}

// RequireEntitled rejects owners and teachers without a license or trial.
func RequireEntitled() func(http.Handler) http.Handler {
	return guard(access.RequireEntitled)
}

// RequireRole rejects principals of any other role.
func RequireRole(role access.Role) func(http.Handler) http.Handler {
	return guard(func(req *access.Request) error {
		return access.RequireRole(req, role)
	})
}

// RequirePermission rejects principals that do not hold perm.
func RequirePermission(perm access.Permission) func(http.Handler) http.Handler {
	return guard(func(req *access.Request) error {
		return access.RequirePermission(req, perm)
	})
}

// RequireAnyPermission passes when the principal holds at least one of perms.
func RequireAnyPermission(perms ...access.Permission) func(http.Handler) http.Handler {
	return guard(func(req *access.Request) error {
		if err := access.RequireEntitled(req); err != nil {
			return err
		}
		for _, p := range perms {
			if access.HasPermission(req, p) {
				return nil
			}
		}
		return access.ErrForbidden
	})
}
