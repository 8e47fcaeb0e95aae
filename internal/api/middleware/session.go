package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/session"
)

const accessKey contextKey = "access"

// SessionResolver looks up the snapshot behind a session token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*access.Snapshot, error)
	Terminate(ctx context.Context, token string, reason error) error
}

// TokenJar reads and clears the session token carried by the browser.
type TokenJar interface {
	Token(r *http.Request) string
	Clear(w http.ResponseWriter, r *http.Request) error
}

// Session is middleware that resolves the session cookie into an
// access.Request stored in the context. It never rejects a request itself:
// missing, expired and unreadable sessions leave the request anonymous and
// the guards decide. Corrupt sessions are terminated and the cookie cleared.
func Session(sessions SessionResolver, jar TokenJar) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := jar.Token(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			snap, err := sessions.Resolve(r.Context(), token)
			var req *access.Request
			if err == nil {
				req, err = access.Authenticate(snap)
			}

			switch {
			case err == nil:
				ctx := context.WithValue(r.Context(), accessKey, req)
				r = r.WithContext(ctx)
			case errors.Is(err, access.ErrCorruptSession):
				if terr := sessions.Terminate(r.Context(), token, err); terr != nil {
					slog.Error("failed to terminate session", "error", terr, "requestId", GetRequestID(r.Context()))
				}
				if cerr := jar.Clear(w, r); cerr != nil {
					slog.Error("failed to clear session cookie", "error", cerr)
				}
			case errors.Is(err, session.ErrNotFound), errors.Is(err, access.ErrUnauthenticated):
			default:
				// Storage failures are treated as no session.
				slog.Error("failed to resolve session", "error", err, "requestId", GetRequestID(r.Context()))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetRequest retrieves the authorization context of the request. It is nil
// for anonymous requests.
func GetRequest(ctx context.Context) *access.Request {
	if req, ok := ctx.Value(accessKey).(*access.Request); ok {
		return req
	}
	return nil
}

// WithRequest returns a context carrying req. Handler tests use it to skip
// the session lookup.
func WithRequest(ctx context.Context, req *access.Request) context.Context {
	return context.WithValue(ctx, accessKey, req)
}
