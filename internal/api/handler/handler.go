// Package handler implements the HTTP endpoints of the API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/api/validation"
	"github.com/feeledger/feeledger/internal/licensing"
)

const (
	maxBodyBytes    = 1 << 20
	timestampLayout = "2006-01-02T15:04:05Z"
)

// decodeAndValidate reads a JSON body into dst and validates it. It writes the
// error response and returns false on failure. An empty body decodes as {}.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return false
	}

	if fieldErrors := validation.Struct(dst); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return false
	}
	return true
}

// urlID parses the {name} URL parameter as a UUID, writing a 400 on failure.
func urlID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", name+" must be a valid UUID", middleware.GetRequestID(r.Context()))
		return uuid.Nil, false
	}
	return id, true
}

// tenant returns the data-owner scope of the request. Routes that reach tenant
// data are guarded, so a missing scope means a super admin on a tenant page.
func tenant(w http.ResponseWriter, r *http.Request) (access.Scope, bool) {
	scope, ok := access.ResolveScope(middleware.GetRequest(r.Context()))
	if !ok {
		response.Err(w, http.StatusBadRequest, "NO_SCHOOL", "This page belongs to a school account", middleware.GetRequestID(r.Context()))
		return access.Scope{}, false
	}
	return scope, true
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	requestID := middleware.GetRequestID(r.Context())
	slog.Error(msg, append([]any{"error", err, "requestId", requestID}, attrs...)...)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
}

func formatDate(t time.Time) string {
	return t.Format(licensing.DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseDate reads a date already checked by validation.
func parseDate(raw string) time.Time {
	t, _ := licensing.ParseDate(raw)
	return t
}
