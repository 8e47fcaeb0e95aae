package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/account"
	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/api/validation"
)

// TeacherService manages the teacher accounts of a tenant.
type TeacherService interface {
	CreateTeacher(ctx context.Context, scope access.Scope, username, password string, perms access.PermissionSet) (*account.Account, error)
	ListTeachers(ctx context.Context, scope access.Scope) ([]account.Account, error)
	UpdateTeacherPermissions(ctx context.Context, scope access.Scope, id uuid.UUID, perms access.PermissionSet) error
	DeleteTeacher(ctx context.Context, scope access.Scope, id uuid.UUID) error
}

type teacherResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
	CreatedAt   string   `json:"createdAt"`
}

func toTeacherResponse(a *account.Account) teacherResponse {
	return teacherResponse{
		ID:          a.ID.String(),
		Username:    a.Username,
		Permissions: a.Permissions.Keys(),
		CreatedAt:   formatTimestamp(a.CreatedAt),
	}
}

// TeacherHandler handles the owner's teacher management endpoints.
type TeacherHandler struct {
	teachers TeacherService
}

// NewTeacherHandler creates a new TeacherHandler.
func NewTeacherHandler(teachers TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// Create handles POST /teachers.
func (h *TeacherHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	var req validation.CreateTeacherRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	perms, err := access.ParsePermissionSet(req.Permissions)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
		return
	}

	a, err := h.teachers.CreateTeacher(r.Context(), scope, req.Username, req.Password, perms)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrDuplicateUsername):
			response.Err(w, http.StatusConflict, "DUPLICATE_USERNAME", "That username is already taken", requestID)
		case errors.Is(err, account.ErrWeakPassword), errors.Is(err, account.ErrInvalidInput):
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
		default:
			internalError(w, r, "failed to create teacher", err)
		}
		return
	}

	response.Success(w, http.StatusCreated, toTeacherResponse(a), requestID)
}

// List handles GET /teachers.
func (h *TeacherHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	teachers, err := h.teachers.ListTeachers(r.Context(), scope)
	if err != nil {
		internalError(w, r, "failed to list teachers", err)
		return
	}

	items := make([]teacherResponse, 0, len(teachers))
	for i := range teachers {
		items = append(items, toTeacherResponse(&teachers[i]))
	}
	response.SuccessList(w, http.StatusOK, items, len(items), middleware.GetRequestID(r.Context()))
}

// UpdatePermissions handles PUT /teachers/{id}/permissions. The teacher sees
// the new flags after their next login.
func (h *TeacherHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req validation.UpdatePermissionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	perms, err := access.ParsePermissionSet(req.Permissions)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
		return
	}

	if err := h.teachers.UpdateTeacherPermissions(r.Context(), scope, id, perms); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Teacher not found", requestID)
			return
		}
		internalError(w, r, "failed to update teacher permissions", err, "id", id)
		return
	}

	response.Success(w, http.StatusOK, map[string][]string{"permissions": perms.Keys()}, requestID)
}

// Delete handles DELETE /teachers/{id}. The teacher's sessions go with the account.
func (h *TeacherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.teachers.DeleteTeacher(r.Context(), scope, id); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Teacher not found", middleware.GetRequestID(r.Context()))
			return
		}
		internalError(w, r, "failed to delete teacher", err, "id", id)
		return
	}

	response.NoContent(w)
}
