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
	"github.com/feeledger/feeledger/internal/ledger"
)

// ProfileService changes the settings of the signed-in account.
type ProfileService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	ChangeUsername(ctx context.Context, id uuid.UUID, currentPassword, newUsername string) error
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error
	ChangeSchoolName(ctx context.Context, id uuid.UUID, schoolName string) error
}

// TransactionClearer removes every payment and expense of a tenant.
type TransactionClearer interface {
	ClearAll(ctx context.Context, scope access.Scope) (ledger.Cleared, error)
}

type profileResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	SchoolName string `json:"schoolName"`
}

// ProfileHandler handles the profile page of any signed-in account.
type ProfileHandler struct {
	accounts ProfileService
	ledger   TransactionClearer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(accounts ProfileService, ledger TransactionClearer) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, ledger: ledger}
}

// Get handles GET /profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetRequest(r.Context())

	a, err := h.accounts.GetByID(r.Context(), req.AccountID())
	if err != nil {
		h.writeErr(w, r, "failed to load profile", err)
		return
	}

	response.Success(w, http.StatusOK, profileResponse{
		ID:         a.ID.String(),
		Username:   a.Username,
		Role:       string(a.Role),
		SchoolName: a.SchoolName,
	}, middleware.GetRequestID(r.Context()))
}

// ChangeUsername handles PUT /profile/username. The new name shows in the
// session banner after the next login.
func (h *ProfileHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	var body validation.ChangeUsernameRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	req := middleware.GetRequest(r.Context())
	if err := h.accounts.ChangeUsername(r.Context(), req.AccountID(), body.CurrentPassword, body.NewUsername); err != nil {
		h.writeErr(w, r, "failed to change username", err)
		return
	}
	response.NoContent(w)
}

// ChangePassword handles PUT /profile/password.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body validation.ChangePasswordRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	req := middleware.GetRequest(r.Context())
	if err := h.accounts.ChangePassword(r.Context(), req.AccountID(), body.CurrentPassword, body.NewPassword); err != nil {
		h.writeErr(w, r, "failed to change password", err)
		return
	}
	response.NoContent(w)
}

// ChangeSchoolName handles PUT /profile/school-name. Owners only.
func (h *ProfileHandler) ChangeSchoolName(w http.ResponseWriter, r *http.Request) {
	var body validation.ChangeSchoolNameRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	req := middleware.GetRequest(r.Context())
	if err := h.accounts.ChangeSchoolName(r.Context(), req.AccountID(), body.SchoolName); err != nil {
		h.writeErr(w, r, "failed to change school name", err)
		return
	}
	response.NoContent(w)
}

type clearedResponse struct {
	PaymentsDeleted int64 `json:"paymentsDeleted"`
	ExpensesDeleted int64 `json:"expensesDeleted"`
}

// ClearTransactions handles POST /profile/clear-transactions. Owners only.
func (h *ProfileHandler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	cleared, err := h.ledger.ClearAll(r.Context(), scope)
	if err != nil {
		internalError(w, r, "failed to clear transactions", err)
		return
	}

	response.Success(w, http.StatusOK, clearedResponse{
		PaymentsDeleted: cleared.Payments,
		ExpensesDeleted: cleared.Expenses,
	}, middleware.GetRequestID(r.Context()))
}

func (h *ProfileHandler) writeErr(w http.ResponseWriter, r *http.Request, msg string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, account.ErrWrongPassword):
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "currentPassword", Message: "current password is incorrect"}}, requestID)
	case errors.Is(err, account.ErrDuplicateUsername):
		response.Err(w, http.StatusConflict, "DUPLICATE_USERNAME", "That username is already taken", requestID)
	case errors.Is(err, account.ErrWeakPassword), errors.Is(err, account.ErrInvalidInput):
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
	case errors.Is(err, account.ErrNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Account not found", requestID)
	default:
		internalError(w, r, msg, err)
	}
}
