package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/account"
	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/api/validation"
	"github.com/feeledger/feeledger/internal/licensing"
)

// AccountAdmin lists owners and deletes users on behalf of a super admin.
type AccountAdmin interface {
	ListOwners(ctx context.Context) ([]account.Account, error)
	DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error
}

// LicenseAdmin manages licenses, trials and licensing settings.
type LicenseAdmin interface {
	Today() time.Time
	Settings(ctx context.Context) (*licensing.Settings, error)
	UpdateSettings(ctx context.Context, defaultTrialDays, licenseValidityDays int) error
	IssueLicense(ctx context.Context, ownerID uuid.UUID, validityDays int) (*licensing.Grant, error)
	UpdateTrial(ctx context.Context, ownerID uuid.UUID, durationDays int) error
}

type ownerResponse struct {
	ID                string              `json:"id"`
	Username          string              `json:"username"`
	SchoolName        string              `json:"schoolName"`
	LicenseKey        *string             `json:"licenseKey"`
	TrialStartDate    *string             `json:"trialStartDate"`
	TrialDurationDays int                 `json:"trialDurationDays"`
	Entitled          bool                `json:"entitled"`
	Entitlement       entitlementResponse `json:"entitlement"`
	CreatedAt         string              `json:"createdAt"`
}

type settingsResponse struct {
	DefaultTrialDays    int `json:"defaultTrialDays"`
	LicenseValidityDays int `json:"licenseValidityDays"`
}

type grantResponse struct {
	OwnerID           string `json:"ownerId"`
	Username          string `json:"username"`
	LicenseKey        string `json:"licenseKey"`
	LicenseExpiryDate string `json:"licenseExpiryDate"`
}

// AdminHandler serves the super admin console.
type AdminHandler struct {
	accounts AccountAdmin
	licenses LicenseAdmin
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accounts AccountAdmin, licenses LicenseAdmin) *AdminHandler {
	return &AdminHandler{accounts: accounts, licenses: licenses}
}

// ListOwners handles GET /admin/owners. Entitlement is evaluated as of today.
func (h *AdminHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.accounts.ListOwners(r.Context())
	if err != nil {
		internalError(w, r, "failed to list owners", err)
		return
	}

	today := h.licenses.Today()
	items := make([]ownerResponse, 0, len(owners))
	for i := range owners {
		o := &owners[i]
		ent := licensing.Evaluate(o.Terms(), today)
		items = append(items, ownerResponse{
			ID:                o.ID.String(),
			Username:          o.Username,
			SchoolName:        o.SchoolName,
			LicenseKey:        o.LicenseKey,
			TrialStartDate:    formatDatePtr(o.TrialStart),
			TrialDurationDays: o.TrialDurationDays,
			Entitled:          ent.Entitled(),
			Entitlement:       toEntitlementResponse(ent),
			CreatedAt:         formatTimestamp(o.CreatedAt),
		})
	}
	response.SuccessList(w, http.StatusOK, items, len(items), middleware.GetRequestID(r.Context()))
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.licenses.Settings(r.Context())
	if err != nil {
		internalError(w, r, "failed to load settings", err)
		return
	}
	response.Success(w, http.StatusOK, settingsResponse{
		DefaultTrialDays:    s.DefaultTrialDays,
		LicenseValidityDays: s.LicenseValidityDays,
	}, middleware.GetRequestID(r.Context()))
}

// UpdateSettings handles PUT /admin/settings.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req validation.UpdateSettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.licenses.UpdateSettings(r.Context(), *req.DefaultTrialDays, *req.LicenseValidityDays); err != nil {
		h.writeErr(w, r, "failed to update settings", err)
		return
	}

	response.Success(w, http.StatusOK, settingsResponse{
		DefaultTrialDays:    *req.DefaultTrialDays,
		LicenseValidityDays: *req.LicenseValidityDays,
	}, middleware.GetRequestID(r.Context()))
}

// IssueLicense handles POST /admin/owners/{id}/license.
func (h *AdminHandler) IssueLicense(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req validation.IssueLicenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	g, err := h.licenses.IssueLicense(r.Context(), id, req.ValidityDays)
	if err != nil {
		h.writeErr(w, r, "failed to issue license", err, "ownerId", id)
		return
	}

	response.Success(w, http.StatusCreated, grantResponse{
		OwnerID:           g.OwnerID.String(),
		Username:          g.Username,
		LicenseKey:        g.Key,
		LicenseExpiryDate: formatDate(g.Expiry),
	}, middleware.GetRequestID(r.Context()))
}

// UpdateTrial handles PUT /admin/owners/{id}/trial.
func (h *AdminHandler) UpdateTrial(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req validation.UpdateTrialRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.licenses.UpdateTrial(r.Context(), id, *req.Days); err != nil {
		h.writeErr(w, r, "failed to update trial", err, "ownerId", id)
		return
	}
	response.NoContent(w)
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.GetRequest(r.Context()).AccountID()
	if err := h.accounts.DeleteUser(r.Context(), actor, id); err != nil {
		h.writeErr(w, r, "failed to delete user", err, "id", id)
		return
	}
	response.NoContent(w)
}

func (h *AdminHandler) writeErr(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, licensing.ErrOwnerNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Owner not found", requestID)
	case errors.Is(err, account.ErrNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
	case errors.Is(err, licensing.ErrInvalidDays):
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
	case errors.Is(err, account.ErrSelfDelete):
		response.Err(w, http.StatusBadRequest, "SELF_DELETE", "You cannot delete your own account", requestID)
	default:
		internalError(w, r, msg, err, attrs...)
	}
}
