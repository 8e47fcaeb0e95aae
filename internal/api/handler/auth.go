package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/account"
	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/api/validation"
)

// Registrar creates owner accounts.
type Registrar interface {
	Register(ctx context.Context, username, password, schoolName string) (*account.Account, error)
}

// SessionManager opens and closes sessions.
type SessionManager interface {
	Login(ctx context.Context, username, password string) (string, *access.Snapshot, error)
	Logout(ctx context.Context, token string) error
}

// CookieJar carries the session token in the browser.
type CookieJar interface {
	Token(r *http.Request) string
	Save(w http.ResponseWriter, r *http.Request, token string) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

type entitlementResponse struct {
	IsLicensed        bool    `json:"isLicensed"`
	IsTrialing        bool    `json:"isTrialing"`
	LicenseExpiryDate *string `json:"licenseExpiryDate"`
	TrialEndDate      *string `json:"trialEndDate"`
}

type navItem struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

type meResponse struct {
	ID          string              `json:"id"`
	Username    string              `json:"username"`
	Role        string              `json:"role"`
	Entitled    bool                `json:"entitled"`
	Entitlement entitlementResponse `json:"entitlement"`
	Permissions []string            `json:"permissions"`
	Navigation  []navItem           `json:"navigation"`
}

func toEntitlementResponse(e access.Entitlement) entitlementResponse {
	return entitlementResponse{
		IsLicensed:        e.Licensed,
		IsTrialing:        e.Trialing,
		LicenseExpiryDate: formatDatePtr(e.LicenseExpiry),
		TrialEndDate:      formatDatePtr(e.TrialEnd),
	}
}

// navigation lists the areas the principal may open, in menu order.
func navigation(req *access.Request) []navItem {
	items := []navItem{}
	entitled := access.RequireEntitled(req) == nil
	if entitled {
		if access.HasPermission(req, access.PermViewDashboard) {
			items = append(items, navItem{"dashboard", "/dashboard"})
		}
		if access.HasPermission(req, access.PermViewClasses) {
			items = append(items, navItem{"classes", "/classes"})
		}
		if access.HasPermission(req, access.PermViewPayments) || access.HasPermission(req, access.PermRecordPayments) {
			items = append(items, navItem{"payments", "/payments"})
		}
		if access.HasPermission(req, access.PermViewExpenses) {
			items = append(items, navItem{"expenses", "/expenses"})
		}
		if access.HasPermission(req, access.PermViewDashboard) {
			items = append(items, navItem{"reports", "/reports"})
		}
	}
	switch req.Principal.(type) {
	case access.Owner:
		if entitled {
			items = append(items, navItem{"teachers", "/teachers"})
		}
	case access.SuperAdmin:
		items = append(items, navItem{"admin", "/admin"})
	}
	if !entitled {
		items = append(items, navItem{"license", "/license"})
	}
	return append(items, navItem{"profile", "/profile"})
}

// AuthHandler handles registration, login, logout and the current principal.
type AuthHandler struct {
	accounts Registrar
	sessions SessionManager
	jar      CookieJar
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts Registrar, sessions SessionManager, jar CookieJar) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, jar: jar}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req validation.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	a, err := h.accounts.Register(r.Context(), req.Username, req.Password, req.SchoolName)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrDuplicateUsername):
			response.Err(w, http.StatusConflict, "DUPLICATE_USERNAME", "That username is already taken", requestID)
		case errors.Is(err, account.ErrWeakPassword), errors.Is(err, account.ErrInvalidInput):
			response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
		default:
			internalError(w, r, "failed to register owner", err)
		}
		return
	}

	response.Success(w, http.StatusCreated, map[string]string{
		"id":       a.ID.String(),
		"username": a.Username,
		"role":     string(a.Role),
	}, requestID)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req validation.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, snap, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", requestID)
			return
		}
		internalError(w, r, "failed to log in", err)
		return
	}

	// The session being replaced stays valid until its TTL unless removed.
	if old := h.jar.Token(r); old != "" {
		if err := h.sessions.Logout(r.Context(), old); err != nil {
			slog.Warn("failed to end previous session at login", "requestId", requestID, "error", err)
		}
	}

	if err := h.jar.Save(w, r, token); err != nil {
		internalError(w, r, "failed to set session cookie", err)
		return
	}

	authReq, err := access.Authenticate(snap)
	if err != nil {
		internalError(w, r, "login produced an invalid session", err)
		return
	}
	response.Success(w, http.StatusOK, toMeResponse(authReq), requestID)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), h.jar.Token(r)); err != nil {
		internalError(w, r, "failed to log out", err)
		return
	}
	if err := h.jar.Clear(w, r); err != nil {
		internalError(w, r, "failed to clear session cookie", err)
		return
	}
	response.NoContent(w)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, toMeResponse(middleware.GetRequest(r.Context())), middleware.GetRequestID(r.Context()))
}

type licenseResponse struct {
	Entitled    bool                `json:"entitled"`
	Entitlement entitlementResponse `json:"entitlement"`
	Message     string              `json:"message"`
}

// License handles GET /license, the landing page for unlicensed accounts.
func (h *AuthHandler) License(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetRequest(r.Context())

	resp := licenseResponse{
		Entitled:    access.RequireEntitled(req) == nil,
		Entitlement: toEntitlementResponse(req.Entitlement),
		Message:     "Your account is active.",
	}
	if !resp.Entitled {
		resp.Message = "Your license or trial period has expired. Contact the administrator to obtain a license key."
		if req.Role() == access.RoleTeacher {
			resp.Message = "Your school's license or trial period has expired. Ask the school owner to renew it."
		}
	}
	response.Success(w, http.StatusOK, resp, middleware.GetRequestID(r.Context()))
}

func toMeResponse(req *access.Request) meResponse {
	keys := []string{}
	for _, p := range access.AllPermissions() {
		if access.HasPermission(req, p) {
			keys = append(keys, p.Key())
		}
	}
	return meResponse{
		ID:          req.AccountID().String(),
		Username:    req.Username,
		Role:        string(req.Role()),
		Entitled:    access.RequireEntitled(req) == nil,
		Entitlement: toEntitlementResponse(req.Entitlement),
		Permissions: keys,
		Navigation:  navigation(req),
	}
}
