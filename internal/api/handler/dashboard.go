package handler

import (
	"context"
	"net/http"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/api/validation"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/money"
	"github.com/feeledger/feeledger/internal/report"
)

// Summarizer computes the dashboard summary of a tenant.
type Summarizer interface {
	Dashboard(ctx context.Context, scope access.Scope, period ledger.Period) (*report.Summary, error)
}

type summaryResponse struct {
	From          *string      `json:"from"`
	To            *string      `json:"to"`
	Income        money.Amount `json:"income"`
	Expenses      money.Amount `json:"expenses"`
	Balance       money.Amount `json:"balance"`
	Status        string       `json:"status"`
	TotalStudents int          `json:"totalStudents"`
	PaidStudents  int          `json:"paidStudents"`
	OwingStudents int          `json:"owingStudents"`
}

// DashboardHandler serves the dashboard summary.
type DashboardHandler struct {
	reports Summarizer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(reports Summarizer) *DashboardHandler {
	return &DashboardHandler{reports: reports}
}

// Summary handles GET /dashboard?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	q := validation.PeriodQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if fieldErrors := validation.Struct(&q); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	var period ledger.Period
	if q.From != "" {
		from := parseDate(q.From)
		period.From = &from
	}
	if q.To != "" {
		to := parseDate(q.To)
		period.To = &to
	}

	s, err := h.reports.Dashboard(r.Context(), scope, period)
	if err != nil {
		internalError(w, r, "failed to compute dashboard", err)
		return
	}

	response.Success(w, http.StatusOK, summaryResponse{
		From:          formatDatePtr(s.Period.From),
		To:            formatDatePtr(s.Period.To),
		Income:        s.Income,
		Expenses:      s.Expenses,
		Balance:       s.Balance,
		Status:        string(s.Status),
		TotalStudents: s.TotalStudents,
		PaidStudents:  s.PaidStudents,
		OwingStudents: s.OwingStudents,
	}, requestID)
}
