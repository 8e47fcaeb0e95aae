package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/report"
	"github.com/feeledger/feeledger/internal/school"
)

// Reporter assembles the downloadable reports of a tenant.
type Reporter interface {
	Transactions(ctx context.Context, scope access.Scope) (*report.Transactions, error)
	Outstanding(ctx context.Context, scope access.Scope) (*report.Outstanding, error)
	StudentHistory(ctx context.Context, scope access.Scope, studentID uuid.UUID) (*report.StudentHistory, error)
}

// ReportHandler serves the CSV downloads.
type ReportHandler struct {
	reports Reporter
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports Reporter) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Transactions handles GET /reports/transactions.csv.
func (h *ReportHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	t, err := h.reports.Transactions(r.Context(), scope)
	if err != nil {
		internalError(w, r, "failed to build transactions report", err)
		return
	}

	response.Attachment(w, report.ContentType,
		report.Filename("transactions", t.SchoolName, t.GeneratedAt),
		func(out io.Writer) error { return report.WriteTransactions(out, t) },
		middleware.GetRequestID(r.Context()))
}

// Outstanding handles GET /reports/outstanding.csv.
func (h *ReportHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	o, err := h.reports.Outstanding(r.Context(), scope)
	if err != nil {
		internalError(w, r, "failed to build outstanding report", err)
		return
	}

	response.Attachment(w, report.ContentType,
		report.Filename("outstanding_balances", o.SchoolName, o.GeneratedAt),
		func(out io.Writer) error { return report.WriteOutstanding(out, o) },
		middleware.GetRequestID(r.Context()))
}

// StudentHistory handles GET /reports/students/{id}.
func (h *ReportHandler) StudentHistory(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	hist, err := h.reports.StudentHistory(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, school.ErrStudentNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Student not found", middleware.GetRequestID(r.Context()))
			return
		}
		internalError(w, r, "failed to build student history", err, "studentId", id)
		return
	}

	response.Attachment(w, report.ContentType,
		report.Filename("payment_history", hist.Student.Name, hist.GeneratedAt),
		func(out io.Writer) error { return report.WriteStudentHistory(out, hist) },
		middleware.GetRequestID(r.Context()))
}
