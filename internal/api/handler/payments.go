package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/api/validation"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/money"
)

type paymentResponse struct {
	ID          string       `json:"id"`
	StudentID   string       `json:"studentId"`
	StudentName string       `json:"studentName"`
	ClassName   string       `json:"className"`
	Amount      money.Amount `json:"amount"`
	Date        string       `json:"date"`
	Notes       string       `json:"notes"`
	CreatedAt   string       `json:"createdAt"`
}

type receiptResponse struct {
	paymentResponse
	ClassFee  money.Amount `json:"classFee"`
	TotalPaid money.Amount `json:"totalPaid"`
	Balance   money.Amount `json:"balance"`
}

func toPaymentResponse(p *ledger.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID.String(),
		StudentID:   p.StudentID.String(),
		StudentName: p.StudentName,
		ClassName:   p.ClassName,
		Amount:      p.Amount,
		Date:        formatDate(p.Date),
		Notes:       p.Notes,
		CreatedAt:   formatTimestamp(p.CreatedAt),
	}
}

func toReceiptResponse(rc *ledger.Receipt) receiptResponse {
	return receiptResponse{
		paymentResponse: toPaymentResponse(&rc.Payment),
		ClassFee:        rc.ClassFee,
		TotalPaid:       rc.TotalPaid,
		Balance:         rc.Balance,
	}
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	repo ledger.Repository
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(repo ledger.Repository) *PaymentHandler {
	return &PaymentHandler{repo: repo}
}

// Record handles POST /payments and returns the receipt.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	var req validation.RecordPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p := &ledger.Payment{
		StudentID: uuid.MustParse(req.StudentID),
		Amount:    req.Amount,
		Date:      parseDate(req.Date),
		Notes:     strings.TrimSpace(req.Notes),
	}
	if err := h.repo.RecordPayment(r.Context(), scope, p); err != nil {
		if errors.Is(err, ledger.ErrStudentNotFound) {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "studentId", Message: "studentId does not name one of your students"}}, requestID)
			return
		}
		internalError(w, r, "failed to record payment", err)
		return
	}

	rc, err := h.repo.GetReceipt(r.Context(), scope, p.ID)
	if err != nil {
		internalError(w, r, "failed to load receipt", err, "id", p.ID)
		return
	}
	response.Success(w, http.StatusCreated, toReceiptResponse(rc), requestID)
}

// ListRecent handles GET /payments, the most recent payments of the school.
func (h *PaymentHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	payments, err := h.repo.ListRecentPayments(r.Context(), scope, ledger.RecentPaymentsLimit)
	if err != nil {
		internalError(w, r, "failed to list payments", err)
		return
	}

	items := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, toPaymentResponse(&payments[i]))
	}
	response.SuccessList(w, http.StatusOK, items, len(items), middleware.GetRequestID(r.Context()))
}

// Receipt handles GET /payments/{id}/receipt.
func (h *PaymentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	rc, err := h.repo.GetReceipt(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, ledger.ErrPaymentNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Payment not found", requestID)
			return
		}
		internalError(w, r, "failed to get receipt", err, "id", id)
		return
	}

	response.Success(w, http.StatusOK, toReceiptResponse(rc), requestID)
}

// Delete handles DELETE /payments/{id}.
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.DeletePayment(r.Context(), scope, id); err != nil {
		if errors.Is(err, ledger.ErrPaymentNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Payment not found", middleware.GetRequestID(r.Context()))
			return
		}
		internalError(w, r, "failed to delete payment", err, "id", id)
		return
	}

	response.NoContent(w)
}
