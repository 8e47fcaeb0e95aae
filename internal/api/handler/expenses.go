package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/api/validation"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/money"
)

type expenseResponse struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Amount      money.Amount `json:"amount"`
	Date        string       `json:"date"`
	Notes       string       `json:"notes"`
	CreatedAt   string       `json:"createdAt"`
}

func toExpenseResponse(e *ledger.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID.String(),
		Description: e.Description,
		Amount:      e.Amount,
		Date:        formatDate(e.Date),
		Notes:       e.Notes,
		CreatedAt:   formatTimestamp(e.CreatedAt),
	}
}

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	repo ledger.Repository
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(repo ledger.Repository) *ExpenseHandler {
	return &ExpenseHandler{repo: repo}
}

// Record handles POST /expenses.
func (h *ExpenseHandler) Record(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	var req validation.RecordExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	e := &ledger.Expense{
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Date:        parseDate(req.Date),
		Notes:       strings.TrimSpace(req.Notes),
	}
	if err := h.repo.RecordExpense(r.Context(), scope, e); err != nil {
		internalError(w, r, "failed to record expense", err)
		return
	}

	response.Success(w, http.StatusCreated, toExpenseResponse(e), middleware.GetRequestID(r.Context()))
}

// List handles GET /expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	expenses, err := h.repo.ListExpenses(r.Context(), scope, ledger.Period{})
	if err != nil {
		internalError(w, r, "failed to list expenses", err)
		return
	}

	items := make([]expenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, toExpenseResponse(&expenses[i]))
	}
	response.SuccessList(w, http.StatusOK, items, len(items), middleware.GetRequestID(r.Context()))
}

// Get handles GET /expenses/{id}, the expense receipt.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	e, err := h.repo.GetExpense(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, ledger.ErrExpenseNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Expense not found", requestID)
			return
		}
		internalError(w, r, "failed to get expense", err, "id", id)
		return
	}

	response.Success(w, http.StatusOK, toExpenseResponse(e), requestID)
}

// Delete handles DELETE /expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteExpense(r.Context(), scope, id); err != nil {
		if errors.Is(err, ledger.ErrExpenseNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Expense not found", middleware.GetRequestID(r.Context()))
			return
		}
		internalError(w, r, "failed to delete expense", err, "id", id)
		return
	}

	response.NoContent(w)
}
