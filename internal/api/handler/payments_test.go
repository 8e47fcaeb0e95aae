package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/api/handler"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/money"
)

// --- Mock Ledger Repository ---

type mockLedgerRepo struct {
	recordPaymentFn      func(ctx context.Context, scope access.Scope, p *ledger.Payment) error
	listRecentPaymentsFn func(ctx context.Context, scope access.Scope, limit int) ([]ledger.Payment, error)
	getReceiptFn         func(ctx context.Context, scope access.Scope, id uuid.UUID) (*ledger.Receipt, error)
	deletePaymentFn      func(ctx context.Context, scope access.Scope, id uuid.UUID) error
	recordExpenseFn      func(ctx context.Context, scope access.Scope, e *ledger.Expense) error
	listExpensesFn       func(ctx context.Context, scope access.Scope, period ledger.Period) ([]ledger.Expense, error)
	getExpenseFn         func(ctx context.Context, scope access.Scope, id uuid.UUID) (*ledger.Expense, error)
	deleteExpenseFn      func(ctx context.Context, scope access.Scope, id uuid.UUID) error
	clearAllFn           func(ctx context.Context, scope access.Scope) (ledger.Cleared, error)
}

func (m *mockLedgerRepo) RecordPayment(ctx context.Context, scope access.Scope, p *ledger.Payment) error {
	if m.recordPaymentFn != nil {
		return m.recordPaymentFn(ctx, scope, p)
	}
	p.ID = uuid.New()
	p.OwnerID = scope.OwnerID()
	p.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockLedgerRepo) ListPayments(context.Context, access.Scope, ledger.Period) ([]ledger.Payment, error) {
	return []ledger.Payment{}, nil
}

func (m *mockLedgerRepo) ListRecentPayments(ctx context.Context, scope access.Scope, limit int) ([]ledger.Payment, error) {
	if m.listRecentPaymentsFn != nil {
		return m.listRecentPaymentsFn(ctx, scope, limit)
	}
	return []ledger.Payment{}, nil
}

func (m *mockLedgerRepo) ListStudentPayments(context.Context, access.Scope, uuid.UUID) ([]ledger.Payment, error) {
	return []ledger.Payment{}, nil
}

func (m *mockLedgerRepo) GetReceipt(ctx context.Context, scope access.Scope, id uuid.UUID) (*ledger.Receipt, error) {
	if m.getReceiptFn != nil {
		return m.getReceiptFn(ctx, scope, id)
	}
	return nil, ledger.ErrPaymentNotFound
}

func (m *mockLedgerRepo) DeletePayment(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if m.deletePaymentFn != nil {
		return m.deletePaymentFn(ctx, scope, id)
	}
	return nil
}

func (m *mockLedgerRepo) RecordExpense(ctx context.Context, scope access.Scope, e *ledger.Expense) error {
	if m.recordExpenseFn != nil {
		return m.recordExpenseFn(ctx, scope, e)
	}
	e.ID = uuid.New()
	e.OwnerID = scope.OwnerID()
	e.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockLedgerRepo) ListExpenses(ctx context.Context, scope access.Scope, period ledger.Period) ([]ledger.Expense, error) {
	if m.listExpensesFn != nil {
		return m.listExpensesFn(ctx, scope, period)
	}
	return []ledger.Expense{}, nil
}

func (m *mockLedgerRepo) GetExpense(ctx context.Context, scope access.Scope, id uuid.UUID) (*ledger.Expense, error) {
	if m.getExpenseFn != nil {
		return m.getExpenseFn(ctx, scope, id)
	}
	return nil, ledger.ErrExpenseNotFound
}

func (m *mockLedgerRepo) DeleteExpense(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(ctx, scope, id)
	}
	return nil
}

func (m *mockLedgerRepo) Totals(context.Context, access.Scope, ledger.Period) (ledger.Totals, error) {
	return ledger.Totals{}, nil
}

func (m *mockLedgerRepo) StudentBalances(context.Context, access.Scope) ([]ledger.StudentBalance, error) {
	return []ledger.StudentBalance{}, nil
}

func (m *mockLedgerRepo) ClearAll(ctx context.Context, scope access.Scope) (ledger.Cleared, error) {
	if m.clearAllFn != nil {
		return m.clearAllFn(ctx, scope)
	}
	return ledger.Cleared{}, nil
}

func sampleReceipt(id uuid.UUID) *ledger.Receipt {
	return &ledger.Receipt{
		Payment: ledger.Payment{
			ID:          id,
			StudentID:   uuid.New(),
			StudentName: "Ada",
			ClassName:   "JSS 1",
			Amount:      money.FromMajor(2000),
			Date:        day("2024-03-01"),
			CreatedAt:   time.Now().UTC(),
		},
		ClassFee:  money.FromMajor(5000),
		TotalPaid: money.FromMajor(3500),
		Balance:   money.FromMajor(1500),
	}
}

// ===== POST /payments =====

func TestPaymentRecord_ReturnsReceipt(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	var recorded *ledger.Payment
	repo := &mockLedgerRepo{}
	repo.recordPaymentFn = func(_ context.Context, _ access.Scope, p *ledger.Payment) error {
		p.ID = uuid.New()
		recorded = p
		return nil
	}
	repo.getReceiptFn = func(_ context.Context, _ access.Scope, id uuid.UUID) (*ledger.Receipt, error) {
		return sampleReceipt(id), nil
	}
	h := handler.NewPaymentHandler(repo)

	body := mustJSON(t, map[string]interface{}{
		"studentId": studentID.String(),
		"amount":    "2000.00",
		"date":      "2024-03-01",
		"notes":     " first term ",
	})
	req, w := makeChiRequest(http.MethodPost, "/payments", body, nil, teacherRequest(uuid.New(), access.PermRecordPayments))

	h.Record(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, recorded)
	assert.Equal(t, studentID, recorded.StudentID)
	assert.Equal(t, money.FromMajor(2000), recorded.Amount)
	assert.Equal(t, day("2024-03-01"), recorded.Date)
	assert.Equal(t, "first term", recorded.Notes)

	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1500), data["balance"])
	assert.Equal(t, float64(3500), data["totalPaid"])
	assert.Equal(t, "2024-03-01", data["date"])
}

func TestPaymentRecord_StudentOfAnotherTenant(t *testing.T) {
	t.Parallel()

	repo := &mockLedgerRepo{
		recordPaymentFn: func(context.Context, access.Scope, *ledger.Payment) error {
			return ledger.ErrStudentNotFound
		},
	}
	h := handler.NewPaymentHandler(repo)
	body := mustJSON(t, map[string]interface{}{"studentId": uuid.New().String(), "amount": 10, "date": "2024-03-01"})
	req, w := makeChiRequest(http.MethodPost, "/payments", body, nil, ownerRequest(uuid.New()))

	h.Record(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := parseEnvelope(t, w)["error"].(map[string]interface{})
	details := errObj["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "studentId", details[0].(map[string]interface{})["field"])
}

func TestPaymentRecord_ValidationError(t *testing.T) {
	t.Parallel()

	h := handler.NewPaymentHandler(&mockLedgerRepo{})
	body := mustJSON(t, map[string]interface{}{"studentId": "nope", "amount": 0, "date": "01/03/2024"})
	req, w := makeChiRequest(http.MethodPost, "/payments", body, nil, ownerRequest(uuid.New()))

	h.Record(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := parseEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	assert.Len(t, errObj["details"], 3)
}

// ===== GET /payments =====

func TestPaymentListRecent_UsesLimit(t *testing.T) {
	t.Parallel()

	var gotLimit int
	repo := &mockLedgerRepo{
		listRecentPaymentsFn: func(_ context.Context, _ access.Scope, limit int) ([]ledger.Payment, error) {
			gotLimit = limit
			return []ledger.Payment{sampleReceipt(uuid.New()).Payment}, nil
		},
	}
	h := handler.NewPaymentHandler(repo)
	req, w := makeChiRequest(http.MethodGet, "/payments", nil, nil, ownerRequest(uuid.New()))

	h.ListRecent(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ledger.RecentPaymentsLimit, gotLimit)
	data := parseEnvelope(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Ada", data[0].(map[string]interface{})["studentName"])
}

// ===== GET /payments/{id}/receipt =====

func TestPaymentReceipt_NotFound(t *testing.T) {
	t.Parallel()

	h := handler.NewPaymentHandler(&mockLedgerRepo{})
	id := uuid.New().String()
	req, w := makeChiRequest(http.MethodGet, "/payments/"+id+"/receipt", nil, map[string]string{"id": id}, ownerRequest(uuid.New()))

	h.Receipt(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestPaymentReceipt_Success(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	repo := &mockLedgerRepo{
		getReceiptFn: func(_ context.Context, _ access.Scope, got uuid.UUID) (*ledger.Receipt, error) {
			return sampleReceipt(got), nil
		},
	}
	h := handler.NewPaymentHandler(repo)
	req, w := makeChiRequest(http.MethodGet, "/payments/"+id.String()+"/receipt", nil, map[string]string{"id": id.String()}, ownerRequest(uuid.New()))

	h.Receipt(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, id.String(), data["id"])
	assert.Equal(t, float64(5000), data["classFee"])
}

// ===== DELETE /payments/{id} =====

func TestPaymentDelete_NotFound(t *testing.T) {
	t.Parallel()

	repo := &mockLedgerRepo{
		deletePaymentFn: func(context.Context, access.Scope, uuid.UUID) error {
			return ledger.ErrPaymentNotFound
		},
	}
	h := handler.NewPaymentHandler(repo)
	id := uuid.New().String()
	req, w := makeChiRequest(http.MethodDelete, "/payments/"+id, nil, map[string]string{"id": id}, ownerRequest(uuid.New()))

	h.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
