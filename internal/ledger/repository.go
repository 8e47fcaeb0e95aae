package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
)

// ErrPaymentNotFound is returned when a payment does not exist in the scoped tenant.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrExpenseNotFound is returned when an expense does not exist in the scoped tenant.
var ErrExpenseNotFound = errors.New("expense not found")

// ErrStudentNotFound is returned when a payment names a student outside the scoped tenant.
var ErrStudentNotFound = errors.New("student not found")

// Repository provides tenant-scoped operations on payments and expenses.
// A zero Scope is rejected with access.ErrNoScope.
type Repository interface {
	RecordPayment(ctx context.Context, scope access.Scope, p *Payment) error
	ListPayments(ctx context.Context, scope access.Scope, period Period) ([]Payment, error)
	ListRecentPayments(ctx context.Context, scope access.Scope, limit int) ([]Payment, error)
	ListStudentPayments(ctx context.Context, scope access.Scope, studentID uuid.UUID) ([]Payment, error)
	GetReceipt(ctx context.Context, scope access.Scope, paymentID uuid.UUID) (*Receipt, error)
	DeletePayment(ctx context.Context, scope access.Scope, id uuid.UUID) error

	RecordExpense(ctx context.Context, scope access.Scope, e *Expense) error
	ListExpenses(ctx context.Context, scope access.Scope, period Period) ([]Expense, error)
	GetExpense(ctx context.Context, scope access.Scope, id uuid.UUID) (*Expense, error)
	DeleteExpense(ctx context.Context, scope access.Scope, id uuid.UUID) error

	Totals(ctx context.Context, scope access.Scope, period Period) (Totals, error)
	StudentBalances(ctx context.Context, scope access.Scope) ([]StudentBalance, error)

	// ClearAll deletes every payment and expense of the tenant in one
	// transaction. Classes and students are kept.
	ClearAll(ctx context.Context, scope access.Scope) (Cleared, error)
}
