// Package ledger records the payments and expenses of each tenant.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/money"
)

// RecentPaymentsLimit is the number of payments shown on the payments page.
const RecentPaymentsLimit = 5

// Payment represents a row in the payments table.
type Payment struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	StudentID uuid.UUID
	Amount    money.Amount
	Date      time.Time
	Notes     string
	CreatedAt time.Time

	// Joined from the student and class on read.
	StudentName string
	ClassName   string
}

// Receipt is a payment with the student's running position.
type Receipt struct {
	Payment
	ClassFee  money.Amount
	TotalPaid money.Amount
	Balance   money.Amount
}

// Expense represents a row in the expenses table.
type Expense struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Description string
	Amount      money.Amount
	Date        time.Time
	Notes       string
	CreatedAt   time.Time
}

// Period bounds a query by transaction date, inclusive on both ends.
// A nil bound is open.
type Period struct {
	From *time.Time
	To   *time.Time
}

// Totals sums a tenant's income and expenses.
type Totals struct {
	Income   money.Amount
	Expenses money.Amount
}

// Balance is income minus expenses.
func (t Totals) Balance() money.Amount {
	return t.Income - t.Expenses
}

// StudentBalance is a student's fee position over all time.
type StudentBalance struct {
	StudentID   uuid.UUID
	StudentName string
	ClassName   string
	Fee         money.Amount
	Paid        money.Amount
}

// Balance is the amount still owed. It is negative when the student overpaid.
func (b StudentBalance) Balance() money.Amount {
	return b.Fee - b.Paid
}

// FullyPaid reports whether the student has paid at least the class fee.
func (b StudentBalance) FullyPaid() bool {
	return b.Paid >= b.Fee
}

// Cleared reports how many rows ClearAll removed.
type Cleared struct {
	Payments int64
	Expenses int64
}
