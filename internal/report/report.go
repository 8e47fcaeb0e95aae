// Package report builds the dashboard summary and the CSV downloads of a tenant.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/account"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/licensing"
	"github.com/feeledger/feeledger/internal/money"
	"github.com/feeledger/feeledger/internal/school"
)

// DefaultSchoolName is printed when the owner has not set a school name.
const DefaultSchoolName = "School Finance App"

// Status classifies the balance of a period.
type Status string

// Balance statuses.
const (
	StatusProfit   Status = "Profit"
	StatusLoss     Status = "Loss"
	StatusBalanced Status = "Balanced"
)

// StatusOf returns the status of a balance.
func StatusOf(balance money.Amount) Status {
	switch {
	case balance > 0:
		return StatusProfit
	case balance < 0:
		return StatusLoss
	default:
		return StatusBalanced
	}
}

// Summary is the dashboard view of a tenant. Income, expenses and balance are
// limited to the requested period; student counts cover all time.
type Summary struct {
	Period        ledger.Period
	Income        money.Amount
	Expenses      money.Amount
	Balance       money.Amount
	Status        Status
	TotalStudents int
	PaidStudents  int
	OwingStudents int
}

// Heading is printed at the top of every CSV report.
type Heading struct {
	SchoolName  string
	GeneratedAt time.Time
	Currency    string
}

// Transactions is every payment and expense of a tenant, oldest first.
type Transactions struct {
	Heading
	Payments []ledger.Payment
	Expenses []ledger.Expense
}

// Outstanding lists the students with a positive balance, by name.
type Outstanding struct {
	Heading
	Students []ledger.StudentBalance
}

// StudentHistory is the payment history of one student.
type StudentHistory struct {
	Heading
	Student   school.Student
	TotalPaid money.Amount
	Payments  []ledger.Payment
}

// Balance is the class fee minus the total paid.
func (h StudentHistory) Balance() money.Amount {
	return h.Student.ClassFee - h.TotalPaid
}

// AccountGetter loads the owner account for the school name.
type AccountGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// Service assembles reports from the ledger and school repositories.
type Service struct {
	ledger   ledger.Repository
	school   school.Repository
	accounts AccountGetter
	calendar licensing.Calendar
	currency string
}

// NewService creates a new report Service. currency labels amount columns.
func NewService(ledgerRepo ledger.Repository, schoolRepo school.Repository, accounts AccountGetter, calendar licensing.Calendar, currency string) *Service {
	return &Service{
		ledger:   ledgerRepo,
		school:   schoolRepo,
		accounts: accounts,
		calendar: calendar,
		currency: currency,
	}
}

// Dashboard computes the summary for the period.
func (s *Service) Dashboard(ctx context.Context, scope access.Scope, period ledger.Period) (*Summary, error) {
	totals, err := s.ledger.Totals(ctx, scope, period)
	if err != nil {
		return nil, fmt.Errorf("loading totals: %w", err)
	}

	balances, err := s.ledger.StudentBalances(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("loading student balances: %w", err)
	}

	sum := &Summary{
		Period:        period,
		Income:        totals.Income,
		Expenses:      totals.Expenses,
		Balance:       totals.Balance(),
		Status:        StatusOf(totals.Balance()),
		TotalStudents: len(balances),
	}
	for _, b := range balances {
		if b.FullyPaid() {
			sum.PaidStudents++
		}
	}
	sum.OwingStudents = sum.TotalStudents - sum.PaidStudents
	return sum, nil
}

// Transactions loads every payment and expense of the tenant.
func (s *Service) Transactions(ctx context.Context, scope access.Scope) (*Transactions, error) {
	heading, err := s.heading(ctx, scope)
	if err != nil {
		return nil, err
	}

	payments, err := s.ledger.ListPayments(ctx, scope, ledger.Period{})
	if err != nil {
		return nil, fmt.Errorf("loading payments: %w", err)
	}
	expenses, err := s.ledger.ListExpenses(ctx, scope, ledger.Period{})
	if err != nil {
		return nil, fmt.Errorf("loading expenses: %w", err)
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].Date.Before(expenses[j].Date)
		}
		return expenses[i].CreatedAt.Before(expenses[j].CreatedAt)
	})

	return &Transactions{Heading: heading, Payments: payments, Expenses: expenses}, nil
}

// Outstanding loads the students who still owe part of their class fee.
func (s *Service) Outstanding(ctx context.Context, scope access.Scope) (*Outstanding, error) {
	heading, err := s.heading(ctx, scope)
	if err != nil {
		return nil, err
	}

	balances, err := s.ledger.StudentBalances(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("loading student balances: %w", err)
	}

	owing := []ledger.StudentBalance{}
	for _, b := range balances {
		if b.Balance() > 0 {
			owing = append(owing, b)
		}
	}
	sort.SliceStable(owing, func(i, j int) bool { return owing[i].StudentName < owing[j].StudentName })

	return &Outstanding{Heading: heading, Students: owing}, nil
}

// StudentHistory loads the payments of one student of the tenant. A student
// of another tenant is reported as school.ErrStudentNotFound.
func (s *Service) StudentHistory(ctx context.Context, scope access.Scope, studentID uuid.UUID) (*StudentHistory, error) {
	student, err := s.school.GetStudent(ctx, scope, studentID)
	if err != nil {
		return nil, err
	}

	heading, err := s.heading(ctx, scope)
	if err != nil {
		return nil, err
	}

	payments, err := s.ledger.ListStudentPayments(ctx, scope, studentID)
	if err != nil {
		return nil, fmt.Errorf("loading student payments: %w", err)
	}

	h := &StudentHistory{Heading: heading, Student: *student, Payments: payments}
	for _, p := range payments {
		h.TotalPaid += p.Amount
	}
	return h, nil
}

func (s *Service) heading(ctx context.Context, scope access.Scope) (Heading, error) {
	if err := scope.Validate(); err != nil {
		return Heading{}, err
	}

	h := Heading{
		SchoolName:  DefaultSchoolName,
		GeneratedAt: s.calendar.Current(),
		Currency:    s.currency,
	}
	owner, err := s.accounts.GetByID(ctx, scope.OwnerID())
	if err != nil {
		return Heading{}, fmt.Errorf("loading school name: %w", err)
	}
	if owner.SchoolName != "" {
		h.SchoolName = owner.SchoolName
	}
	return h, nil
}
