package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/account"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/licensing"
	"github.com/feeledger/feeledger/internal/money"
	"github.com/feeledger/feeledger/internal/report"
	"github.com/feeledger/feeledger/internal/school"
)

// stubLedger serves fixed rows for one tenant.
type stubLedger struct {
	ledger.Repository
	owner    uuid.UUID
	totals   ledger.Totals
	balances []ledger.StudentBalance
	payments []ledger.Payment
	expenses []ledger.Expense
	period   ledger.Period
}

func (s *stubLedger) check(scope access.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if scope.OwnerID() != s.owner {
		return errors.New("wrong tenant")
	}
	return nil
}

func (s *stubLedger) Totals(_ context.Context, scope access.Scope, period ledger.Period) (ledger.Totals, error) {
	s.period = period
	return s.totals, s.check(scope)
}

func (s *stubLedger) StudentBalances(_ context.Context, scope access.Scope) ([]ledger.StudentBalance, error) {
	return s.balances, s.check(scope)
}

func (s *stubLedger) ListPayments(_ context.Context, scope access.Scope, _ ledger.Period) ([]ledger.Payment, error) {
	return s.payments, s.check(scope)
}

func (s *stubLedger) ListStudentPayments(_ context.Context, scope access.Scope, studentID uuid.UUID) ([]ledger.Payment, error) {
	var out []ledger.Payment
	for _, p := range s.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, s.check(scope)
}

func (s *stubLedger) ListExpenses(_ context.Context, scope access.Scope, _ ledger.Period) ([]ledger.Expense, error) {
	return append([]ledger.Expense(nil), s.expenses...), s.check(scope)
}

type stubSchool struct {
	school.Repository
	students map[uuid.UUID]school.Student
}

func (s *stubSchool) GetStudent(_ context.Context, scope access.Scope, id uuid.UUID) (*school.Student, error) {
	st, ok := s.students[id]
	if !ok || st.OwnerID != scope.OwnerID() {
		return nil, school.ErrStudentNotFound
	}
	return &st, nil
}

type stubAccounts map[uuid.UUID]*account.Account

func (s stubAccounts) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := s[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a, nil
}

func day(s string) time.Time {
	t, err := time.Parse(licensing.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

var generatedAt = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

func newService(l *stubLedger, sc *stubSchool, schoolName string) *report.Service {
	accounts := stubAccounts{l.owner: {ID: l.owner, Username: "owner", SchoolName: schoolName}}
	cal := licensing.Calendar{Now: func() time.Time { return generatedAt }, Location: time.UTC}
	return report.NewService(l, sc, accounts, cal, "NGN")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, report.StatusProfit, report.StatusOf(1))
	assert.Equal(t, report.StatusLoss, report.StatusOf(-1))
	assert.Equal(t, report.StatusBalanced, report.StatusOf(0))
}

func TestDashboard(t *testing.T) {
	owner := uuid.New()
	l := &stubLedger{
		owner:  owner,
		totals: ledger.Totals{Income: money.FromMajor(300), Expenses: money.FromMajor(500)},
		balances: []ledger.StudentBalance{
			{StudentName: "Ada", Fee: money.FromMajor(100), Paid: money.FromMajor(100)},
			{StudentName: "Bola", Fee: money.FromMajor(100), Paid: money.FromMajor(150)},
			{StudentName: "Chidi", Fee: money.FromMajor(100), Paid: money.FromMajor(20)},
			{StudentName: "Dayo", Fee: money.FromMajor(100)},
		},
	}
	svc := newService(l, &stubSchool{}, "")

	from := day("2024-01-01")
	sum, err := svc.Dashboard(context.Background(), access.ScopeOf(owner), ledger.Period{From: &from})
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(-200), sum.Balance)
	assert.Equal(t, report.StatusLoss, sum.Status)
	assert.Equal(t, 4, sum.TotalStudents)
	assert.Equal(t, 2, sum.PaidStudents)
	assert.Equal(t, 2, sum.OwingStudents)
	require.NotNil(t, l.period.From)
	assert.Nil(t, l.period.To)
}

func TestDashboard_ZeroScope(t *testing.T) {
	svc := newService(&stubLedger{owner: uuid.New()}, &stubSchool{}, "")
	_, err := svc.Dashboard(context.Background(), access.Scope{}, ledger.Period{})
	assert.ErrorIs(t, err, access.ErrNoScope)
}

func TestOutstanding_OnlyPositiveBalancesByName(t *testing.T) {
	owner := uuid.New()
	l := &stubLedger{
		owner: owner,
		balances: []ledger.StudentBalance{
			{StudentName: "Zara", Fee: 1000, Paid: 0},
			{StudentName: "Ada", Fee: 1000, Paid: 1000},
			{StudentName: "Bola", Fee: 1000, Paid: 400},
			{StudentName: "Chidi", Fee: 1000, Paid: 1200},
		},
	}
	out, err := newService(l, &stubSchool{}, "Green Hill").Outstanding(context.Background(), access.ScopeOf(owner))
	require.NoError(t, err)
	require.Len(t, out.Students, 2)
	assert.Equal(t, "Bola", out.Students[0].StudentName)
	assert.Equal(t, "Zara", out.Students[1].StudentName)
	assert.Equal(t, "Green Hill", out.SchoolName)
	assert.Equal(t, generatedAt, out.GeneratedAt)
}

func TestTransactions_ExpensesOldestFirst(t *testing.T) {
	owner := uuid.New()
	l := &stubLedger{
		owner: owner,
		expenses: []ledger.Expense{
			{Description: "late", Date: day("2024-02-01")},
			{Description: "early", Date: day("2024-01-01")},
		},
	}
	tx, err := newService(l, &stubSchool{}, "").Transactions(context.Background(), access.ScopeOf(owner))
	require.NoError(t, err)
	assert.Equal(t, report.DefaultSchoolName, tx.SchoolName)
	require.Len(t, tx.Expenses, 2)
	assert.Equal(t, "early", tx.Expenses[0].Description)
}

func TestStudentHistory(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	ada := school.Student{ID: uuid.New(), OwnerID: owner, Name: "Ada", ClassName: "Grade 1", ClassFee: money.FromMajor(1000)}
	foreign := school.Student{ID: uuid.New(), OwnerID: other, Name: "Eve"}
	l := &stubLedger{
		owner: owner,
		payments: []ledger.Payment{
			{StudentID: ada.ID, Amount: money.FromMajor(300), Date: day("2024-01-05")},
			{StudentID: ada.ID, Amount: money.FromMajor(200), Date: day("2024-02-05")},
		},
	}
	sc := &stubSchool{students: map[uuid.UUID]school.Student{ada.ID: ada, foreign.ID: foreign}}
	svc := newService(l, sc, "")

	h, err := svc.StudentHistory(context.Background(), access.ScopeOf(owner), ada.ID)
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(500), h.TotalPaid)
	assert.Equal(t, money.FromMajor(500), h.Balance())
	assert.Len(t, h.Payments, 2)

	_, err = svc.StudentHistory(context.Background(), access.ScopeOf(owner), foreign.ID)
	assert.ErrorIs(t, err, school.ErrStudentNotFound)
}
