package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/database/dbtest"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/money"
	"github.com/feeledger/feeledger/internal/school"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

// seedStudent creates a class with the given fee and one student in it.
func seedStudent(t *testing.T, pool *pgxpool.Pool, scope access.Scope, class, name string, fee money.Amount) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	repo := school.NewRepository(pool)

	classes, err := repo.ListClasses(ctx, scope)
	require.NoError(t, err)
	var classID uuid.UUID
	for _, c := range classes {
		if c.Name == class {
			classID = c.ID
		}
	}
	if classID == uuid.Nil {
		c := &school.Class{Name: class, Fee: fee}
		require.NoError(t, repo.CreateClass(ctx, scope, c))
		classID = c.ID
	}

	s := &school.Student{ClassID: classID, Name: name}
	require.NoError(t, repo.CreateStudent(ctx, scope, s))
	return s.ID
}

func TestPostgres_PaymentsAndReceipt(t *testing.T) {
	pool := dbtest.Setup(t)
	repo := ledger.NewRepository(pool)
	ctx := context.Background()
	scope := access.ScopeOf(dbtest.CreateOwner(t, pool, "owner"))
	ada := seedStudent(t, pool, scope, "Grade 1", "Ada", money.FromMajor(1000))

	first := &ledger.Payment{StudentID: ada, Amount: money.FromMajor(400), Date: day("2024-01-05"), Notes: "term 1"}
	require.NoError(t, repo.RecordPayment(ctx, scope, first))
	second := &ledger.Payment{StudentID: ada, Amount: money.FromMajor(250), Date: day("2024-02-05")}
	require.NoError(t, repo.RecordPayment(ctx, scope, second))

	rc, err := repo.GetReceipt(ctx, scope, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", rc.StudentName)
	assert.Equal(t, "Grade 1", rc.ClassName)
	assert.Equal(t, "term 1", rc.Notes)
	assert.Equal(t, "2024-01-05", rc.Date.Format("2006-01-02"))
	assert.Equal(t, money.FromMajor(1000), rc.ClassFee)
	assert.Equal(t, money.FromMajor(650), rc.TotalPaid)
	assert.Equal(t, money.FromMajor(350), rc.Balance)

	history, err := repo.ListStudentPayments(ctx, scope, ada)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)

	inJanuary, err := repo.ListPayments(ctx, scope, ledger.Period{From: ptr(day("2024-01-01")), To: ptr(day("2024-01-31"))})
	require.NoError(t, err)
	require.Len(t, inJanuary, 1)
	assert.Equal(t, first.ID, inJanuary[0].ID)

	require.NoError(t, repo.DeletePayment(ctx, scope, first.ID))
	assert.ErrorIs(t, repo.DeletePayment(ctx, scope, first.ID), ledger.ErrPaymentNotFound)
	_, err = repo.GetReceipt(ctx, scope, first.ID)
	assert.ErrorIs(t, err, ledger.ErrPaymentNotFound)
}

func TestPostgres_RecentPaymentsLimit(t *testing.T) {
	pool := dbtest.Setup(t)
	repo := ledger.NewRepository(pool)
	ctx := context.Background()
	scope := access.ScopeOf(dbtest.CreateOwner(t, pool, "owner"))
	ada := seedStudent(t, pool, scope, "Grade 1", "Ada", 0)

	var last uuid.UUID
	for i := 0; i < 7; i++ {
		p := &ledger.Payment{StudentID: ada, Amount: money.Amount(100 + i), Date: day("2024-03-01")}
		require.NoError(t, repo.RecordPayment(ctx, scope, p))
		last = p.ID
	}

	recent, err := repo.ListRecentPayments(ctx, scope, ledger.RecentPaymentsLimit)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, last, recent[0].ID)
}

func TestPostgres_ExpensesAndTotals(t *testing.T) {
	pool := dbtest.Setup(t)
	repo := ledger.NewRepository(pool)
	ctx := context.Background()
	scope := access.ScopeOf(dbtest.CreateOwner(t, pool, "owner"))
	ada := seedStudent(t, pool, scope, "Grade 1", "Ada", money.FromMajor(500))
	bola := seedStudent(t, pool, scope, "Grade 1", "Bola", 0)

	require.NoError(t, repo.RecordPayment(ctx, scope, &ledger.Payment{StudentID: ada, Amount: money.FromMajor(500), Date: day("2024-01-10")}))
	require.NoError(t, repo.RecordPayment(ctx, scope, &ledger.Payment{StudentID: bola, Amount: money.FromMajor(100), Date: day("2024-02-10")}))

	chalk := &ledger.Expense{Description: "Chalk", Amount: money.FromMajor(30), Date: day("2024-01-15")}
	require.NoError(t, repo.RecordExpense(ctx, scope, chalk))
	require.NoError(t, repo.RecordExpense(ctx, scope, &ledger.Expense{Description: "Desks", Amount: money.FromMajor(200), Date: day("2024-02-01")}))

	all, err := repo.Totals(ctx, scope, ledger.Period{})
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(600), all.Income)
	assert.Equal(t, money.FromMajor(230), all.Expenses)
	assert.Equal(t, money.FromMajor(370), all.Balance())

	january, err := repo.Totals(ctx, scope, ledger.Period{From: ptr(day("2024-01-01")), To: ptr(day("2024-01-31"))})
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(500), january.Income)
	assert.Equal(t, money.FromMajor(30), january.Expenses)

	expenses, err := repo.ListExpenses(ctx, scope, ledger.Period{})
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "Desks", expenses[0].Description, "newest first")

	got, err := repo.GetExpense(ctx, scope, chalk.ID)
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(30), got.Amount)

	balances, err := repo.StudentBalances(ctx, scope)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "Ada", balances[0].StudentName)
	assert.True(t, balances[0].FullyPaid())
	assert.Equal(t, money.Amount(0), balances[0].Balance())
	assert.Equal(t, money.FromMajor(-100), balances[1].Balance())

	require.NoError(t, repo.DeleteExpense(ctx, scope, chalk.ID))
	_, err = repo.GetExpense(ctx, scope, chalk.ID)
	assert.ErrorIs(t, err, ledger.ErrExpenseNotFound)
}

func TestPostgres_TenantIsolation(t *testing.T) {
	pool := dbtest.Setup(t)
	repo := ledger.NewRepository(pool)
	ctx := context.Background()
	tenantA := access.ScopeOf(dbtest.CreateOwner(t, pool, "owner-a"))
	tenantB := access.ScopeOf(dbtest.CreateOwner(t, pool, "owner-b"))

	adaA := seedStudent(t, pool, tenantA, "Grade 1", "Ada", money.FromMajor(100))
	payment := &ledger.Payment{StudentID: adaA, Amount: money.FromMajor(50), Date: day("2024-01-01")}
	require.NoError(t, repo.RecordPayment(ctx, tenantA, payment))
	expense := &ledger.Expense{Description: "Rent", Amount: money.FromMajor(70), Date: day("2024-01-01")}
	require.NoError(t, repo.RecordExpense(ctx, tenantA, expense))

	err := repo.RecordPayment(ctx, tenantB, &ledger.Payment{StudentID: adaA, Amount: 1, Date: day("2024-01-01")})
	assert.ErrorIs(t, err, ledger.ErrStudentNotFound, "cannot pay for another tenant's student")

	payments, err := repo.ListPayments(ctx, tenantB, ledger.Period{})
	require.NoError(t, err)
	assert.Empty(t, payments)
	recent, err := repo.ListRecentPayments(ctx, tenantB, 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
	history, err := repo.ListStudentPayments(ctx, tenantB, adaA)
	require.NoError(t, err)
	assert.Empty(t, history)
	_, err = repo.GetReceipt(ctx, tenantB, payment.ID)
	assert.ErrorIs(t, err, ledger.ErrPaymentNotFound)
	assert.ErrorIs(t, repo.DeletePayment(ctx, tenantB, payment.ID), ledger.ErrPaymentNotFound)

	expenses, err := repo.ListExpenses(ctx, tenantB, ledger.Period{})
	require.NoError(t, err)
	assert.Empty(t, expenses)
	_, err = repo.GetExpense(ctx, tenantB, expense.ID)
	assert.ErrorIs(t, err, ledger.ErrExpenseNotFound)
	assert.ErrorIs(t, repo.DeleteExpense(ctx, tenantB, expense.ID), ledger.ErrExpenseNotFound)

	totals, err := repo.Totals(ctx, tenantB, ledger.Period{})
	require.NoError(t, err)
	assert.Equal(t, ledger.Totals{}, totals)
	balances, err := repo.StudentBalances(ctx, tenantB)
	require.NoError(t, err)
	assert.Empty(t, balances)

	cleared, err := repo.ClearAll(ctx, tenantB)
	require.NoError(t, err)
	assert.Equal(t, ledger.Cleared{}, cleared)

	totals, err = repo.Totals(ctx, tenantA, ledger.Period{})
	require.NoError(t, err)
	assert.Equal(t, money.FromMajor(50), totals.Income, "tenant A untouched by tenant B's clear")
	assert.Equal(t, money.FromMajor(70), totals.Expenses)
}

func TestPostgres_ClearAll(t *testing.T) {
	pool := dbtest.Setup(t)
	repo := ledger.NewRepository(pool)
	ctx := context.Background()
	scope := access.ScopeOf(dbtest.CreateOwner(t, pool, "owner"))
	ada := seedStudent(t, pool, scope, "Grade 1", "Ada", 0)

	require.NoError(t, repo.RecordPayment(ctx, scope, &ledger.Payment{StudentID: ada, Amount: 100, Date: day("2024-01-01")}))
	require.NoError(t, repo.RecordPayment(ctx, scope, &ledger.Payment{StudentID: ada, Amount: 200, Date: day("2024-01-02")}))
	require.NoError(t, repo.RecordExpense(ctx, scope, &ledger.Expense{Description: "x", Amount: 50, Date: day("2024-01-01")}))

	cleared, err := repo.ClearAll(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, ledger.Cleared{Payments: 2, Expenses: 1}, cleared)

	students, err := school.NewRepository(pool).CountStudents(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 1, students, "students are kept")
}

func TestPostgres_ClearAllRollsBack(t *testing.T) {
	pool := dbtest.Setup(t)
	repo := ledger.NewRepository(pool)
	ctx := context.Background()
	scope := access.ScopeOf(dbtest.CreateOwner(t, pool, "owner"))
	ada := seedStudent(t, pool, scope, "Grade 1", "Ada", 0)

	require.NoError(t, repo.RecordPayment(ctx, scope, &ledger.Payment{StudentID: ada, Amount: 100, Date: day("2024-01-01")}))
	require.NoError(t, repo.RecordExpense(ctx, scope, &ledger.Expense{Description: "x", Amount: 50, Date: day("2024-01-01")}))

	// Payments are deleted first; failing the expense delete must restore them.
	dbtest.FailOn(t, pool, "expenses", "DELETE", "")

	_, err := repo.ClearAll(ctx, scope)
	require.Error(t, err)

	totals, err := repo.Totals(ctx, scope, ledger.Period{})
	require.NoError(t, err)
	assert.Equal(t, money.Amount(100), totals.Income)
	assert.Equal(t, money.Amount(50), totals.Expenses)
}

func TestPostgres_ZeroScopeRejected(t *testing.T) {
	pool := dbtest.Setup(t)
	repo := ledger.NewRepository(pool)
	ctx := context.Background()

	assert.ErrorIs(t, repo.RecordExpense(ctx, access.Scope{}, &ledger.Expense{}), access.ErrNoScope)
	_, err := repo.Totals(ctx, access.Scope{}, ledger.Period{})
	assert.ErrorIs(t, err, access.ErrNoScope)
	_, err = repo.ClearAll(ctx, access.Scope{})
	assert.ErrorIs(t, err, access.ErrNoScope)
}
