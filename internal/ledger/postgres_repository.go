package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/database"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const paymentColumns = `p.id, p.owner_id, p.student_id, p.amount, p.payment_date, p.notes, p.created_at,
	s.name, c.name`

const paymentFrom = `FROM payments p
	JOIN students s ON s.owner_id = p.owner_id AND s.id = p.student_id
	JOIN classes c ON c.owner_id = s.owner_id AND c.id = s.class_id`

const expenseColumns = `id, owner_id, description, amount, expense_date, notes, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OwnerID, &p.StudentID, &p.Amount, &p.Date, &p.Notes, &p.CreatedAt,
		&p.StudentName, &p.ClassName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Description, &e.Amount, &e.Date, &e.Notes, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// RecordPayment inserts a payment for one of the tenant's students.
func (r *PostgresRepository) RecordPayment(ctx context.Context, scope access.Scope, p *Payment) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	p.OwnerID = scope.OwnerID()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (owner_id, student_id, amount, payment_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		p.OwnerID, p.StudentID, int64(p.Amount), p.Date, p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

// ListPayments retrieves the tenant's payments in the period, oldest first.
func (r *PostgresRepository) ListPayments(ctx context.Context, scope access.Scope, period Period) ([]Payment, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return r.queryPayments(ctx, `
		SELECT `+paymentColumns+` `+paymentFrom+`
		WHERE p.owner_id = $1
		  AND ($2::date IS NULL OR p.payment_date >= $2::date)
		  AND ($3::date IS NULL OR p.payment_date <= $3::date)
		ORDER BY p.payment_date ASC, p.created_at ASC`,
		scope.OwnerID(), period.From, period.To)
}

// ListRecentPayments retrieves the tenant's most recently recorded payments.
func (r *PostgresRepository) ListRecentPayments(ctx context.Context, scope access.Scope, limit int) ([]Payment, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return r.queryPayments(ctx, `
		SELECT `+paymentColumns+` `+paymentFrom+`
		WHERE p.owner_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2`, scope.OwnerID(), limit)
}

// ListStudentPayments retrieves one student's payments, oldest first.
func (r *PostgresRepository) ListStudentPayments(ctx context.Context, scope access.Scope, studentID uuid.UUID) ([]Payment, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return r.queryPayments(ctx, `
		SELECT `+paymentColumns+` `+paymentFrom+`
		WHERE p.owner_id = $1 AND p.student_id = $2
		ORDER BY p.payment_date ASC, p.created_at ASC`, scope.OwnerID(), studentID)
}

// GetReceipt retrieves a payment with the student's class fee, total paid
// and remaining balance.
func (r *PostgresRepository) GetReceipt(ctx context.Context, scope access.Scope, paymentID uuid.UUID) (*Receipt, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	var rc Receipt
	p := &rc.Payment
	err := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`, c.fee,
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM payments t
			 WHERE t.owner_id = p.owner_id AND t.student_id = p.student_id)
		`+paymentFrom+`
		WHERE p.id = $1 AND p.owner_id = $2`, paymentID, scope.OwnerID(),
	).Scan(&p.ID, &p.OwnerID, &p.StudentID, &p.Amount, &p.Date, &p.Notes, &p.CreatedAt,
		&p.StudentName, &p.ClassName, &rc.ClassFee, &rc.TotalPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("querying receipt: %w", err)
	}
	rc.Balance = rc.ClassFee - rc.TotalPaid
	return &rc, nil
}

// DeletePayment removes a payment of the scoped tenant.
func (r *PostgresRepository) DeletePayment(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1 AND owner_id = $2`, id, scope.OwnerID())
	if err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// RecordExpense inserts an expense for the tenant.
func (r *PostgresRepository) RecordExpense(ctx context.Context, scope access.Scope, e *Expense) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	e.OwnerID = scope.OwnerID()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (owner_id, description, amount, expense_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		e.OwnerID, e.Description, int64(e.Amount), e.Date, e.Notes,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}
	return nil
}

// ListExpenses retrieves the tenant's expenses in the period, newest first.
func (r *PostgresRepository) ListExpenses(ctx context.Context, scope access.Scope, period Period) ([]Expense, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE owner_id = $1
		  AND ($2::date IS NULL OR expense_date >= $2::date)
		  AND ($3::date IS NULL OR expense_date <= $3::date)
		ORDER BY expense_date DESC, created_at DESC`,
		scope.OwnerID(), period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense row: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}
	return expenses, nil
}

// GetExpense retrieves an expense of the scoped tenant.
func (r *PostgresRepository) GetExpense(ctx context.Context, scope access.Scope, id uuid.UUID) (*Expense, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	e, err := scanExpense(r.pool.QueryRow(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE id = $1 AND owner_id = $2`, id, scope.OwnerID()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("querying expense: %w", err)
	}
	return e, nil
}

// DeleteExpense removes an expense of the scoped tenant.
func (r *PostgresRepository) DeleteExpense(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`, id, scope.OwnerID())
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// Totals sums the tenant's payments and expenses in the period.
func (r *PostgresRepository) Totals(ctx context.Context, scope access.Scope, period Period) (Totals, error) {
	if err := scope.Validate(); err != nil {
		return Totals{}, err
	}

	var t Totals
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM payments
			 WHERE owner_id = $1
			   AND ($2::date IS NULL OR payment_date >= $2::date)
			   AND ($3::date IS NULL OR payment_date <= $3::date)),
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM expenses
			 WHERE owner_id = $1
			   AND ($2::date IS NULL OR expense_date >= $2::date)
			   AND ($3::date IS NULL OR expense_date <= $3::date))`,
		scope.OwnerID(), period.From, period.To,
	).Scan(&t.Income, &t.Expenses)
	if err != nil {
		return Totals{}, fmt.Errorf("summing totals: %w", err)
	}
	return t, nil
}

// StudentBalances retrieves every student of the tenant with fee and amount
// paid, ordered by student name.
func (r *PostgresRepository) StudentBalances(ctx context.Context, scope access.Scope) ([]StudentBalance, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name, c.name, c.fee,
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM payments p
			 WHERE p.owner_id = s.owner_id AND p.student_id = s.id)
		FROM students s
		JOIN classes c ON c.owner_id = s.owner_id AND c.id = s.class_id
		WHERE s.owner_id = $1
		ORDER BY s.name ASC, c.name ASC`, scope.OwnerID())
	if err != nil {
		return nil, fmt.Errorf("listing student balances: %w", err)
	}
	defer rows.Close()

	balances := []StudentBalance{}
	for rows.Next() {
		var b StudentBalance
		if err := rows.Scan(&b.StudentID, &b.StudentName, &b.ClassName, &b.Fee, &b.Paid); err != nil {
			return nil, fmt.Errorf("scanning student balance row: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating student balance rows: %w", err)
	}
	return balances, nil
}

// ClearAll deletes the tenant's payments and expenses in one transaction.
func (r *PostgresRepository) ClearAll(ctx context.Context, scope access.Scope) (Cleared, error) {
	if err := scope.Validate(); err != nil {
		return Cleared{}, err
	}

	var cleared Cleared
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM payments WHERE owner_id = $1`, scope.OwnerID())
		if err != nil {
			return fmt.Errorf("deleting payments: %w", err)
		}
		cleared.Payments = result.RowsAffected()

		result, err = tx.Exec(ctx, `DELETE FROM expenses WHERE owner_id = $1`, scope.OwnerID())
		if err != nil {
			return fmt.Errorf("deleting expenses: %w", err)
		}
		cleared.Expenses = result.RowsAffected()
		return nil
	})
	if err != nil {
		return Cleared{}, err
	}
	return cleared, nil
}

func (r *PostgresRepository) queryPayments(ctx context.Context, query string, args ...any) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}
	return payments, nil
}
