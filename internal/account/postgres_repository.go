package account

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

const accountColumns = `
	id, username, password_hash, role, owner_id, school_name,
	license_key, license_expiry, trial_start, trial_duration_days, next_license_sequence,
	can_view_dashboard, can_view_classes, can_view_payments,
	can_record_payments, can_view_expenses, can_record_attendance,
	created_at, updated_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new account record.
func (r *PostgresRepository) Create(ctx context.Context, a *Account) error {
	if a.NextLicenseSequence < 1 {
		a.NextLicenseSequence = 1
	}

	query := `
		INSERT INTO accounts (
			username, password_hash, role, owner_id, school_name,
			license_expiry, trial_start, trial_duration_days, next_license_sequence,
			can_view_dashboard, can_view_classes, can_view_payments,
			can_record_payments, can_view_expenses, can_record_attendance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	args := []any{
		a.Username, a.PasswordHash, string(a.Role), a.OwnerID, a.SchoolName,
		a.LicenseExpiry, a.TrialStart, a.TrialDurationDays, a.NextLicenseSequence,
	}
	args = append(args, permissionArgs(a.Permissions)...)

	err := r.pool.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	return nil
}

// GetByID retrieves a single account by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.scanOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByUsername retrieves a single account by its username.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.scanOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

// ListOwners retrieves all owner accounts ordered by username.
func (r *PostgresRepository) ListOwners(ctx context.Context) ([]Account, error) {
	return r.scanMany(ctx, `SELECT `+accountColumns+` FROM accounts WHERE role = 'owner' ORDER BY username ASC`)
}

// CountByRole returns the number of accounts with the given role.
func (r *PostgresRepository) CountByRole(ctx context.Context, role access.Role) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts WHERE role = $1", string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}

// UpdateUsername renames an account.
func (r *PostgresRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE accounts SET username = $1, updated_at = NOW() WHERE id = $2`, username, id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("updating username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces an account's password hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.execOne(ctx, "updating password",
		`UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
}

// UpdateSchoolName sets the school name shown on reports and receipts.
func (r *PostgresRepository) UpdateSchoolName(ctx context.Context, id uuid.UUID, schoolName string) error {
	return r.execOne(ctx, "updating school name",
		`UPDATE accounts SET school_name = $1, updated_at = NOW() WHERE id = $2`, schoolName, id)
}

// Delete removes an account. Tenant data and teachers of an owner are removed by cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "deleting account", `DELETE FROM accounts WHERE id = $1`, id)
}

// ListTeachers retrieves the teachers of the scoped tenant ordered by username.
func (r *PostgresRepository) ListTeachers(ctx context.Context, scope access.Scope) ([]Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return r.scanMany(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE role = 'teacher' AND owner_id = $1
		ORDER BY username ASC`, scope.OwnerID())
}

// GetTeacher retrieves a teacher of the scoped tenant. Teachers of other
// tenants are reported as ErrNotFound.
func (r *PostgresRepository) GetTeacher(ctx context.Context, scope access.Scope, id uuid.UUID) (*Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return r.scanOne(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND role = 'teacher' AND owner_id = $2`, id, scope.OwnerID())
}

// UpdateTeacherPermissions replaces a teacher's permission flags.
func (r *PostgresRepository) UpdateTeacherPermissions(ctx context.Context, scope access.Scope, id uuid.UUID, perms access.PermissionSet) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	args := append(permissionArgs(perms), id, scope.OwnerID())
	return r.execOne(ctx, "updating teacher permissions", `
		UPDATE accounts
		SET can_view_dashboard = $1, can_view_classes = $2, can_view_payments = $3,
		    can_record_payments = $4, can_view_expenses = $5, can_record_attendance = $6,
		    updated_at = NOW()
		WHERE id = $7 AND role = 'teacher' AND owner_id = $8`, args...)
}

// DeleteTeacher removes a teacher of the scoped tenant.
func (r *PostgresRepository) DeleteTeacher(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return r.execOne(ctx, "deleting teacher",
		`DELETE FROM accounts WHERE id = $1 AND role = 'teacher' AND owner_id = $2`, id, scope.OwnerID())
}

func (r *PostgresRepository) execOne(ctx context.Context, action, query string, args ...any) error {
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) scanMany(ctx context.Context, query string, args ...any) ([]Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	return accounts, nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	var flags [6]bool
	err := row.Scan(
		&a.ID, &a.Username, &a.PasswordHash, &role, &a.OwnerID, &a.SchoolName,
		&a.LicenseKey, &a.LicenseExpiry, &a.TrialStart, &a.TrialDurationDays, &a.NextLicenseSequence,
		&flags[0], &flags[1], &flags[2], &flags[3], &flags[4], &flags[5],
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = access.Role(role)
	a.Permissions = permissionsFromFlags(flags)
	return &a, nil
}

// permissionColumns is the column order used by permissionArgs and scanAccount.
var permissionColumns = [6]access.Permission{
	access.PermViewDashboard,
	access.PermViewClasses,
	access.PermViewPayments,
	access.PermRecordPayments,
	access.PermViewExpenses,
	access.PermRecordAttendance,
}

func permissionArgs(perms access.PermissionSet) []any {
	args := make([]any, 0, len(permissionColumns))
	for _, p := range permissionColumns {
		args = append(args, perms.Has(p))
	}
	return args
}

func permissionsFromFlags(flags [6]bool) access.PermissionSet {
	var set access.PermissionSet
	for i, p := range permissionColumns {
		if flags[i] {
			set = set.With(p)
		}
	}
	return set
}
