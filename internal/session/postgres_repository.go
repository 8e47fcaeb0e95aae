package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feeledger/feeledger/internal/access"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a session row holding the snapshot.
func (r *PostgresRepository) Create(ctx context.Context, tokenHash string, snap *access.Snapshot, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (
			token_hash, account_id, username, role, owner_id,
			licensed, trialing, license_expiry, trial_end,
			permissions, next_license_sequence, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		tokenHash, snap.AccountID, snap.Username, snap.Role, snap.OwnerID,
		snap.Entitlement.Licensed, snap.Entitlement.Trialing,
		snap.Entitlement.LicenseExpiry, snap.Entitlement.TrialEnd,
		snap.Permissions.Keys(), snap.NextLicenseSequence, expiresAt,
	).Scan(&snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Get returns the snapshot of an unexpired session. Stored permission keys
// outside the closed set make the session corrupt.
func (r *PostgresRepository) Get(ctx context.Context, tokenHash string, now time.Time) (*access.Snapshot, error) {
	query := `
		SELECT account_id, username, role, owner_id,
		       licensed, trialing, license_expiry, trial_end,
		       permissions, next_license_sequence, created_at
		FROM sessions
		WHERE token_hash = $1 AND expires_at > $2`

	var snap access.Snapshot
	var keys []string
	err := r.pool.QueryRow(ctx, query, tokenHash, now).Scan(
		&snap.AccountID, &snap.Username, &snap.Role, &snap.OwnerID,
		&snap.Entitlement.Licensed, &snap.Entitlement.Trialing,
		&snap.Entitlement.LicenseExpiry, &snap.Entitlement.TrialEnd,
		&keys, &snap.NextLicenseSequence, &snap.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}

	perms, err := access.ParsePermissionSet(keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", access.ErrCorruptSession, err)
	}
	snap.Permissions = perms

	return &snap, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, tokenHash string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteForAccount removes every session of an account.
func (r *PostgresRepository) DeleteForAccount(ctx context.Context, accountID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("deleting account sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
