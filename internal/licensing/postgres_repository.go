package licensing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

// GetSettings reads the licensing settings, falling back to defaults for missing rows.
func (r *PostgresRepository) GetSettings(ctx context.Context) (*Settings, error) {
	return readSettings(ctx, r.pool)
}

func readSettings(ctx context.Context, q database.Querier) (*Settings, error) {
	s := &Settings{
		LicenseValidityDays: DefaultLicenseValidityDays,
		LicensePhrase:       DefaultLicensePhrase,
	}

	rows, err := q.Query(ctx, `
		SELECT setting_key, setting_value
		FROM settings
		WHERE setting_key = ANY($1)`,
		[]string{SettingDefaultTrialDays, SettingLicenseValidityDays, SettingLicensePhrase})
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting row: %w", err)
		}
		switch key {
		case SettingDefaultTrialDays:
			if n, err := strconv.Atoi(value); err == nil && n >= 0 {
				s.DefaultTrialDays = n
			}
		case SettingLicenseValidityDays:
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				s.LicenseValidityDays = n
			}
		case SettingLicensePhrase:
			if value != "" {
				s.LicensePhrase = value
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating setting rows: %w", err)
	}

	return s, nil
}

// UpdateSettings writes the two numeric settings in a single transaction.
func (r *PostgresRepository) UpdateSettings(ctx context.Context, defaultTrialDays, licenseValidityDays int) error {
	query := `
		INSERT INTO settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, SettingDefaultTrialDays, strconv.Itoa(defaultTrialDays)); err != nil {
			return fmt.Errorf("updating default trial days: %w", err)
		}
		if _, err := tx.Exec(ctx, query, SettingLicenseValidityDays, strconv.Itoa(licenseValidityDays)); err != nil {
			return fmt.Errorf("updating license validity days: %w", err)
		}
		return nil
	})
}

// IssueLicense locks the owner row, computes the grant and stores it together
// with the incremented sequence counter.
func (r *PostgresRepository) IssueLicense(ctx context.Context, ownerID uuid.UUID, issue IssueFunc) (*Grant, error) {
	var grant Grant

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var username string
		var sequence int
		err := tx.QueryRow(ctx, `
			SELECT username, next_license_sequence
			FROM accounts
			WHERE id = $1 AND role = 'owner'
			FOR UPDATE`, ownerID).Scan(&username, &sequence)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOwnerNotFound
			}
			return fmt.Errorf("locking owner: %w", err)
		}

		settings, err := readSettings(ctx, tx)
		if err != nil {
			return err
		}

		grant = issue(username, sequence, *settings)
		grant.OwnerID = ownerID
		grant.Username = username

		_, err = tx.Exec(ctx, `
			UPDATE accounts
			SET license_key = $1,
			    license_expiry = $2,
			    next_license_sequence = next_license_sequence + 1,
			    updated_at = NOW()
			WHERE id = $3`,
			grant.Key, grant.Expiry, ownerID)
		if err != nil {
			return fmt.Errorf("writing license: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &grant, nil
}

// SetTrial overwrites an owner's trial start and duration.
func (r *PostgresRepository) SetTrial(ctx context.Context, ownerID uuid.UUID, start *time.Time, durationDays int) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET trial_start = $1, trial_duration_days = $2, updated_at = NOW()
		WHERE id = $3 AND role = 'owner'`,
		start, durationDays, ownerID)
	if err != nil {
		return fmt.Errorf("updating trial: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOwnerNotFound
	}
	return nil
}
