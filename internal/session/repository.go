package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Repository stores login snapshots keyed by a hash of the session token.
type Repository interface {
	Create(ctx context.Context, tokenHash string, snap *access.Snapshot, expiresAt time.Time) error
	// Get returns the snapshot of an unexpired session.
	Get(ctx context.Context, tokenHash string, now time.Time) (*access.Snapshot, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteForAccount(ctx context.Context, accountID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
