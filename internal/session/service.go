package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/account"
	"github.com/feeledger/feeledger/internal/licensing"
)

// Authenticator verifies credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*account.Account, error)
}

// AccountGetter loads accounts by id.
type AccountGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// Service creates and resolves login sessions.
type Service struct {
	repo     Repository
	auth     Authenticator
	accounts AccountGetter
	calendar licensing.Calendar
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a new session Service.
func NewService(repo Repository, auth Authenticator, accounts AccountGetter, calendar licensing.Calendar, ttl time.Duration) *Service {
	return &Service{
		repo:     repo,
		auth:     auth,
		accounts: accounts,
		calendar: calendar,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login verifies credentials and stores a new session. The returned token is
// only ever held by the client.
func (s *Service) Login(ctx context.Context, username, password string) (string, *access.Snapshot, error) {
	a, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	snap := s.snapshot(ctx, a)

	token, err := newToken()
	if err != nil {
		return "", nil, err
	}
	if err := s.repo.Create(ctx, hashToken(token), snap, s.now().Add(s.ttl)); err != nil {
		return "", nil, fmt.Errorf("storing session: %w", err)
	}

	slog.Info("login", "accountId", a.ID, "role", a.Role, "entitled", snap.Entitlement.Entitled())
	return token, snap, nil
}

// snapshot captures the authorization facts of an account at login. Teachers
// are evaluated against their owner's license and trial; if the owner cannot
// be loaded the snapshot is not entitled.
func (s *Service) snapshot(ctx context.Context, a *account.Account) *access.Snapshot {
	snap := &access.Snapshot{
		AccountID:           a.ID,
		Username:            a.Username,
		Role:                string(a.Role),
		OwnerID:             a.OwnerID,
		NextLicenseSequence: a.NextLicenseSequence,
	}

	switch a.Role {
	case access.RoleOwner:
		snap.Entitlement = licensing.Evaluate(a.Terms(), s.calendar.Today())
	case access.RoleTeacher:
		snap.Permissions = a.Permissions
		if a.OwnerID == nil {
			break
		}
		owner, err := s.accounts.GetByID(ctx, *a.OwnerID)
		if err != nil {
			slog.Error("owner lookup failed at login; treating as unlicensed", "accountId", a.ID, "ownerId", *a.OwnerID, "error", err)
			break
		}
		snap.Entitlement = licensing.Evaluate(owner.Terms(), s.calendar.Today())
		snap.NextLicenseSequence = owner.NextLicenseSequence
	}

	return snap
}

// Resolve returns the snapshot of a live session.
func (s *Service) Resolve(ctx context.Context, token string) (*access.Snapshot, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, hashToken(token), s.now())
}

// Logout ends a session.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repo.Delete(ctx, hashToken(token))
}

// Terminate ends a session whose stored facts failed validation.
func (s *Service) Terminate(ctx context.Context, token string, reason error) error {
	slog.Warn("terminating invalid session", "reason", reason)
	return s.Logout(ctx, token)
}

// EndAll removes every session of an account.
func (s *Service) EndAll(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.DeleteForAccount(ctx, accountID)
}

// CleanExpired removes expired sessions.
func (s *Service) CleanExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// RunCleanup calls CleanExpired every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CleanExpired(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("session cleanup failed", "error", err)
				}
				continue
			}
			if n > 0 {
				slog.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
