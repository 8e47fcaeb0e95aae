package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/licensing"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// MaxSchoolNameLength is the longest accepted school name.
const MaxSchoolNameLength = 150

// ErrInvalidCredentials is returned when the username or password does not match.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrWrongPassword is returned when the current password given for a profile change is wrong.
var ErrWrongPassword = errors.New("current password is incorrect")

// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
var ErrWeakPassword = fmt.Errorf("password must have at least %d characters", MinPasswordLength)

// ErrInvalidInput is returned for blank usernames or oversized fields.
var ErrInvalidInput = errors.New("invalid input")

// ErrSelfDelete is returned when an administrator tries to delete their own account.
var ErrSelfDelete = errors.New("cannot delete your own account")

// TrialSource supplies the trial granted to newly registered owners.
type TrialSource interface {
	Settings(ctx context.Context) (*licensing.Settings, error)
	Today() time.Time
}

// Service provides account operations.
type Service struct {
	repo       Repository
	trials     TrialSource
	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a new account Service.
func NewService(repo Repository, trials TrialSource, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		trials:     trials,
		bcryptCost: bcryptCost,
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Authenticate verifies a username and password. Unknown usernames and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	a, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// keep timing similar to a wrong password
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// Register creates an owner account. The trial starts today with the
// configured default length; if settings cannot be read no trial is granted.
func (s *Service) Register(ctx context.Context, username, password, schoolName string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(schoolName) > MaxSchoolNameLength {
		return nil, ErrInvalidInput
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Username:     username,
		PasswordHash: hash,
		Role:         access.RoleOwner,
		SchoolName:   strings.TrimSpace(schoolName),
	}

	settings, err := s.trials.Settings(ctx)
	if err != nil {
		slog.Warn("registering without trial; settings unavailable", "error", err)
	} else if settings.DefaultTrialDays > 0 {
		today := s.trials.Today()
		a.TrialStart = &today
		a.TrialDurationDays = settings.DefaultTrialDays
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	slog.Info("owner registered", "accountId", a.ID, "username", a.Username)
	return a, nil
}

// CreateSuperAdmin creates a super admin account.
func (s *Service) CreateSuperAdmin(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidInput
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	a := &Account{Username: username, PasswordHash: hash, Role: access.RoleSuperAdmin}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateTeacher provisions a teacher account under the scoped tenant.
func (s *Service) CreateTeacher(ctx context.Context, scope access.Scope, username, password string, perms access.PermissionSet) (*Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidInput
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	ownerID := scope.OwnerID()
	a := &Account{
		Username:     username,
		PasswordHash: hash,
		Role:         access.RoleTeacher,
		OwnerID:      &ownerID,
		Permissions:  perms,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ChangeUsername renames an account after checking its current password.
func (s *Service) ChangeUsername(ctx context.Context, id uuid.UUID, currentPassword, newUsername string) error {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return ErrInvalidInput
	}
	if err := s.checkPassword(ctx, id, currentPassword); err != nil {
		return err
	}
	return s.repo.UpdateUsername(ctx, id, newUsername)
}

// ChangePassword replaces an account's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.checkPassword(ctx, id, currentPassword); err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// ChangeSchoolName sets the school name of an owner account.
func (s *Service) ChangeSchoolName(ctx context.Context, id uuid.UUID, schoolName string) error {
	schoolName = strings.TrimSpace(schoolName)
	if len(schoolName) > MaxSchoolNameLength {
		return ErrInvalidInput
	}
	return s.repo.UpdateSchoolName(ctx, id, schoolName)
}

// DeleteUser removes any account except the acting one.
func (s *Service) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return ErrSelfDelete
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}
	slog.Info("account deleted", "accountId", targetID, "by", actorID)
	return nil
}

func (s *Service) checkPassword(ctx context.Context, id uuid.UUID, password string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return ErrWrongPassword
	}
	return nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	})
	return s.dummyHash
}

// GetByID returns an account by id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// ListOwners returns every owner account.
func (s *Service) ListOwners(ctx context.Context) ([]Account, error) {
	return s.repo.ListOwners(ctx)
}

// ListTeachers returns the teachers of the scoped tenant.
func (s *Service) ListTeachers(ctx context.Context, scope access.Scope) ([]Account, error) {
	return s.repo.ListTeachers(ctx, scope)
}

// UpdateTeacherPermissions replaces a teacher's permission flags. The teacher
// sees the change after the next login.
func (s *Service) UpdateTeacherPermissions(ctx context.Context, scope access.Scope, id uuid.UUID, perms access.PermissionSet) error {
	if err := s.repo.UpdateTeacherPermissions(ctx, scope, id, perms); err != nil {
		return err
	}
	slog.Info("teacher permissions updated", "teacherId", id, "ownerId", scope.OwnerID(), "permissions", perms.Keys())
	return nil
}

// DeleteTeacher removes a teacher of the scoped tenant.
func (s *Service) DeleteTeacher(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if err := s.repo.DeleteTeacher(ctx, scope, id); err != nil {
		return err
	}
	slog.Info("teacher deleted", "teacherId", id, "ownerId", scope.OwnerID())
	return nil
}
