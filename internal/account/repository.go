package account

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
)

// ErrNotFound is returned when an account record is not found.
var ErrNotFound = errors.New("account not found")

// ErrDuplicateUsername is returned when the username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// Repository provides operations on the accounts table.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	ListOwners(ctx context.Context) ([]Account, error)
	CountByRole(ctx context.Context, role access.Role) (int, error)
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateSchoolName(ctx context.Context, id uuid.UUID, schoolName string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Teacher accounts are always addressed through the owning tenant's scope.
	ListTeachers(ctx context.Context, scope access.Scope) ([]Account, error)
	GetTeacher(ctx context.Context, scope access.Scope, id uuid.UUID) (*Account, error)
	UpdateTeacherPermissions(ctx context.Context, scope access.Scope, id uuid.UUID, perms access.PermissionSet) error
	DeleteTeacher(ctx context.Context, scope access.Scope, id uuid.UUID) error
}
