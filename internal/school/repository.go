package school

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
)

// ErrClassNotFound is returned when a class does not exist in the scoped tenant.
var ErrClassNotFound = errors.New("class not found")

// ErrStudentNotFound is returned when a student does not exist in the scoped tenant.
var ErrStudentNotFound = errors.New("student not found")

// ErrDuplicateClassName is returned when the tenant already has a class with the name.
var ErrDuplicateClassName = errors.New("class name already exists")

// ErrDuplicateStudentName is returned when the class already has a student with the name.
var ErrDuplicateStudentName = errors.New("student name already exists in class")

// Repository provides tenant-scoped operations on classes and students.
// A zero Scope is rejected with access.ErrNoScope.
type Repository interface {
	CreateClass(ctx context.Context, scope access.Scope, c *Class) error
	ListClasses(ctx context.Context, scope access.Scope) ([]Class, error)
	GetClass(ctx context.Context, scope access.Scope, id uuid.UUID) (*Class, error)
	DeleteClass(ctx context.Context, scope access.Scope, id uuid.UUID) error

	CreateStudent(ctx context.Context, scope access.Scope, s *Student) error
	ListStudents(ctx context.Context, scope access.Scope) ([]Student, error)
	ListStudentsInClass(ctx context.Context, scope access.Scope, classID uuid.UUID) ([]Student, error)
	GetStudent(ctx context.Context, scope access.Scope, id uuid.UUID) (*Student, error)
	DeleteStudent(ctx context.Context, scope access.Scope, id uuid.UUID) error
	CountStudents(ctx context.Context, scope access.Scope) (int, error)
}
