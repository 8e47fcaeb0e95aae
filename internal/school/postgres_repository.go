package school

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

const classColumns = `c.id, c.owner_id, c.name, c.fee, c.created_at,
	(SELECT COUNT(*) FROM students s WHERE s.owner_id = c.owner_id AND s.class_id = c.id)`

const studentColumns = `s.id, s.owner_id, s.class_id, s.name, s.created_at, c.name, c.fee`

const studentFrom = `FROM students s JOIN classes c ON c.owner_id = s.owner_id AND c.id = s.class_id`

func scanClass(row pgx.Row) (*Class, error) {
	var c Class
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Fee, &c.CreatedAt, &c.StudentCount); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanStudent(row pgx.Row) (*Student, error) {
	var s Student
	if err := row.Scan(&s.ID, &s.OwnerID, &s.ClassID, &s.Name, &s.CreatedAt, &s.ClassName, &s.ClassFee); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateClass inserts a class owned by the scoped tenant.
func (r *PostgresRepository) CreateClass(ctx context.Context, scope access.Scope, c *Class) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	c.OwnerID = scope.OwnerID()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO classes (owner_id, name, fee)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		c.OwnerID, c.Name, int64(c.Fee),
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateClassName
		}
		return fmt.Errorf("inserting class: %w", err)
	}
	return nil
}

// ListClasses retrieves the tenant's classes ordered by name, with student counts.
func (r *PostgresRepository) ListClasses(ctx context.Context, scope access.Scope) ([]Class, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+classColumns+`
		FROM classes c
		WHERE c.owner_id = $1
		ORDER BY c.name ASC`, scope.OwnerID())
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	defer rows.Close()

	classes := []Class{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning class row: %w", err)
		}
		classes = append(classes, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating class rows: %w", err)
	}
	return classes, nil
}

// GetClass retrieves a class of the scoped tenant.
func (r *PostgresRepository) GetClass(ctx context.Context, scope access.Scope, id uuid.UUID) (*Class, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	c, err := scanClass(r.pool.QueryRow(ctx, `
		SELECT `+classColumns+`
		FROM classes c
		WHERE c.id = $1 AND c.owner_id = $2`, id, scope.OwnerID()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("querying class: %w", err)
	}
	return c, nil
}

// DeleteClass removes a class. Its students and their payments go with it.
func (r *PostgresRepository) DeleteClass(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1 AND owner_id = $2`, id, scope.OwnerID())
	if err != nil {
		return fmt.Errorf("deleting class: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrClassNotFound
	}
	return nil
}

// CreateStudent inserts a student into one of the tenant's classes. A class
// of another tenant fails the composite foreign key and reads as ErrClassNotFound.
func (r *PostgresRepository) CreateStudent(ctx context.Context, scope access.Scope, s *Student) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	s.OwnerID = scope.OwnerID()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students (owner_id, class_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		s.OwnerID, s.ClassID, s.Name,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateStudentName
		}
		if database.IsForeignKeyViolation(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("inserting student: %w", err)
	}
	return nil
}

// ListStudents retrieves every student of the tenant ordered by name.
func (r *PostgresRepository) ListStudents(ctx context.Context, scope access.Scope) ([]Student, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return r.queryStudents(ctx, `
		SELECT `+studentColumns+` `+studentFrom+`
		WHERE s.owner_id = $1
		ORDER BY s.name ASC, c.name ASC`, scope.OwnerID())
}

// ListStudentsInClass retrieves the students of one class ordered by name.
func (r *PostgresRepository) ListStudentsInClass(ctx context.Context, scope access.Scope, classID uuid.UUID) ([]Student, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return r.queryStudents(ctx, `
		SELECT `+studentColumns+` `+studentFrom+`
		WHERE s.owner_id = $1 AND s.class_id = $2
		ORDER BY s.name ASC`, scope.OwnerID(), classID)
}

// GetStudent retrieves a student of the scoped tenant with its class.
func (r *PostgresRepository) GetStudent(ctx context.Context, scope access.Scope, id uuid.UUID) (*Student, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	s, err := scanStudent(r.pool.QueryRow(ctx, `
		SELECT `+studentColumns+` `+studentFrom+`
		WHERE s.id = $1 AND s.owner_id = $2`, id, scope.OwnerID()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("querying student: %w", err)
	}
	return s, nil
}

// DeleteStudent removes a student and, by cascade, the student's payments.
func (r *PostgresRepository) DeleteStudent(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1 AND owner_id = $2`, id, scope.OwnerID())
	if err != nil {
		return fmt.Errorf("deleting student: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// CountStudents returns the number of students of the tenant.
func (r *PostgresRepository) CountStudents(ctx context.Context, scope access.Scope) (int, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE owner_id = $1`, scope.OwnerID()).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting students: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) queryStudents(ctx context.Context, query string, args ...any) ([]Student, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	students := []Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning student row: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating student rows: %w", err)
	}
	return students, nil
}
