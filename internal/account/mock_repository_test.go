package account_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/account"
)

// memRepo is an in-memory account.Repository for service tests.
type memRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: map[uuid.UUID]*account.Account{}}
}

func (m *memRepo) Create(_ context.Context, a *account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Username == a.Username {
			return account.ErrDuplicateUsername
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	if a.NextLicenseSequence < 1 {
		a.NextLicenseSequence = 1
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) GetByUsername(_ context.Context, username string) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (m *memRepo) list(match func(*account.Account) bool) []account.Account {
	out := []account.Account{}
	for _, a := range m.accounts {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (m *memRepo) ListOwners(_ context.Context) ([]account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(a *account.Account) bool { return a.Role == access.RoleOwner }), nil
}

func (m *memRepo) CountByRole(_ context.Context, role access.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.list(func(a *account.Account) bool { return a.Role == role })), nil
}

func (m *memRepo) update(id uuid.UUID, fn func(*account.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	fn(a)
	return nil
}

func (m *memRepo) UpdateUsername(_ context.Context, id uuid.UUID, username string) error {
	m.mu.Lock()
	for otherID, a := range m.accounts {
		if a.Username == username && otherID != id {
			m.mu.Unlock()
			return account.ErrDuplicateUsername
		}
	}
	m.mu.Unlock()
	return m.update(id, func(a *account.Account) { a.Username = username })
}

func (m *memRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return m.update(id, func(a *account.Account) { a.PasswordHash = hash })
}

func (m *memRepo) UpdateSchoolName(_ context.Context, id uuid.UUID, name string) error {
	return m.update(id, func(a *account.Account) { a.SchoolName = name })
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return account.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *memRepo) isTeacherOf(a *account.Account, scope access.Scope) bool {
	return a.Role == access.RoleTeacher && a.OwnerID != nil && *a.OwnerID == scope.OwnerID()
}

func (m *memRepo) ListTeachers(_ context.Context, scope access.Scope) ([]account.Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(a *account.Account) bool { return m.isTeacherOf(a, scope) }), nil
}

func (m *memRepo) GetTeacher(_ context.Context, scope access.Scope, id uuid.UUID) (*account.Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || !m.isTeacherOf(a, scope) {
		return nil, account.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpdateTeacherPermissions(ctx context.Context, scope access.Scope, id uuid.UUID, perms access.PermissionSet) error {
	if _, err := m.GetTeacher(ctx, scope, id); err != nil {
		return err
	}
	return m.update(id, func(a *account.Account) { a.Permissions = perms })
}

func (m *memRepo) DeleteTeacher(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	if _, err := m.GetTeacher(ctx, scope, id); err != nil {
		return err
	}
	return m.Delete(ctx, id)
}
