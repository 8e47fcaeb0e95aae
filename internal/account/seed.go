package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/licensing"
)

type seedUser struct {
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	Role          string   `json:"role"`
	SchoolName    string   `json:"schoolName,omitempty"`
	Owner         string   `json:"owner,omitempty"`
	LicenseExpiry string   `json:"licenseExpiry,omitempty"`
	TrialStart    string   `json:"trialStart,omitempty"`
	TrialDays     int      `json:"trialDays,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
}

type seedFile struct {
	Users []seedUser `json:"users"`
}

// SeedFromFile creates the accounts listed in a YAML file. Existing usernames
// are skipped. Teachers reference their owner by username, so owners must be
// listed first.
func (s *Service) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}

	created := 0
	for _, u := range sf.Users {
		if u.Username == "" || u.Password == "" {
			continue
		}
		if _, err := s.repo.GetByUsername(ctx, u.Username); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		a, err := s.seedAccount(ctx, u)
		if err != nil {
			return fmt.Errorf("seeding %q: %w", u.Username, err)
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("seeding %q: %w", u.Username, err)
		}
		created++
	}

	slog.Info("seed file applied", "path", path, "created", created)
	return nil
}

func (s *Service) seedAccount(ctx context.Context, u seedUser) (*Account, error) {
	role, err := access.ParseRole(u.Role)
	if err != nil {
		return nil, err
	}
	hash, err := s.HashPassword(u.Password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Username:          u.Username,
		PasswordHash:      hash,
		Role:              role,
		SchoolName:        u.SchoolName,
		TrialDurationDays: u.TrialDays,
	}
	if a.LicenseExpiry, err = optionalDate(u.LicenseExpiry); err != nil {
		return nil, err
	}
	if a.TrialStart, err = optionalDate(u.TrialStart); err != nil {
		return nil, err
	}

	if role == access.RoleTeacher {
		owner, err := s.repo.GetByUsername(ctx, u.Owner)
		if err != nil || owner.Role != access.RoleOwner {
			return nil, fmt.Errorf("teacher owner %q is not a known owner", u.Owner)
		}
		a.OwnerID = &owner.ID
		if a.Permissions, err = access.ParsePermissionSet(u.Permissions); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := licensing.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return &d, nil
}
