package licensing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service issues licenses and manages trials and licensing settings.
type Service struct {
	repo     Repository
	calendar Calendar
}

// NewService creates a new licensing Service.
func NewService(repo Repository, calendar Calendar) *Service {
	return &Service{repo: repo, calendar: calendar}
}

// Today returns the current calendar date used for all licensing decisions.
func (s *Service) Today() time.Time {
	return s.calendar.Today()
}

// Settings returns the current licensing settings.
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings validates and stores the default trial length and the
// license validity period.
func (s *Service) UpdateSettings(ctx context.Context, defaultTrialDays, licenseValidityDays int) error {
	if defaultTrialDays < 0 {
		return fmt.Errorf("%w: default trial days must not be negative", ErrInvalidDays)
	}
	if licenseValidityDays <= 0 {
		return fmt.Errorf("%w: license validity days must be positive", ErrInvalidDays)
	}
	return s.repo.UpdateSettings(ctx, defaultTrialDays, licenseValidityDays)
}

// IssueLicense generates a new key for the owner and extends the license to
// today plus validityDays. Zero validityDays uses the configured default.
// Re-issuing overwrites the previous key and expiry.
func (s *Service) IssueLicense(ctx context.Context, ownerID uuid.UUID, validityDays int) (*Grant, error) {
	if validityDays < 0 {
		return nil, fmt.Errorf("%w: license validity days must be positive", ErrInvalidDays)
	}

	today := s.Today()
	grant, err := s.repo.IssueLicense(ctx, ownerID, func(username string, sequence int, settings Settings) Grant {
		days := validityDays
		if days == 0 {
			days = settings.LicenseValidityDays
		}
		return Grant{
			Key:      GenerateKey(username, settings.LicensePhrase, sequence),
			Expiry:   today.AddDate(0, 0, days),
			Sequence: sequence,
		}
	})
	if err != nil {
		return nil, err
	}

	slog.Info("license issued", "ownerId", ownerID, "expiry", grant.Expiry.Format(DateLayout), "sequence", grant.Sequence)
	return grant, nil
}

// UpdateTrial restarts the owner's trial today for durationDays, or clears it
// when durationDays is zero.
func (s *Service) UpdateTrial(ctx context.Context, ownerID uuid.UUID, durationDays int) error {
	if durationDays < 0 {
		return fmt.Errorf("%w: trial duration must not be negative", ErrInvalidDays)
	}

	var start *time.Time
	if durationDays > 0 {
		today := s.Today()
		start = &today
	}

	if err := s.repo.SetTrial(ctx, ownerID, start, durationDays); err != nil {
		return err
	}

	slog.Info("trial updated", "ownerId", ownerID, "durationDays", durationDays)
	return nil
}
