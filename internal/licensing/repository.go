package licensing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrOwnerNotFound is returned when the target account does not exist or is not an owner.
var ErrOwnerNotFound = errors.New("owner not found")

// ErrInvalidDays is returned for out-of-range day counts.
var ErrInvalidDays = errors.New("invalid number of days")

// Setting keys stored in the settings table.
const (
	SettingDefaultTrialDays    = "default_trial_days"
	SettingLicenseValidityDays = "license_validity_days"
	SettingLicensePhrase       = "license_phrase"
)

// Fallbacks used when a setting row is missing or unreadable.
const (
	DefaultLicenseValidityDays = 365
	DefaultLicensePhrase       = "feeledger"
)

// Settings are the global licensing settings.
type Settings struct {
	DefaultTrialDays    int
	LicenseValidityDays int
	LicensePhrase       string
}

// Grant is the outcome of a license issuance.
type Grant struct {
	OwnerID  uuid.UUID
	Username string
	Key      string
	Expiry   time.Time
	Sequence int
}

// IssueFunc computes a grant from the owner's locked username and sequence
// counter and the current settings.
type IssueFunc func(username string, sequence int, s Settings) Grant

// Repository persists license, trial and settings state.
type Repository interface {
	GetSettings(ctx context.Context) (*Settings, error)
	// UpdateSettings writes both numeric settings in one transaction.
	UpdateSettings(ctx context.Context, defaultTrialDays, licenseValidityDays int) error
	// IssueLicense writes the key, the expiry and the incremented sequence in one transaction.
	IssueLicense(ctx context.Context, ownerID uuid.UUID, issue IssueFunc) (*Grant, error)
	SetTrial(ctx context.Context, ownerID uuid.UUID, start *time.Time, durationDays int) error
}
