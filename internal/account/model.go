package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/licensing"
)

// Account represents a row in the accounts table.
type Account struct {
	ID                  uuid.UUID
	Username            string
	PasswordHash        string
	Role                access.Role
	OwnerID             *uuid.UUID // set only for teachers
	SchoolName          string
	LicenseKey          *string
	LicenseExpiry       *time.Time
	TrialStart          *time.Time
	TrialDurationDays   int
	NextLicenseSequence int
	Permissions         access.PermissionSet // meaningful only for teachers
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Terms returns the account's own license and trial fields.
func (a *Account) Terms() licensing.Terms {
	return licensing.Terms{
		LicenseExpiry:     a.LicenseExpiry,
		TrialStart:        a.TrialStart,
		TrialDurationDays: a.TrialDurationDays,
	}
}
