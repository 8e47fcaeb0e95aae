package licensing

import (
	"time"

	"github.com/feeledger/feeledger/internal/access"
)

// DateLayout is the calendar date format used for stored and submitted dates.
const DateLayout = "2006-01-02"

// Terms are an owner's stored license and trial fields.
type Terms struct {
	LicenseExpiry     *time.Time
	TrialStart        *time.Time
	TrialDurationDays int
}

// Day truncates t to its calendar date, keeping t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, raw)
}

func sameOrAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad >= bd
}

// IsLicensed reports whether a license with the given expiry is valid on
// today. The expiry day itself is still licensed.
func IsLicensed(expiry *time.Time, today time.Time) bool {
	if expiry == nil {
		return false
	}
	return sameOrAfter(*expiry, today)
}

// TrialEnd returns the last day of a trial starting on start.
func TrialEnd(start time.Time, durationDays int) time.Time {
	return Day(start).AddDate(0, 0, durationDays)
}

// IsTrialing reports whether a trial is running on today. A missing start or
// a non-positive duration is never trialing.
func IsTrialing(start *time.Time, durationDays int, today time.Time) bool {
	if start == nil || durationDays <= 0 {
		return false
	}
	return sameOrAfter(TrialEnd(*start, durationDays), today)
}

// IsLicensedOn is IsLicensed for a textual expiry. Empty or malformed dates
// are not licensed.
func IsLicensedOn(raw string, today time.Time) bool {
	if raw == "" {
		return false
	}
	expiry, err := ParseDate(raw)
	if err != nil {
		return false
	}
	return IsLicensed(&expiry, today)
}

// IsTrialingOn is IsTrialing for a textual start date. Empty or malformed
// dates are not trialing.
func IsTrialingOn(raw string, durationDays int, today time.Time) bool {
	if raw == "" {
		return false
	}
	start, err := ParseDate(raw)
	if err != nil {
		return false
	}
	return IsTrialing(&start, durationDays, today)
}

// Evaluate resolves terms into an entitlement snapshot. The trial is only
// considered when the license is not valid.
func Evaluate(t Terms, today time.Time) access.Entitlement {
	ent := access.Entitlement{LicenseExpiry: t.LicenseExpiry}
	ent.Licensed = IsLicensed(t.LicenseExpiry, today)
	if ent.Licensed {
		return ent
	}

	ent.Trialing = IsTrialing(t.TrialStart, t.TrialDurationDays, today)
	if ent.Trialing {
		end := TrialEnd(*t.TrialStart, t.TrialDurationDays)
		ent.TrialEnd = &end
	}
	return ent
}
