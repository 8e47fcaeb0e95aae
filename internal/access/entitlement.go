package access

import "time"

// Entitlement is the licensing state captured at login. Teachers carry their
// owner's entitlement.
type Entitlement struct {
	Licensed      bool
	Trialing      bool
	LicenseExpiry *time.Time
	TrialEnd      *time.Time
}

// Entitled reports whether the tenant is licensed or within its trial.
func (e Entitlement) Entitled() bool {
	return e.Licensed || e.Trialing
}
