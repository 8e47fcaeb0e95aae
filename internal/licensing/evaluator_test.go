package licensing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feeledger/feeledger/internal/licensing"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := licensing.ParseDate(s)
	require.NoError(t, err)
	return d
}

func ptr(t time.Time) *time.Time { return &t }

func TestIsLicensed(t *testing.T) {
	today := date(t, "2024-03-10")

	assert.True(t, licensing.IsLicensed(ptr(today), today), "expiry day is still licensed")
	assert.True(t, licensing.IsLicensed(ptr(today.AddDate(1, 0, 0)), today))
	assert.False(t, licensing.IsLicensed(ptr(today.AddDate(0, 0, -1)), today), "yesterday has expired")
	assert.False(t, licensing.IsLicensed(nil, today))
}

func TestIsLicensed_IgnoresTimeOfDay(t *testing.T) {
	expiry := date(t, "2024-03-10")
	lateToday := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.True(t, licensing.IsLicensed(&expiry, lateToday))
}

func TestIsLicensedOn_FailsClosed(t *testing.T) {
	today := date(t, "2024-03-10")

	assert.True(t, licensing.IsLicensedOn("2024-03-10", today))
	assert.False(t, licensing.IsLicensedOn("2024-03-09", today))
	assert.False(t, licensing.IsLicensedOn("", today))
	assert.False(t, licensing.IsLicensedOn("not-a-date", today))
	assert.False(t, licensing.IsLicensedOn("2024-13-40", today))
}

func TestIsTrialing_Window(t *testing.T) {
	start := date(t, "2024-01-01")

	assert.Equal(t, date(t, "2024-01-31"), licensing.TrialEnd(start, 30))
	assert.True(t, licensing.IsTrialing(&start, 30, date(t, "2024-01-20")))
	assert.True(t, licensing.IsTrialing(&start, 30, date(t, "2024-01-31")), "trial end day is inclusive")
	assert.False(t, licensing.IsTrialing(&start, 30, date(t, "2024-02-01")))
	assert.False(t, licensing.IsTrialing(&start, 30, date(t, "2024-02-05")))
}

func TestIsTrialing_NonPositiveDurationNeverTrials(t *testing.T) {
	today := date(t, "2024-03-10")
	for _, days := range []int{0, -1, -30} {
		assert.False(t, licensing.IsTrialing(&today, days, today), "days=%d", days)
		assert.False(t, licensing.IsTrialingOn("2024-03-10", days, today), "days=%d", days)
	}
}

func TestIsTrialing_MissingStart(t *testing.T) {
	today := date(t, "2024-03-10")
	assert.False(t, licensing.IsTrialing(nil, 30, today))
	assert.False(t, licensing.IsTrialingOn("", 30, today))
	assert.False(t, licensing.IsTrialingOn("01/01/2024", 30, today))
}

func TestEvaluate(t *testing.T) {
	today := date(t, "2024-01-20")
	trialStart := date(t, "2024-01-01")

	t.Run("licensed skips trial", func(t *testing.T) {
		expiry := date(t, "2024-12-31")
		ent := licensing.Evaluate(licensing.Terms{LicenseExpiry: &expiry, TrialStart: &trialStart, TrialDurationDays: 30}, today)
		assert.True(t, ent.Licensed)
		assert.False(t, ent.Trialing)
		assert.Nil(t, ent.TrialEnd)
		assert.Equal(t, &expiry, ent.LicenseExpiry)
		assert.True(t, ent.Entitled())
	})

	t.Run("expired license falls back to trial", func(t *testing.T) {
		expiry := date(t, "2024-01-19")
		ent := licensing.Evaluate(licensing.Terms{LicenseExpiry: &expiry, TrialStart: &trialStart, TrialDurationDays: 30}, today)
		assert.False(t, ent.Licensed)
		assert.True(t, ent.Trialing)
		require.NotNil(t, ent.TrialEnd)
		assert.Equal(t, date(t, "2024-01-31"), *ent.TrialEnd)
		assert.True(t, ent.Entitled())
	})

	t.Run("nothing", func(t *testing.T) {
		ent := licensing.Evaluate(licensing.Terms{}, today)
		assert.False(t, ent.Entitled())
		assert.Nil(t, ent.TrialEnd)
	})

	t.Run("ended trial", func(t *testing.T) {
		ent := licensing.Evaluate(licensing.Terms{TrialStart: &trialStart, TrialDurationDays: 30}, date(t, "2024-02-05"))
		assert.False(t, ent.Entitled())
		assert.Nil(t, ent.TrialEnd)
	})
}

func TestCalendar_TodayUsesLocation(t *testing.T) {
	lagos, err := time.LoadLocation("Africa/Lagos")
	if err != nil {
		t.Skipf("skipping: time zone data unavailable: %v", err)
	}
	cal := licensing.Calendar{
		Now:      func() time.Time { return time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC) },
		Location: lagos,
	}
	today := cal.Today()
	assert.Equal(t, 2024, today.Year())
	assert.Equal(t, time.February, today.Month())
	assert.Equal(t, 1, today.Day())
}
