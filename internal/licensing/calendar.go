package licensing

import "time"

// Calendar supplies "today" in the school's time zone.
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

// NewCalendar returns a Calendar on the wall clock in loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Now: time.Now, Location: loc}
}

// Current returns the current instant in the calendar's location.
func (c Calendar) Current() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

// Today returns the current calendar date.
func (c Calendar) Today() time.Time {
	return Day(c.Current())
}
