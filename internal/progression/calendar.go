package progression

import "time"

// DayLayout formats calendar-day buckets.
const DayLayout = "2006-01-02"

// Calendar buckets instants into calendar days of one time zone.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a Calendar for loc. A nil loc uses UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// Location returns the calendar's time zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Day returns t's calendar day.
func (c Calendar) Day(t time.Time) string {
	return t.In(c.Location()).Format(DayLayout)
}

// Yesterday returns the calendar day before t's.
func (c Calendar) Yesterday(t time.Time) string {
	local := t.In(c.Location())
	y, m, d := local.Date()
	return time.Date(y, m, d-1, 12, 0, 0, 0, c.Location()).Format(DayLayout)
}

// Midnight returns the start of t's calendar day.
func (c Calendar) Midnight(t time.Time) time.Time {
	local := t.In(c.Location())
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location())
}
