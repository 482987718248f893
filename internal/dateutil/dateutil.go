// Package dateutil provides the business-day calendar used by the
// burndown calculator. The Calendar interface is the seam for plugging a
// real holiday feed; the built-in implementations cover weekends and a
// fixed extra-holiday set.
package dateutil

import "time"

// Calendar answers working-day questions for burndown span math.
type Calendar interface {
	IsBusinessDay(d time.Time) bool
	// BusinessDaysBetween counts the business days in [start, end],
	// inclusive of both endpoints. Returns 0 when end precedes start.
	BusinessDaysBetween(start, end time.Time) int
}

// WeekdayCalendar treats Monday through Friday as business days.
type WeekdayCalendar struct{}

func (WeekdayCalendar) IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (c WeekdayCalendar) BusinessDaysBetween(start, end time.Time) int {
	return countBusinessDays(c, start, end)
}

// HolidayCalendar extends WeekdayCalendar with a set of extra
// non-working dates (public holidays, company closures).
type HolidayCalendar struct {
	holidays map[string]struct{}
}

// NewHolidayCalendar builds a calendar from a list of holiday dates.
func NewHolidayCalendar(holidays []time.Time) *HolidayCalendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[dayKey(h)] = struct{}{}
	}
	return &HolidayCalendar{holidays: set}
}

func (c *HolidayCalendar) IsBusinessDay(d time.Time) bool {
	if !(WeekdayCalendar{}).IsBusinessDay(d) {
		return false
	}
	_, holiday := c.holidays[dayKey(d)]
	return !holiday
}

func (c *HolidayCalendar) BusinessDaysBetween(start, end time.Time) int {
	return countBusinessDays(c, start, end)
}

func countBusinessDays(c Calendar, start, end time.Time) int {
	start = truncate(start)
	end = truncate(end)
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			count++
		}
	}
	return count
}

func truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return truncate(t).Format("2006-01-02")
}
