package ledger

import "time"

// Period is a reporting window ending now.
type Period string

const (
	Week  Period = "week"
	Month Period = "month"
)

// ParsePeriod accepts "week" and "month".
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case Week, Month:
		return Period(s), true
	}
	return "", false
}

// Days is the window length: 7 for a week, 30 for a month.
func (p Period) Days() int {
	if p == Month {
		return 30
	}
	return 7
}

// Since returns the window start relative to now.
func (p Period) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.Days())
}

// Title is the Russian label used in replies.
func (p Period) Title() string {
	if p == Month {
		return "месяц"
	}
	return "неделю"
}

// StartOfDay truncates t to local midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
