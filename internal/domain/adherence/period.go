package adherence

import (
	"fmt"
	"time"
)

// PeriodType selects the aggregation window for stats.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
	PeriodOverall PeriodType = "overall"
)

// ParsePeriod validates a period query parameter. Empty defaults to weekly.
func ParsePeriod(s string) (PeriodType, error) {
	switch PeriodType(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodOverall:
		return PeriodType(s), nil
	case "":
		return PeriodWeekly, nil
	}
	return "", fmt.Errorf("invalid period %q, expected daily|weekly|monthly|overall", s)
}

// Range returns the half-open UTC window [start, end) the period covers at
// the given instant. Weekly and monthly are trailing windows (7 and 30 days)
// ending at the next UTC midnight, so "today" is always included. Overall
// has a zero lower bound.
func (p PeriodType) Range(now time.Time) (start, end time.Time) {
	end = DayKey(now).AddDate(0, 0, 1)
	switch p {
	case PeriodDaily:
		start = DayKey(now)
	case PeriodWeekly:
		start = end.AddDate(0, 0, -7)
	case PeriodMonthly:
		start = end.AddDate(0, 0, -30)
	case PeriodOverall:
		start = time.Time{}
	}
	return start, end
}

// Contains reports whether t falls inside the period's window at now.
func (p PeriodType) Contains(now, t time.Time) bool {
	start, end := p.Range(now)
	return !t.Before(start) && t.Before(end)
}

// DayKey buckets a timestamp to its UTC calendar day (midnight).
func DayKey(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
