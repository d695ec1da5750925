// Package chore computes the completion period a chore belongs to.
//
// A chore may be completed once per period. ONE_TIME chores have a single
// period for their whole life; DAILY chores reset at local midnight; WEEKLY
// chores reset at the start of the ISO week (Monday).
package chore

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorepoints/internal/model"
)

const OncePeriod = "once"

// PeriodKey returns the period identifier for a completion at now, evaluated
// in loc. Two completions with the same key are the same period.
func PeriodKey(t model.ChoreType, now time.Time, loc *time.Location) string {
	switch t {
	case model.ChoreDaily:
		return DailyKey(now, loc)
	case model.ChoreWeekly:
		return WeeklyKey(now, loc)
	default:
		return OncePeriod
	}
}

func DailyKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}

func WeeklyKey(now time.Time, loc *time.Location) string {
	year, week := now.In(loc).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// NextRollover returns the next local midnight after now.
func NextRollover(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return startOfDay(local).AddDate(0, 0, 1)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
