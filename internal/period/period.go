// Package period implements the date math for budget periods and
// recurrence due dates. All functions are pure and operate in UTC.
package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/centsible/backend/internal/types"
)

var ErrInvalidDate = errors.New("date must not be the zero value")

// MonthRange returns the first and last instant of a calendar month.
// The month is 1-indexed, the end carries a 23:59:59 clock.
func MonthRange(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, time.Month(month)+1, 0, 23, 59, 59, 0, time.UTC)

	return start, end
}

// WeekRange returns the first and last instant of a week.
//
// Week 1 starts at the first Monday on or after January 1 of the year. This
// is deliberately not ISO-8601: stored weekly budgets use this scheme, and
// WeekNumber uses the ISO one. The two must not be unified, see DESIGN.md.
func WeekRange(year, week int) (start, end time.Time) {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	daysToFirstMonday := (8 - int(jan1.Weekday())) % 7
	firstMonday := jan1.AddDate(0, 0, daysToFirstMonday)

	start = firstMonday.AddDate(0, 0, (week-1)*7)
	last := start.AddDate(0, 0, 6)
	end = time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)

	return start, end
}

// Range resolves the bounds for a budget period.
func Range(p types.BudgetPeriod) (start, end time.Time, err error) {
	if err := p.Validate(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	switch p.Type {
	case types.PeriodMonthly:
		start, end = MonthRange(p.Year, p.Month)
	case types.PeriodWeekly:
		start, end = WeekRange(p.Year, p.Week)
	}

	return start, end, nil
}

// WeekNumber returns the ISO-8601 week number of a date. It is only used to
// default the "current week" when none is given explicitly.
func WeekNumber(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// NextDue returns the due date following from for the given frequency.
func NextDue(from time.Time, frequency types.Frequency) (time.Time, error) {
	if from.IsZero() {
		return time.Time{}, ErrInvalidDate
	}

	switch frequency {
	case types.FrequencyDaily:
		return from.AddDate(0, 0, 1), nil
	case types.FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case types.FrequencyMonthly:
		return from.AddDate(0, 1, 0), nil
	case types.FrequencyYearly:
		return from.AddDate(1, 0, 0), nil
	}

	return time.Time{}, fmt.Errorf("%w, got %q", types.ErrInvalidFrequency, string(frequency))
}

// IsDue reports whether due has been reached at now. Both instants are
// truncated to UTC midnight so that the comparison is date-only.
func IsDue(due, now time.Time) bool {
	return !Day(due).After(Day(now))
}

// IsReminderDue reports whether now falls into the reminder window before
// due: the window opens reminderDays before the due date and closes at the
// due date itself, exclusive.
func IsReminderDue(due, now time.Time, reminderDays int) bool {
	today := Day(now)
	dueDay := Day(due)
	reminder := dueDay.AddDate(0, 0, -reminderDays)

	return !reminder.After(today) && dueDay.After(today)
}

// Day truncates an instant to UTC midnight.
func Day(t time.Time) time.Time {
	t = t.In(time.UTC)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
