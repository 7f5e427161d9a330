package types

import (
	"errors"
	"fmt"
)

// PeriodType discriminates the two kinds of budget periods.
type PeriodType string

const (
	PeriodMonthly PeriodType = "monthly"
	PeriodWeekly  PeriodType = "weekly"
)

var (
	ErrInvalidPeriodType = errors.New("budget type must be one of monthly, weekly")
	ErrPeriodMonthNeeded = errors.New("month and year are required for monthly budgets")
	ErrPeriodWeekNeeded  = errors.New("week and year are required for weekly budgets")
)

// Valid reports whether the period type is known.
func (p PeriodType) Valid() bool {
	return p == PeriodMonthly || p == PeriodWeekly
}

func (p PeriodType) String() string {
	return string(p)
}

// GormDataType defines the data type used by gorm for the type.
func (PeriodType) GormDataType() string {
	return "text"
}

// BudgetPeriod identifies one budget period. It is a tagged union: for
// PeriodMonthly the Month field is set, for PeriodWeekly the Week field.
type BudgetPeriod struct {
	Type  PeriodType
	Month int // 1-12, monthly periods only
	Week  int // weekly periods only
	Year  int
}

// Validate checks that the period is fully specified for its type.
func (p BudgetPeriod) Validate() error {
	switch p.Type {
	case PeriodMonthly:
		if p.Month == 0 || p.Year == 0 {
			return ErrPeriodMonthNeeded
		}
	case PeriodWeekly:
		if p.Week == 0 || p.Year == 0 {
			return ErrPeriodWeekNeeded
		}
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidPeriodType, string(p.Type))
	}

	return nil
}

// String returns the period in the format used in alert payloads,
// e.g. "3/2025" for monthly and "Week 12, 2025" for weekly periods.
func (p BudgetPeriod) String() string {
	if p.Type == PeriodWeekly {
		return fmt.Sprintf("Week %d, %d", p.Week, p.Year)
	}

	return fmt.Sprintf("%d/%d", p.Month, p.Year)
}
