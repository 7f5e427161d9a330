package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry is a single recorded income or expense transaction.
//
// Entries are only ever soft-deleted so that aggregations stay auditable;
// deleted entries are excluded from all queries by gorm's soft delete scope.
type LedgerEntry struct {
	DefaultModel
	UserID          uuid.UUID       `gorm:"index"`
	Name            string
	Category        string          `gorm:"index"`
	Amount          decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	IsIncome        bool
	Date            time.Time       `gorm:"index"` // the day the transaction occurred
	Description     string
	Generated       bool            // set for entries created by the scheduler
	RecurringRuleID *uuid.UUID      `gorm:"index"` // back-reference to the generating rule
}

var ErrLedgerAmountNotPositive = errors.New("ledger entry amounts must be larger than zero")

// BeforeSave sets the timezone for the Date to UTC and trims whitespace.
func (e *LedgerEntry) BeforeSave(_ *gorm.DB) error {
	if e.Date.IsZero() {
		e.Date = time.Now().In(time.UTC)
	} else {
		e.Date = e.Date.In(time.UTC)
	}

	e.Name = strings.TrimSpace(e.Name)
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)

	return nil
}

func (e *LedgerEntry) AfterSave(_ *gorm.DB) error {
	if !decimal.Decimal.IsPositive(e.Amount) {
		return ErrLedgerAmountNotPositive
	}

	return nil
}

// AfterFind updates the date to use UTC as timezone, see DefaultModel.
func (e *LedgerEntry) AfterFind(tx *gorm.DB) error {
	_ = e.DefaultModel.AfterFind(tx)
	e.Date = e.Date.In(time.UTC)

	return nil
}

// ExpenseSum returns the total cost of all non-deleted expense entries for a
// user and category within the date range, both bounds inclusive.
//
// No matching entries is not an error, the sum is zero then.
func ExpenseSum(db *gorm.DB, userID uuid.UUID, category string, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := db.Model(&LedgerEntry{}).
		Where("user_id = ? AND category = ? AND is_income = ? AND date >= ? AND date <= ?",
			userID, category, false, from, to).
		Select("SUM(amount)").
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing expenses for category %q failed: %w", category, err)
	}

	if !sum.Valid {
		return decimal.Zero, nil
	}

	return sum.Decimal, nil
}
