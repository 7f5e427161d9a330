package models

import (
	"errors"
	"strings"

	"github.com/centsible/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget is a spend ceiling for a category over a single period. Budgets are
// not rolled over, each period gets its own record.
type Budget struct {
	DefaultModel
	UserID         uuid.UUID        `gorm:"index"`
	Category       string
	Amount         decimal.Decimal  `gorm:"type:DECIMAL(20,8)"`
	BudgetType     types.PeriodType
	Month          int              // 1-12, set for monthly budgets
	Week           int              // set for weekly budgets
	Year           int
	AlertThreshold decimal.Decimal  `gorm:"type:DECIMAL(20,8)"` // percentage of Amount that raises a warning
	Active         bool
	Description    string
}

// DefaultAlertThreshold is used when a budget is created without one.
var DefaultAlertThreshold = decimal.NewFromInt(80)

var ErrBudgetNotUnique = errors.New("an active budget already exists for this category and period")

// Period returns the period the budget covers.
func (b Budget) Period() types.BudgetPeriod {
	return types.BudgetPeriod{
		Type:  b.BudgetType,
		Month: b.Month,
		Week:  b.Week,
		Year:  b.Year,
	}
}

// BeforeSave trims whitespace.
//
// The alert threshold is deliberately not defaulted here: a stored zero is
// an explicit user choice. Defaulting happens in the service layer, which
// can tell an omitted threshold from a zero one.
func (b *Budget) BeforeSave(_ *gorm.DB) error {
	b.Category = strings.TrimSpace(b.Category)
	b.Description = strings.TrimSpace(b.Description)

	return nil
}

// BeforeCreate verifies that no active budget exists for the same category
// and period. The partial unique index created in migrate backs this check
// against concurrent creates.
func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	_ = b.DefaultModel.BeforeCreate(tx)

	if err := b.Period().Validate(); err != nil {
		return err
	}

	var count int64
	err := tx.Model(&Budget{}).
		Where(&Budget{
			UserID:     b.UserID,
			Category:   b.Category,
			BudgetType: b.BudgetType,
			Month:      b.Month,
			Week:       b.Week,
			Year:       b.Year,
		}).
		Where("active = ?", true).
		Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrBudgetNotUnique
	}

	return nil
}
