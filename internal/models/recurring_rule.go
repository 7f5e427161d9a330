package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/centsible/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecurringRule is a template that periodically spawns ledger entries.
//
// NextDueDate is owned by the scheduler: it is initialized on create and
// advanced one cadence step per generated occurrence. User edits to
// StartDate or Frequency re-anchor it, nothing else touches it.
type RecurringRule struct {
	DefaultModel
	UserID            uuid.UUID       `gorm:"index"`
	Name              string
	Category          string
	Amount            decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	IsIncome          bool
	Frequency         types.Frequency
	StartDate         time.Time
	EndDate           *time.Time      // generation stops past this date
	NextDueDate       time.Time       `gorm:"index"`
	Active            bool
	LastGeneratedDate *time.Time
	GeneratedCount    uint
	ReminderSent      bool
	Description       string
}

var ErrRuleAmountNotPositive = errors.New("recurring rule amounts must be larger than zero")

// BeforeSave trims whitespace and normalizes all dates to UTC.
func (r *RecurringRule) BeforeSave(_ *gorm.DB) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)

	r.StartDate = r.StartDate.In(time.UTC)
	r.NextDueDate = r.NextDueDate.In(time.UTC)
	if r.EndDate != nil {
		utc := r.EndDate.In(time.UTC)
		r.EndDate = &utc
	}

	return nil
}

func (r *RecurringRule) BeforeCreate(tx *gorm.DB) error {
	_ = r.DefaultModel.BeforeCreate(tx)

	if !r.Frequency.Valid() {
		return fmt.Errorf("%w, got %q", types.ErrInvalidFrequency, string(r.Frequency))
	}

	return nil
}

func (r *RecurringRule) AfterSave(_ *gorm.DB) error {
	if !decimal.Decimal.IsPositive(r.Amount) {
		return ErrRuleAmountNotPositive
	}

	return nil
}

// AfterFind updates all dates to use UTC as timezone, see DefaultModel.
func (r *RecurringRule) AfterFind(tx *gorm.DB) error {
	_ = r.DefaultModel.AfterFind(tx)

	r.StartDate = r.StartDate.In(time.UTC)
	r.NextDueDate = r.NextDueDate.In(time.UTC)
	if r.EndDate != nil {
		utc := r.EndDate.In(time.UTC)
		r.EndDate = &utc
	}
	if r.LastGeneratedDate != nil {
		utc := r.LastGeneratedDate.In(time.UTC)
		r.LastGeneratedDate = &utc
	}

	return nil
}
