package models_test

import (
	"testing"

	"github.com/centsible/backend/internal/models"
	"github.com/centsible/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// The model stores the alert threshold as given, a zero stays a zero.
// Defaulting an omitted threshold is the service layer's job.
func (suite *TestSuiteStandard) TestBudgetKeepsZeroAlertThreshold() {
	budget := suite.createTestBudget(models.Budget{
		Category:   "Food",
		Amount:     decimal.NewFromInt(100),
		BudgetType: types.PeriodMonthly,
		Month:      3,
		Year:       2025,
		Active:     true,
	})

	var reloaded models.Budget
	err := models.DB.First(&reloaded, "id = ?", budget.ID).Error
	assert.Nil(suite.T(), err)
	assert.True(suite.T(), reloaded.AlertThreshold.IsZero(),
		"alert threshold is %s", reloaded.AlertThreshold)
}

func (suite *TestSuiteStandard) TestBudgetPeriodValidatedOnCreate() {
	tests := []struct {
		name   string
		budget models.Budget
		err    error
	}{
		{
			"monthly without month",
			models.Budget{Category: "Food", BudgetType: types.PeriodMonthly, Year: 2025},
			types.ErrPeriodMonthNeeded,
		},
		{
			"weekly without week",
			models.Budget{Category: "Food", BudgetType: types.PeriodWeekly, Year: 2025},
			types.ErrPeriodWeekNeeded,
		},
		{
			"unknown budget type",
			models.Budget{Category: "Food", BudgetType: "quarterly", Month: 3, Year: 2025},
			types.ErrInvalidPeriodType,
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			tt.budget.UserID = uuid.New()
			tt.budget.Amount = decimal.NewFromInt(100)

			err := models.DB.Create(&tt.budget).Error
			assert.ErrorIs(t, err, tt.err, "Error is: %s", err)
		})
	}
}

func (suite *TestSuiteStandard) TestBudgetUniquePerCategoryAndPeriod() {
	userID := uuid.New()

	_ = suite.createTestBudget(models.Budget{
		UserID:     userID,
		Category:   "Food",
		Amount:     decimal.NewFromInt(100),
		BudgetType: types.PeriodMonthly,
		Month:      3,
		Year:       2025,
		Active:     true,
	})

	// Same category and period conflicts
	duplicate := models.Budget{
		UserID:     userID,
		Category:   "Food",
		Amount:     decimal.NewFromInt(200),
		BudgetType: types.PeriodMonthly,
		Month:      3,
		Year:       2025,
		Active:     true,
	}
	err := models.DB.Create(&duplicate).Error
	assert.ErrorIs(suite.T(), err, models.ErrBudgetNotUnique)

	// A different period is fine
	_ = suite.createTestBudget(models.Budget{
		UserID:     userID,
		Category:   "Food",
		Amount:     decimal.NewFromInt(100),
		BudgetType: types.PeriodMonthly,
		Month:      4,
		Year:       2025,
		Active:     true,
	})

	// So is the same period for another user
	_ = suite.createTestBudget(models.Budget{
		Category:   "Food",
		Amount:     decimal.NewFromInt(100),
		BudgetType: types.PeriodMonthly,
		Month:      3,
		Year:       2025,
		Active:     true,
	})
}

func (suite *TestSuiteStandard) TestBudgetUniquenessIgnoresInactive() {
	userID := uuid.New()

	first := suite.createTestBudget(models.Budget{
		UserID:     userID,
		Category:   "Food",
		Amount:     decimal.NewFromInt(100),
		BudgetType: types.PeriodWeekly,
		Week:       12,
		Year:       2025,
		Active:     true,
	})

	err := models.DB.Model(&first).Update("active", false).Error
	assert.Nil(suite.T(), err)

	// The deactivated budget no longer blocks creation
	_ = suite.createTestBudget(models.Budget{
		UserID:     userID,
		Category:   "Food",
		Amount:     decimal.NewFromInt(150),
		BudgetType: types.PeriodWeekly,
		Week:       12,
		Year:       2025,
		Active:     true,
	})
}
