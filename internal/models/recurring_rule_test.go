package models_test

import (
	"testing"
	"time"

	"github.com/centsible/backend/internal/models"
	"github.com/centsible/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestRecurringRuleFrequencyValidated() {
	tests := []struct {
		name      string
		frequency types.Frequency
		err       error
	}{
		{"daily", types.FrequencyDaily, nil},
		{"weekly", types.FrequencyWeekly, nil},
		{"monthly", types.FrequencyMonthly, nil},
		{"yearly", types.FrequencyYearly, nil},
		{"unknown", "sometimes", types.ErrInvalidFrequency},
		{"empty", "", types.ErrInvalidFrequency},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			rule := models.RecurringRule{
				UserID:      uuid.New(),
				Name:        "Rent",
				Category:    "Housing",
				Amount:      decimal.NewFromInt(500),
				Frequency:   tt.frequency,
				StartDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
				NextDueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
				Active:      true,
			}

			err := models.DB.Create(&rule).Error
			assert.ErrorIs(t, err, tt.err, "Error is: %s", err)
		})
	}
}

func (suite *TestSuiteStandard) TestRecurringRuleAmountMustBePositive() {
	rule := models.RecurringRule{
		UserID:      uuid.New(),
		Name:        "Rent",
		Category:    "Housing",
		Amount:      decimal.NewFromInt(-500),
		Frequency:   types.FrequencyMonthly,
		StartDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		NextDueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	err := models.DB.Create(&rule).Error
	assert.ErrorIs(suite.T(), err, models.ErrRuleAmountNotPositive)
}

func (suite *TestSuiteStandard) TestRecurringRuleTrimWhitespace() {
	rule := suite.createTestRecurringRule(models.RecurringRule{
		Name:        " Rent  ",
		Category:    "\tHousing ",
		Amount:      decimal.NewFromInt(500),
		Frequency:   types.FrequencyMonthly,
		StartDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		NextDueDate: time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		Description: " paid to landlord ",
	})

	assert.Equal(suite.T(), "Rent", rule.Name)
	assert.Equal(suite.T(), "Housing", rule.Category)
	assert.Equal(suite.T(), "paid to landlord", rule.Description)
}

func (suite *TestSuiteStandard) TestRecurringRuleDatesInUTC() {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		suite.T().Skip("tzdata not available")
	}

	created := suite.createTestRecurringRule(models.RecurringRule{
		Name:        "Rent",
		Category:    "Housing",
		Amount:      decimal.NewFromInt(500),
		Frequency:   types.FrequencyMonthly,
		StartDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, berlin),
		NextDueDate: time.Date(2025, 2, 15, 0, 0, 0, 0, berlin),
	})

	var rule models.RecurringRule
	err = models.DB.First(&rule, "id = ?", created.ID).Error
	assert.Nil(suite.T(), err)

	assert.Equal(suite.T(), time.UTC, rule.StartDate.Location())
	assert.Equal(suite.T(), time.UTC, rule.NextDueDate.Location())
}
