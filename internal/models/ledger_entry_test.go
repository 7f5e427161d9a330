package models_test

import (
	"testing"
	"time"

	"github.com/centsible/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestLedgerEntryAmountMustBePositive() {
	tests := []struct {
		name   string
		amount decimal.Decimal
		err    error
	}{
		{"negative", decimal.NewFromFloat(-10), models.ErrLedgerAmountNotPositive},
		{"zero", decimal.Zero, models.ErrLedgerAmountNotPositive},
		{"positive", decimal.NewFromFloat(17.23), nil},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			entry := models.LedgerEntry{
				UserID:   uuid.New(),
				Name:     "Groceries",
				Category: "Food",
				Amount:   tt.amount,
			}

			err := models.DB.Create(&entry).Error
			assert.ErrorIs(t, err, tt.err, "Error is: %s", err)
		})
	}
}

func (suite *TestSuiteStandard) TestLedgerEntryTrimWhitespace() {
	entry := suite.createTestLedgerEntry(models.LedgerEntry{
		Name:        "  Groceries \t",
		Category:    " Food ",
		Amount:      decimal.NewFromFloat(12.5),
		Description: " weekly shop  ",
	})

	assert.Equal(suite.T(), "Groceries", entry.Name)
	assert.Equal(suite.T(), "Food", entry.Category)
	assert.Equal(suite.T(), "weekly shop", entry.Description)
}

func (suite *TestSuiteStandard) TestExpenseSum() {
	userID := uuid.New()
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	inRange := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// Counted
	suite.createTestLedgerEntry(models.LedgerEntry{UserID: userID, Name: "Rent", Category: "Housing", Amount: decimal.NewFromInt(500), Date: inRange})
	suite.createTestLedgerEntry(models.LedgerEntry{UserID: userID, Name: "Repairs", Category: "Housing", Amount: decimal.NewFromFloat(49.5), Date: inRange})

	// Not counted: other category, income, outside range, other user
	suite.createTestLedgerEntry(models.LedgerEntry{UserID: userID, Name: "Food", Category: "Food", Amount: decimal.NewFromInt(30), Date: inRange})
	suite.createTestLedgerEntry(models.LedgerEntry{UserID: userID, Name: "Sublet", Category: "Housing", Amount: decimal.NewFromInt(200), IsIncome: true, Date: inRange})
	suite.createTestLedgerEntry(models.LedgerEntry{UserID: userID, Name: "Rent", Category: "Housing", Amount: decimal.NewFromInt(500), Date: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)})
	suite.createTestLedgerEntry(models.LedgerEntry{Name: "Rent", Category: "Housing", Amount: decimal.NewFromInt(500), Date: inRange})

	// Not counted: soft-deleted
	deleted := suite.createTestLedgerEntry(models.LedgerEntry{UserID: userID, Name: "Cancelled", Category: "Housing", Amount: decimal.NewFromInt(99), Date: inRange})
	err := models.DB.Delete(&deleted).Error
	assert.Nil(suite.T(), err)

	sum, err := models.ExpenseSum(models.DB, userID, "Housing", from, to)
	assert.Nil(suite.T(), err)
	assert.True(suite.T(), sum.Equal(decimal.NewFromFloat(549.5)), "sum is %s", sum)
}

func (suite *TestSuiteStandard) TestExpenseSumNoMatches() {
	sum, err := models.ExpenseSum(models.DB, uuid.New(), "Food",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC))

	assert.Nil(suite.T(), err)
	assert.True(suite.T(), sum.IsZero(), "sum is %s", sum)
}
