// Package budgets implements spend aggregation against budgets and the
// derived alert surface.
package budgets

import (
	"errors"
	"fmt"
	"time"

	"github.com/centsible/backend/internal/models"
	"github.com/centsible/backend/internal/period"
	"github.com/centsible/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Alert classification for a budget.
const (
	AlertNormal   = "normal"
	AlertWarning  = "warning"
	AlertExceeded = "exceeded"
)

var (
	ErrMissingRequiredFields = errors.New("a category and a non-negative amount are required")

	hundred = decimal.NewFromInt(100)
)

// Service computes spend-to-date and alert status for budgets. It holds no
// clock: GetSummary takes the reference instant explicitly and everything
// else derives its bounds from the stored period.
type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewService returns a Service using the given database handle.
func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{
		db:  db,
		log: log,
	}
}

// Status is the computed state of a budget at query time.
type Status struct {
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentageUsed"`
	IsOverBudget   bool            `json:"isOverBudget"`
	IsNearLimit    bool            `json:"isNearLimit"`
	AlertStatus    string          `json:"alertStatus"`
}

// BudgetWithStatus is a budget annotated with its computed status.
type BudgetWithStatus struct {
	models.Budget
	Status
}

// BudgetCreate defines all values required to create a budget.
type BudgetCreate struct {
	UserID         uuid.UUID
	Category       string
	Amount         decimal.Decimal
	BudgetType     types.PeriodType
	Month          int
	Week           int
	Year           int
	AlertThreshold *decimal.Decimal
	Description    string
}

// BudgetPatch contains the fields of a budget that can be updated. Nil
// fields are left unchanged. The category and period are immutable, a new
// period gets its own budget.
type BudgetPatch struct {
	Amount         *decimal.Decimal
	AlertThreshold *decimal.Decimal
	Description    *string
	Active         *bool
}

// Filters narrows the budget list.
type Filters struct {
	BudgetType *types.PeriodType
	Month      *int
	Year       *int
	Week       *int
}

// CategoryBreakdown is the per-category slice of a summary.
type CategoryBreakdown struct {
	Category       string          `json:"category"`
	BudgetAmount   decimal.Decimal `json:"budgetAmount"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentageUsed"`
	IsOverBudget   bool            `json:"isOverBudget"`
	IsNearLimit    bool            `json:"isNearLimit"`
	AlertStatus    string          `json:"alertStatus"`
}

// Summary aggregates all budgets of one period.
type Summary struct {
	Period                types.BudgetPeriod  `json:"period"`
	TotalBudget           decimal.Decimal     `json:"totalBudget"`
	TotalSpent            decimal.Decimal     `json:"totalSpent"`
	TotalRemaining        decimal.Decimal     `json:"totalRemaining"`
	OverallPercentageUsed decimal.Decimal     `json:"overallPercentageUsed"`
	IsOverBudget          bool                `json:"isOverBudget"`
	IsNearLimit           bool                `json:"isNearLimit"`
	CategoryBreakdown     []CategoryBreakdown `json:"categoryBreakdown"`
	Alerts                []CategoryBreakdown `json:"alerts"`
}

// Alert is one actionable budget alert. Alerts are recomputed on every
// call, deduplication across polling cycles is the caller's concern.
type Alert struct {
	Type           string           `json:"type"`
	Category       string           `json:"category"`
	BudgetAmount   decimal.Decimal  `json:"budgetAmount"`
	Spent          decimal.Decimal  `json:"spent"`
	OverBy         decimal.Decimal  `json:"overBy,omitempty"`
	Remaining      decimal.Decimal  `json:"remaining,omitempty"`
	PercentageUsed decimal.Decimal  `json:"percentageUsed"`
	Message        string           `json:"message"`
	BudgetType     types.PeriodType `json:"budgetType"`
	Period         string           `json:"period"`
}

// Create validates the input and persists a new budget. Creating a second
// active budget for the same category and period is a conflict, enforced
// both by the model hook and the database index.
func (s *Service) Create(create BudgetCreate) (models.Budget, error) {
	if create.Category == "" || create.Amount.Sign() < 0 {
		return models.Budget{}, ErrMissingRequiredFields
	}

	budgetType := create.BudgetType
	if budgetType == "" {
		budgetType = types.PeriodMonthly
	}

	p := types.BudgetPeriod{Type: budgetType, Month: create.Month, Week: create.Week, Year: create.Year}
	if err := p.Validate(); err != nil {
		return models.Budget{}, err
	}

	threshold := models.DefaultAlertThreshold
	if create.AlertThreshold != nil {
		threshold = *create.AlertThreshold
	}

	budget := models.Budget{
		UserID:         create.UserID,
		Category:       create.Category,
		Amount:         create.Amount,
		BudgetType:     budgetType,
		Month:          create.Month,
		Week:           create.Week,
		Year:           create.Year,
		AlertThreshold: threshold,
		Active:         true,
		Description:    create.Description,
	}

	err := s.db.Create(&budget).Error
	if err != nil {
		return models.Budget{}, err
	}

	return budget, nil
}

// ComputeStatus sums the spend inside the budget's period and classifies it.
//
// A budget with amount zero reports zero percent used, the percentage is
// never NaN or infinite.
func (s *Service) ComputeStatus(budget models.Budget) (Status, error) {
	start, end, err := period.Range(budget.Period())
	if err != nil {
		return Status{}, err
	}

	spent, err := models.ExpenseSum(s.db, budget.UserID, budget.Category, start, end)
	if err != nil {
		return Status{}, err
	}

	percentageUsed := decimal.Zero
	if !budget.Amount.IsZero() {
		percentageUsed = spent.Div(budget.Amount).Mul(hundred).Round(2)
	}

	isOverBudget := spent.GreaterThan(budget.Amount)
	isNearLimit := percentageUsed.GreaterThanOrEqual(budget.AlertThreshold)

	status := Status{
		Spent:          spent,
		Remaining:      budget.Amount.Sub(spent),
		PercentageUsed: percentageUsed,
		IsOverBudget:   isOverBudget,
		IsNearLimit:    isNearLimit,
		AlertStatus:    AlertNormal,
	}

	switch {
	case isOverBudget:
		status.AlertStatus = AlertExceeded
	case isNearLimit:
		status.AlertStatus = AlertWarning
	}

	return status, nil
}

// List returns the matching active budgets of a user, each annotated with
// its computed status.
func (s *Service) List(userID uuid.UUID, filters Filters) ([]BudgetWithStatus, error) {
	query := s.db.Where("user_id = ? AND active = ?", userID, true)

	if filters.BudgetType != nil {
		query = query.Where("budget_type = ?", *filters.BudgetType)
	}
	if filters.Month != nil {
		query = query.Where("month = ?", *filters.Month)
	}
	if filters.Year != nil {
		query = query.Where("year = ?", *filters.Year)
	}
	if filters.Week != nil {
		query = query.Where("week = ?", *filters.Week)
	}

	var budgets []models.Budget
	err := query.Find(&budgets).Error
	if err != nil {
		return nil, err
	}

	statused := make([]BudgetWithStatus, 0, len(budgets))
	for _, budget := range budgets {
		status, err := s.ComputeStatus(budget)
		if err != nil {
			return nil, fmt.Errorf("computing status for budget %s: %w", budget.ID, err)
		}

		statused = append(statused, BudgetWithStatus{Budget: budget, Status: status})
	}

	return statused, nil
}

// Update applies a patch to a budget.
func (s *Service) Update(id, userID uuid.UUID, patch BudgetPatch) (models.Budget, error) {
	budget, err := s.getBudget(id, userID)
	if err != nil {
		return models.Budget{}, err
	}

	if patch.Amount != nil {
		budget.Amount = *patch.Amount
	}
	if patch.AlertThreshold != nil {
		budget.AlertThreshold = *patch.AlertThreshold
	}
	if patch.Description != nil {
		budget.Description = *patch.Description
	}
	if patch.Active != nil {
		budget.Active = *patch.Active
	}

	err = s.db.Save(&budget).Error
	if err != nil {
		return models.Budget{}, err
	}

	return budget, nil
}

// Delete removes a budget permanently.
func (s *Service) Delete(id, userID uuid.UUID) error {
	budget, err := s.getBudget(id, userID)
	if err != nil {
		return err
	}

	return s.db.Unscoped().Delete(&budget).Error
}

// GetSummary aggregates all active budgets of one period. Unspecified
// period fields default to the current month, ISO week and year at now.
func (s *Service) GetSummary(userID uuid.UUID, budgetType types.PeriodType, month, week, year *int, now time.Time) (Summary, error) {
	if budgetType == "" {
		budgetType = types.PeriodMonthly
	}
	if !budgetType.Valid() {
		return Summary{}, fmt.Errorf("%w, got %q", types.ErrInvalidPeriodType, string(budgetType))
	}

	p := types.BudgetPeriod{
		Type:  budgetType,
		Month: int(now.Month()),
		Week:  period.WeekNumber(now),
		Year:  now.Year(),
	}
	if month != nil {
		p.Month = *month
	}
	if week != nil {
		p.Week = *week
	}
	if year != nil {
		p.Year = *year
	}

	query := s.db.Where("user_id = ? AND active = ? AND budget_type = ? AND year = ?", userID, true, budgetType, p.Year)
	if budgetType == types.PeriodMonthly {
		query = query.Where("month = ?", p.Month)
	} else {
		query = query.Where("week = ?", p.Week)
	}

	var budgets []models.Budget
	err := query.Find(&budgets).Error
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Period:                p,
		TotalBudget:           decimal.Zero,
		TotalSpent:            decimal.Zero,
		TotalRemaining:        decimal.Zero,
		OverallPercentageUsed: decimal.Zero,
		CategoryBreakdown:     []CategoryBreakdown{},
		Alerts:                []CategoryBreakdown{},
	}

	for _, budget := range budgets {
		status, err := s.ComputeStatus(budget)
		if err != nil {
			return Summary{}, fmt.Errorf("computing status for budget %s: %w", budget.ID, err)
		}

		summary.TotalBudget = summary.TotalBudget.Add(budget.Amount)
		summary.TotalSpent = summary.TotalSpent.Add(status.Spent)

		breakdown := CategoryBreakdown{
			Category:       budget.Category,
			BudgetAmount:   budget.Amount,
			Spent:          status.Spent,
			Remaining:      status.Remaining,
			PercentageUsed: status.PercentageUsed,
			IsOverBudget:   status.IsOverBudget,
			IsNearLimit:    status.IsNearLimit,
			AlertStatus:    status.AlertStatus,
		}
		summary.CategoryBreakdown = append(summary.CategoryBreakdown, breakdown)

		if breakdown.AlertStatus != AlertNormal {
			summary.Alerts = append(summary.Alerts, breakdown)
		}
	}

	summary.TotalRemaining = summary.TotalBudget.Sub(summary.TotalSpent)
	if !summary.TotalBudget.IsZero() {
		summary.OverallPercentageUsed = summary.TotalSpent.Div(summary.TotalBudget).Mul(hundred).Round(2)
	}
	summary.IsOverBudget = summary.TotalSpent.GreaterThan(summary.TotalBudget)
	summary.IsNearLimit = summary.OverallPercentageUsed.GreaterThanOrEqual(models.DefaultAlertThreshold)

	return summary, nil
}

// Alerts computes the status of every active budget of a user, any period,
// and returns one alert per budget that is at or over its threshold. No
// clock is involved: each budget's stored period fully determines the
// aggregation bounds, past periods included.
func (s *Service) Alerts(userID uuid.UUID) ([]Alert, error) {
	var budgets []models.Budget
	err := s.db.Where("user_id = ? AND active = ?", userID, true).Find(&budgets).Error
	if err != nil {
		return nil, err
	}

	alerts := []Alert{}
	for _, budget := range budgets {
		status, err := s.ComputeStatus(budget)
		if err != nil {
			return nil, fmt.Errorf("computing status for budget %s: %w", budget.ID, err)
		}

		switch status.AlertStatus {
		case AlertExceeded:
			overBy := status.Spent.Sub(budget.Amount)
			alerts = append(alerts, Alert{
				Type:           AlertExceeded,
				Category:       budget.Category,
				BudgetAmount:   budget.Amount,
				Spent:          status.Spent,
				OverBy:         overBy,
				PercentageUsed: status.PercentageUsed,
				Message:        fmt.Sprintf("Budget exceeded for %s by %s", budget.Category, overBy.StringFixed(2)),
				BudgetType:     budget.BudgetType,
				Period:         budget.Period().String(),
			})
		case AlertWarning:
			alerts = append(alerts, Alert{
				Type:           AlertWarning,
				Category:       budget.Category,
				BudgetAmount:   budget.Amount,
				Spent:          status.Spent,
				Remaining:      status.Remaining,
				PercentageUsed: status.PercentageUsed,
				Message:        fmt.Sprintf("Budget warning: %s is %s%% used", budget.Category, status.PercentageUsed.StringFixed(1)),
				BudgetType:     budget.BudgetType,
				Period:         budget.Period().String(),
			})
		}
	}

	return alerts, nil
}

func (s *Service) getBudget(id, userID uuid.UUID) (models.Budget, error) {
	var budget models.Budget

	err := s.db.First(&budget, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return models.Budget{}, err
	}

	return budget, nil
}
