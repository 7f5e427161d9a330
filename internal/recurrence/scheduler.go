// Package recurrence implements the scheduling engine that turns recurring
// rules into ledger entries, exactly once per occurrence.
package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/centsible/backend/internal/metrics"
	"github.com/centsible/backend/internal/models"
	"github.com/centsible/backend/internal/period"
	"github.com/centsible/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReminderDays is the size of the reminder window before a due date.
const ReminderDays = 1

var ErrMissingRequiredFields = errors.New("name, category, amount, frequency and start date are required")

// Scheduler generates ledger entries from recurring rules and owns the rule
// lifecycle. It is safe to invoke the generation cycle arbitrarily often.
type Scheduler struct {
	db  *gorm.DB
	log zerolog.Logger

	// Now is the clock used where no explicit instant is passed in.
	// Overridable for tests.
	Now func() time.Time
}

// NewScheduler returns a Scheduler using the given database handle.
func NewScheduler(db *gorm.DB, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		db:  db,
		log: log,
		Now: func() time.Time { return time.Now().In(time.UTC) },
	}
}

// RuleCreate defines all values required to create a recurring rule.
type RuleCreate struct {
	UserID      uuid.UUID
	Name        string
	Category    string
	Amount      decimal.Decimal
	IsIncome    bool
	Frequency   types.Frequency
	StartDate   time.Time
	EndDate     *time.Time
	Description string
}

// RulePatch contains the fields of a rule that can be updated. Nil fields
// are left unchanged.
type RulePatch struct {
	Name        *string
	Category    *string
	Amount      *decimal.Decimal
	IsIncome    *bool
	Frequency   *types.Frequency
	StartDate   *time.Time
	EndDate     *time.Time
	Description *string
	Active      *bool
}

// RuleHistory is the generation history of a single rule.
type RuleHistory struct {
	Rule           models.RecurringRule
	Entries        []models.LedgerEntry
	TotalGenerated int
}

// CreateRule validates the input and persists a new rule. The first due date
// is one cadence step after the start date.
func (s *Scheduler) CreateRule(create RuleCreate) (models.RecurringRule, error) {
	if create.Name == "" || create.Category == "" || create.Amount.IsZero() ||
		create.Frequency == "" || create.StartDate.IsZero() {
		return models.RecurringRule{}, ErrMissingRequiredFields
	}

	nextDue, err := period.NextDue(create.StartDate, create.Frequency)
	if err != nil {
		return models.RecurringRule{}, err
	}

	rule := models.RecurringRule{
		UserID:      create.UserID,
		Name:        create.Name,
		Category:    create.Category,
		Amount:      create.Amount,
		IsIncome:    create.IsIncome,
		Frequency:   create.Frequency,
		StartDate:   create.StartDate,
		EndDate:     create.EndDate,
		NextDueDate: nextDue,
		Active:      true,
		Description: create.Description,
	}

	err = s.db.Create(&rule).Error
	if err != nil {
		return models.RecurringRule{}, err
	}

	return rule, nil
}

// List returns all rules of a user, active or not.
func (s *Scheduler) List(userID uuid.UUID) ([]models.RecurringRule, error) {
	var rules []models.RecurringRule

	err := s.db.Where("user_id = ?", userID).Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// UpdateRule applies a patch to a rule. When the patch touches the start
// date or the frequency, the next due date is re-anchored from the effective
// new values. Generation history is not preserved across a re-anchor.
func (s *Scheduler) UpdateRule(id, userID uuid.UUID, patch RulePatch) (models.RecurringRule, error) {
	rule, err := s.getRule(id, userID)
	if err != nil {
		return models.RecurringRule{}, err
	}

	if patch.Frequency != nil && !patch.Frequency.Valid() {
		return models.RecurringRule{}, fmt.Errorf("%w, got %q", types.ErrInvalidFrequency, string(*patch.Frequency))
	}

	if patch.StartDate != nil || patch.Frequency != nil {
		startDate := rule.StartDate
		if patch.StartDate != nil {
			startDate = *patch.StartDate
		}

		frequency := rule.Frequency
		if patch.Frequency != nil {
			frequency = *patch.Frequency
		}

		nextDue, err := period.NextDue(startDate, frequency)
		if err != nil {
			return models.RecurringRule{}, err
		}

		rule.NextDueDate = nextDue
	}

	if patch.Name != nil {
		rule.Name = *patch.Name
	}
	if patch.Category != nil {
		rule.Category = *patch.Category
	}
	if patch.Amount != nil {
		rule.Amount = *patch.Amount
	}
	if patch.IsIncome != nil {
		rule.IsIncome = *patch.IsIncome
	}
	if patch.Frequency != nil {
		rule.Frequency = *patch.Frequency
	}
	if patch.StartDate != nil {
		rule.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		rule.EndDate = patch.EndDate
	}
	if patch.Description != nil {
		rule.Description = *patch.Description
	}
	if patch.Active != nil {
		rule.Active = *patch.Active
	}

	err = s.db.Save(&rule).Error
	if err != nil {
		return models.RecurringRule{}, err
	}

	return rule, nil
}

// ToggleActive pauses or resumes a rule. The next due date is left
// untouched: a resumed rule generates against whatever due date it was
// paused at, catching up one occurrence per cycle.
func (s *Scheduler) ToggleActive(id, userID uuid.UUID, active bool) (models.RecurringRule, error) {
	rule, err := s.getRule(id, userID)
	if err != nil {
		return models.RecurringRule{}, err
	}

	rule.Active = active

	err = s.db.Save(&rule).Error
	if err != nil {
		return models.RecurringRule{}, err
	}

	return rule, nil
}

// DeleteRule removes a rule permanently. Generated ledger entries keep
// their back-reference as historical provenance.
func (s *Scheduler) DeleteRule(id, userID uuid.UUID) error {
	rule, err := s.getRule(id, userID)
	if err != nil {
		return err
	}

	return s.db.Unscoped().Delete(&rule).Error
}

// ListUpcoming returns the active rules with a due date within the given
// number of days from now, soonest first.
func (s *Scheduler) ListUpcoming(userID uuid.UUID, withinDays int) ([]models.RecurringRule, error) {
	now := s.Now()
	until := now.AddDate(0, 0, withinDays)

	var rules []models.RecurringRule
	err := s.db.
		Where("user_id = ? AND active = ? AND next_due_date >= ? AND next_due_date <= ?", userID, true, now, until).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("next_due_date ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// History returns all entries generated from a rule, newest first.
func (s *Scheduler) History(id, userID uuid.UUID) (RuleHistory, error) {
	rule, err := s.getRule(id, userID)
	if err != nil {
		return RuleHistory{}, err
	}

	var entries []models.LedgerEntry
	err = s.db.
		Where("user_id = ? AND recurring_rule_id = ?", userID, id).
		Order("date DESC").
		Find(&entries).Error
	if err != nil {
		return RuleHistory{}, err
	}

	return RuleHistory{
		Rule:           rule,
		Entries:        entries,
		TotalGenerated: len(entries),
	}, nil
}

// RunGenerationCycle generates one ledger entry for every active rule whose
// due date has been reached and advances the rule state.
//
// Rules are processed independently: a failing rule is logged, skipped and
// retried on the next cycle since its state was not advanced. Re-invocation
// before any rule becomes due again is a no-op.
func (s *Scheduler) RunGenerationCycle(ctx context.Context, now time.Time) error {
	metrics.CyclesRun.Inc()

	today := period.Day(now)
	tomorrow := today.AddDate(0, 0, 1)

	var due []models.RecurringRule
	err := s.db.WithContext(ctx).
		Where("active = ? AND next_due_date < ?", true, tomorrow).
		Where("end_date IS NULL OR end_date >= ?", today).
		Find(&due).Error
	if err != nil {
		return fmt.Errorf("selecting due rules: %w", err)
	}

	s.log.Debug().Int("due", len(due)).Time("now", now).Msg("running generation cycle")

	for _, rule := range due {
		// A cycle may be interrupted between rules without corrupting
		// state, each rule advances in its own transaction.
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.processRule(ctx, rule); err != nil {
			metrics.RuleFailures.Inc()
			s.log.Error().Err(err).
				Str("rule", rule.ID.String()).
				Str("name", rule.Name).
				Msg("generating entry from recurring rule failed")
		}
	}

	return nil
}

// processRule runs the check-create-advance sequence for one rule in a
// single transaction.
func (s *Scheduler) processRule(ctx context.Context, rule models.RecurringRule) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		generated, err := s.generateEntry(tx, rule)
		if err != nil {
			return err
		}

		if generated {
			metrics.EntriesGenerated.Inc()
			s.log.Info().
				Str("rule", rule.ID.String()).
				Str("name", rule.Name).
				Time("date", rule.NextDueDate).
				Msg("generated ledger entry from recurring rule")
		} else {
			metrics.DuplicatesSkipped.Inc()
			s.log.Debug().
				Str("rule", rule.ID.String()).
				Time("date", rule.NextDueDate).
				Msg("entry already exists for occurrence, advancing rule only")
		}

		// Advance from the previous due date, not from now. This keeps the
		// cadence anchored even when the cycle runs late.
		nextDue, err := period.NextDue(rule.NextDueDate, rule.Frequency)
		if err != nil {
			return err
		}

		// Update through the loaded instance so the model hooks see the
		// full rule, not a zero value
		return tx.Model(&rule).
			Updates(map[string]any{
				"next_due_date":       nextDue,
				"last_generated_date": rule.NextDueDate,
				"generated_count":     gorm.Expr("generated_count + 1"),
				"reminder_sent":       false,
			}).Error
	})
}

// generateEntry creates the ledger entry for the rule's current occurrence
// unless one already exists. It reports whether an entry was created.
//
// The duplicate check first looks for an entry carrying the rule's
// back-reference for exactly this occurrence, then falls back to the
// attribute heuristic for entries that predate the back-reference or were
// recorded manually. The heuristic matches within a day of the due date and
// is best-effort; it ignores the rule's own generated entries so that
// daily cadences are not suppressed by the previous day's entry.
func (s *Scheduler) generateEntry(tx *gorm.DB, rule models.RecurringRule) (bool, error) {
	var count int64
	err := tx.Model(&models.LedgerEntry{}).
		Where("recurring_rule_id = ? AND date = ?", rule.ID, rule.NextDueDate).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	if count == 0 {
		windowStart := rule.NextDueDate.Add(-24 * time.Hour)
		windowEnd := rule.NextDueDate.Add(24 * time.Hour)

		err = tx.Model(&models.LedgerEntry{}).
			Where("user_id = ? AND name = ? AND category = ? AND amount = ? AND is_income = ? AND date >= ? AND date < ?",
				rule.UserID, rule.Name, rule.Category, rule.Amount, rule.IsIncome, windowStart, windowEnd).
			Where("recurring_rule_id IS NULL OR recurring_rule_id != ?", rule.ID).
			Count(&count).Error
		if err != nil {
			return false, err
		}
	}

	if count > 0 {
		return false, nil
	}

	description := rule.Description
	if description == "" {
		description = fmt.Sprintf("Auto-generated from recurring: %s", rule.Name)
	}

	entry := models.LedgerEntry{
		UserID:          rule.UserID,
		Name:            rule.Name,
		Category:        rule.Category,
		Amount:          rule.Amount,
		IsIncome:        rule.IsIncome,
		Date:            rule.NextDueDate,
		Description:     description,
		Generated:       true,
		RecurringRuleID: &rule.ID,
	}

	err = tx.Create(&entry).Error
	if err != nil {
		return false, err
	}

	return true, nil
}

// ProcessReminders flags active rules whose due date falls into the
// reminder window and logs the upcoming payment. The generation cycle
// resets the flag when it advances a rule, so every occurrence gets its
// own reminder.
func (s *Scheduler) ProcessReminders(ctx context.Context, now time.Time) error {
	var rules []models.RecurringRule
	err := s.db.WithContext(ctx).
		Where("active = ? AND reminder_sent = ?", true, false).
		Find(&rules).Error
	if err != nil {
		return fmt.Errorf("selecting rules for reminders: %w", err)
	}

	for _, rule := range rules {
		if !period.IsReminderDue(rule.NextDueDate, now, ReminderDays) {
			continue
		}

		s.log.Info().
			Str("rule", rule.ID.String()).
			Str("name", rule.Name).
			Time("due", rule.NextDueDate).
			Msg("upcoming payment due tomorrow")

		err := s.db.Model(&rule).Update("reminder_sent", true).Error
		if err != nil {
			s.log.Error().Err(err).Str("rule", rule.ID.String()).Msg("marking reminder as sent failed")
			continue
		}

		metrics.RemindersFlagged.Inc()
	}

	return nil
}

func (s *Scheduler) getRule(id, userID uuid.UUID) (models.RecurringRule, error) {
	var rule models.RecurringRule

	err := s.db.First(&rule, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return models.RecurringRule{}, err
	}

	return rule, nil
}
