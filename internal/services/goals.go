package services

import (
	"context"
	"strconv"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

const maxHistoryDays = 365

// GoalService owns the per-day wellness ledger.
type GoalService struct {
	*base
	targets     models.GoalTargets
	historyDays int
}

// Targets returns the default goal targets applied to new records.
func (s *GoalService) Targets() models.GoalTargets {
	return s.targets
}

// Today returns the caller's goal for the current day, creating it with
// zero metrics and the default targets on first access.
func (s *GoalService) Today(ctx context.Context, userID string) (*models.Goal, error) {
	id, err := objectID(userID, "user")
	if err != nil {
		return nil, err
	}
	return s.store.Goals.GetOrCreate(ctx, id, models.DayStart(s.now()), s.targets)
}

// UpdateToday merges the provided metrics into today's goal. Targets are
// never touched.
func (s *GoalService) UpdateToday(ctx context.Context, userID string, m models.GoalMetrics) (*models.Goal, error) {
	id, err := objectID(userID, "user")
	if err != nil {
		return nil, err
	}
	for _, v := range []*float64{m.Steps, m.ActiveTime, m.Sleep, m.CaloriesBurned, m.WaterIntake} {
		if v != nil && *v < 0 {
			return nil, validation("Goal values cannot be negative")
		}
	}
	day := models.DayStart(s.now())
	if m.Empty() {
		return s.store.Goals.GetOrCreate(ctx, id, day, s.targets)
	}
	return s.store.Goals.UpdateMetrics(ctx, id, day, m, s.targets)
}

// ParseHistoryDays turns the raw days query value into a day count. Empty
// means the configured default; anything above a year is capped.
func (s *GoalService) ParseHistoryDays(raw string) (int, error) {
	if raw == "" {
		return s.historyDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, validation("days must be a positive integer")
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}
	return days, nil
}

// History returns the goals of the last days days, most recent first.
func (s *GoalService) History(ctx context.Context, userID string, days int) ([]models.Goal, error) {
	id, err := objectID(userID, "user")
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, validation("days must be a positive integer")
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}
	since := s.now().AddDate(0, 0, -days)
	return s.store.Goals.History(ctx, id, since)
}
