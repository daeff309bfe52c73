package services

import (
	"context"
	"fmt"
	"time"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

const dashboardReminders = 5

// DashboardService assembles the patient landing page and manages the
// health-tip collection.
type DashboardService struct {
	*base
	goals     *GoalService
	reminders *ReminderService
}

type Dashboard struct {
	Goals     *models.Goal      `json:"goals"`
	Reminders []models.Reminder `json:"reminders"`
	HealthTip *models.HealthTip `json:"healthTip"`
}

// Dashboard returns today's goal (created on first access), the next
// upcoming reminders and a random active tip, which may be nil.
func (s *DashboardService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	goal, err := s.goals.Today(ctx, userID)
	if err != nil {
		return nil, err
	}
	reminders, err := s.reminders.Upcoming(ctx, goal.User, dashboardReminders)
	if err != nil {
		return nil, fmt.Errorf("upcoming reminders: %w", err)
	}
	tip, err := s.store.Tips.Random(ctx)
	if err != nil {
		return nil, fmt.Errorf("random tip: %w", err)
	}
	return &Dashboard{Goals: goal, Reminders: reminders, HealthTip: tip}, nil
}

// SeedTips replaces the tip collection with tips, all marked active.
func (s *DashboardService) SeedTips(ctx context.Context, tips []models.HealthTip) (int, error) {
	now := s.now()
	seeded := make([]models.HealthTip, len(tips))
	for i, t := range tips {
		t.Active = true
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		}
		seeded[i] = t
	}
	if err := s.store.Tips.ReplaceAll(ctx, seeded); err != nil {
		return 0, fmt.Errorf("replace tips: %w", err)
	}
	return len(seeded), nil
}
