package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/healthcare-portal/internal/models"
	"github.com/harentsoaR/healthcare-portal/internal/repository"
)

const defaultReminderType = "checkup"

// ReminderService owns the preventive-care reminder ledger.
type ReminderService struct {
	*base
}

type ReminderInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	DueDate     *time.Time `json:"dueDate"`
}

// Create adds a reminder for a patient. Only the patient's assigned
// provider may do so.
func (s *ReminderService) Create(ctx context.Context, patientID, creatorID string, in ReminderInput) (*models.Reminder, error) {
	pid, err := objectID(patientID, "patient")
	if err != nil {
		return nil, err
	}
	cid, err := objectID(creatorID, "user")
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Type == "" {
		in.Type = defaultReminderType
	}
	switch {
	case in.Title == "":
		return nil, validation("Title is required")
	case in.DueDate == nil || in.DueDate.IsZero():
		return nil, validation("Due date is required")
	case !models.ValidReminderType(in.Type):
		return nil, validation("Type must be one of %s", strings.Join(models.ReminderTypes, ", "))
	}

	patient, err := s.userWithRole(ctx, pid, models.RolePatient, "Patient not found")
	if err != nil {
		return nil, err
	}
	if patient.AssignedProvider == nil || *patient.AssignedProvider != cid {
		return nil, forbidden("Not authorized to create reminders for this patient")
	}

	r := &models.Reminder{
		User:        pid,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		DueDate:     *in.DueDate,
		CreatedBy:   &cid,
		CreatedAt:   s.now(),
	}
	if err := s.store.Reminders.Create(ctx, r); err != nil {
		return nil, err
	}
	s.notifier.ReminderCreated(r)
	return r, nil
}

// Complete marks a reminder done. Only its owner may complete it;
// completing twice keeps the first completion time.
func (s *ReminderService) Complete(ctx context.Context, reminderID, requesterID string) (*models.Reminder, error) {
	id, err := objectID(reminderID, "reminder")
	if err != nil {
		return nil, err
	}
	uid, err := objectID(requesterID, "user")
	if err != nil {
		return nil, err
	}
	r, err := s.store.Reminders.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepo(err, "Reminder not found")
	}
	if r.User != uid {
		return nil, forbidden("Not authorized to update this reminder")
	}
	if r.Completed {
		return r, nil
	}
	r, err = s.store.Reminders.MarkCompleted(ctx, id, s.now())
	if err != nil {
		return nil, wrapRepo(err, "Reminder not found")
	}
	return r, nil
}

// ListForUser returns all of a user's reminders, earliest due first.
func (s *ReminderService) ListForUser(ctx context.Context, userID string) ([]models.Reminder, error) {
	id, err := objectID(userID, "user")
	if err != nil {
		return nil, err
	}
	return s.store.Reminders.ListByUser(ctx, id, repository.ReminderQuery{})
}

// Upcoming returns up to limit open reminders due from now on.
func (s *ReminderService) Upcoming(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Reminder, error) {
	return s.store.Reminders.ListByUser(ctx, userID, repository.ReminderQuery{
		PendingOnly: true,
		DueFrom:     s.now(),
		Limit:       limit,
	})
}
