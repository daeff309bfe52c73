package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/models"
	"github.com/harentsoaR/healthcare-portal/internal/repository"
)

const detailGoalDays = 7

// CareService maintains the patient/provider assignment and the provider's
// view of its patients.
type CareService struct {
	*base
}

// PatientSummary is a patient as listed to its provider.
type PatientSummary struct {
	models.User
	ComplianceStatus string `json:"complianceStatus"`
	PendingReminders int64  `json:"pendingReminders"`
}

type PatientDetails struct {
	Patient   *models.User      `json:"patient"`
	Goals     []models.Goal     `json:"goals"`
	Reminders []models.Reminder `json:"reminders"`
}

// AssignProvider links the patient to the provider on both sides. A
// previous provider loses the patient first. Re-assigning the current
// provider only ensures membership.
func (s *CareService) AssignProvider(ctx context.Context, patientID, providerID string) (*models.User, error) {
	pid, err := objectID(patientID, "patient")
	if err != nil {
		return nil, err
	}
	rid, err := objectID(providerID, "provider")
	if err != nil {
		return nil, err
	}
	patient, err := s.userWithRole(ctx, pid, models.RolePatient, "Patient not found")
	if err != nil {
		return nil, err
	}
	if _, err := s.userWithRole(ctx, rid, models.RoleProvider, "Provider not found"); err != nil {
		return nil, err
	}

	previous := patient.AssignedProvider
	if err := s.store.Users.Assign(ctx, pid, rid, previous); err != nil {
		return nil, wrapRepo(err, "Provider not found")
	}
	if previous == nil || *previous != rid {
		if previous != nil {
			s.notifier.ProviderUnassigned(patientID, previous.Hex())
		}
		s.notifier.ProviderAssigned(patientID, providerID)
	}
	return s.user(ctx, rid, "Provider not found")
}

// UnassignProvider removes the patient's provider on both sides.
func (s *CareService) UnassignProvider(ctx context.Context, patientID string) error {
	pid, err := objectID(patientID, "patient")
	if err != nil {
		return err
	}
	patient, err := s.userWithRole(ctx, pid, models.RolePatient, "Patient not found")
	if err != nil {
		return err
	}
	if patient.AssignedProvider == nil {
		return invalidState("No provider assigned")
	}
	rid := *patient.AssignedProvider
	if err := s.store.Users.Unassign(ctx, pid, rid); err != nil {
		return wrapRepo(err, "Patient not found")
	}
	s.notifier.ProviderUnassigned(patientID, rid.Hex())
	return nil
}

// DeleteProvider clears the provider from every patient pointing at it and
// removes the provider account.
func (s *CareService) DeleteProvider(ctx context.Context, providerID string) error {
	rid, err := objectID(providerID, "provider")
	if err != nil {
		return err
	}
	if _, err := s.userWithRole(ctx, rid, models.RoleProvider, "Provider not found"); err != nil {
		return err
	}
	patients, err := s.store.Users.List(ctx, repository.UserQuery{Role: models.RolePatient, AssignedProvider: &rid})
	if err != nil {
		return fmt.Errorf("list assigned patients: %w", err)
	}
	if err := s.store.Users.DeleteProvider(ctx, rid); err != nil {
		return wrapRepo(err, "Provider not found")
	}
	for _, p := range patients {
		s.notifier.ProviderUnassigned(p.ID.Hex(), providerID)
	}
	return nil
}

// AvailableProviders lists every provider, newest first.
func (s *CareService) AvailableProviders(ctx context.Context) ([]models.User, error) {
	return s.store.Users.List(ctx, repository.UserQuery{Role: models.RoleProvider})
}

func (s *CareService) AssignedProvider(ctx context.Context, patientID string) (*models.User, error) {
	pid, err := objectID(patientID, "patient")
	if err != nil {
		return nil, err
	}
	patient, err := s.user(ctx, pid, "Patient not found")
	if err != nil {
		return nil, err
	}
	if patient.AssignedProvider == nil {
		return nil, notFound("No provider assigned")
	}
	return s.user(ctx, *patient.AssignedProvider, "No provider assigned")
}

// Compliance computes the status of one patient at the current time.
func (s *CareService) Compliance(ctx context.Context, patientID primitive.ObjectID) (string, int64, error) {
	now := s.now()
	today, err := s.store.Goals.FindByDay(ctx, patientID, models.DayStart(now))
	if errors.Is(err, repository.ErrNotFound) {
		today, err = nil, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("find today's goal: %w", err)
	}
	overdue, err := s.store.Reminders.CountOverdue(ctx, patientID, now)
	if err != nil {
		return "", 0, fmt.Errorf("count overdue reminders: %w", err)
	}
	return ComplianceStatus(today, overdue), overdue, nil
}

// Patients lists the provider's patients with their compliance status.
func (s *CareService) Patients(ctx context.Context, providerID string) ([]PatientSummary, error) {
	rid, err := objectID(providerID, "provider")
	if err != nil {
		return nil, err
	}
	patients, err := s.store.Users.List(ctx, repository.UserQuery{Role: models.RolePatient, AssignedProvider: &rid})
	if err != nil {
		return nil, err
	}

	out := make([]PatientSummary, 0, len(patients))
	for _, p := range patients {
		status, overdue, err := s.Compliance(ctx, p.ID)
		if err != nil {
			s.log.Error("compute compliance", zap.String("patientId", p.ID.Hex()), zap.Error(err))
			return nil, err
		}
		out = append(out, PatientSummary{User: p, ComplianceStatus: status, PendingReminders: overdue})
	}
	return out, nil
}

// PatientDetails returns a patient of the provider with the last week of
// goals and every reminder.
func (s *CareService) PatientDetails(ctx context.Context, providerID, patientID string) (*PatientDetails, error) {
	rid, err := objectID(providerID, "provider")
	if err != nil {
		return nil, err
	}
	pid, err := objectID(patientID, "patient")
	if err != nil {
		return nil, err
	}
	patient, err := s.userWithRole(ctx, pid, models.RolePatient, "Patient not found")
	if err != nil {
		return nil, err
	}
	if patient.AssignedProvider == nil || *patient.AssignedProvider != rid {
		return nil, forbidden("Not authorized to view this patient")
	}

	since := models.DayStart(s.now()).AddDate(0, 0, -detailGoalDays)
	goals, err := s.store.Goals.History(ctx, pid, since)
	if err != nil {
		return nil, err
	}
	reminders, err := s.store.Reminders.ListByUser(ctx, pid, repository.ReminderQuery{})
	if err != nil {
		return nil, err
	}
	return &PatientDetails{Patient: patient, Goals: goals, Reminders: reminders}, nil
}
