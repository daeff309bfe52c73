package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/models"
	"github.com/harentsoaR/healthcare-portal/internal/repository"
	"github.com/harentsoaR/healthcare-portal/internal/utils"
)

// AdminService manages provider accounts and reports on the user base.
type AdminService struct {
	*base
	care       *CareService
	hasher     utils.PasswordHasher
	windowDays int
}

type Stats struct {
	TotalPatients            int64 `json:"totalPatients"`
	TotalProviders           int64 `json:"totalProviders"`
	PatientsWithProviders    int64 `json:"patientsWithProviders"`
	PatientsWithoutProviders int64 `json:"patientsWithoutProviders"`
	RecentPatients           int64 `json:"recentPatients"`
	RecentProviders          int64 `json:"recentProviders"`
}

type ProviderInput struct {
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Password     string               `json:"password"`
	ProviderInfo *models.ProviderInfo `json:"providerInfo"`
	BasicInfo    *models.BasicInfo    `json:"basicInfo"`
}

// ProviderUpdate lists the only fields an admin may change on a provider.
type ProviderUpdate struct {
	Name         *string              `json:"name"`
	Email        *string              `json:"email"`
	ProviderInfo *models.ProviderInfo `json:"providerInfo"`
	BasicInfo    *models.BasicInfo    `json:"basicInfo"`
}

// ProviderDetails is a provider with its patients resolved.
type ProviderDetails struct {
	*models.User
	Patients []models.UserRef `json:"assignedPatients"`
}

// PatientListing is a patient with its provider resolved.
type PatientListing struct {
	models.User
	Provider *models.UserRef `json:"assignedProvider,omitempty"`
}

// Stats is recomputed on every call.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	since := s.now().AddDate(0, 0, -s.windowDays)
	yes := true
	st := &Stats{}
	counts := []struct {
		q   repository.UserQuery
		dst *int64
	}{
		{repository.UserQuery{Role: models.RolePatient}, &st.TotalPatients},
		{repository.UserQuery{Role: models.RoleProvider}, &st.TotalProviders},
		{repository.UserQuery{Role: models.RolePatient, HasProvider: &yes}, &st.PatientsWithProviders},
		{repository.UserQuery{Role: models.RolePatient, CreatedSince: since}, &st.RecentPatients},
		{repository.UserQuery{Role: models.RoleProvider, CreatedSince: since}, &st.RecentProviders},
	}
	for _, c := range counts {
		n, err := s.store.Users.Count(ctx, c.q)
		if err != nil {
			return nil, fmt.Errorf("count users: %w", err)
		}
		*c.dst = n
	}
	st.PatientsWithoutProviders = st.TotalPatients - st.PatientsWithProviders
	return st, nil
}

func (s *AdminService) ListProviders(ctx context.Context) ([]models.User, error) {
	return s.store.Users.List(ctx, repository.UserQuery{Role: models.RoleProvider})
}

func (s *AdminService) provider(ctx context.Context, providerID string) (*models.User, error) {
	id, err := objectID(providerID, "provider")
	if err != nil {
		return nil, err
	}
	return s.userWithRole(ctx, id, models.RoleProvider, "Provider not found")
}

func (s *AdminService) GetProvider(ctx context.Context, providerID string) (*ProviderDetails, error) {
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	patients, err := s.store.Users.GetMany(ctx, p.AssignedPatients)
	if err != nil {
		return nil, err
	}
	refs := make([]models.UserRef, 0, len(patients))
	for i := range patients {
		refs = append(refs, patients[i].Ref())
	}
	return &ProviderDetails{User: p, Patients: refs}, nil
}

func (s *AdminService) CreateProvider(ctx context.Context, in ProviderInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	switch {
	case in.Name == "":
		return nil, validation("Name is required")
	case !s.validEmail(in.Email):
		return nil, validation("Please provide a valid email")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if in.ProviderInfo != nil && len(in.ProviderInfo.Bio) > 1000 {
		return nil, validation("Bio cannot be more than 1000 characters")
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Password:     hash,
		Role:         models.RoleProvider,
		ProviderInfo: in.ProviderInfo,
		BasicInfo:    in.BasicInfo,
		ConsentGiven: true,
		CreatedAt:    s.now(),
	}
	if err := s.store.Users.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validation("Provider with this email already exists")
		}
		return nil, err
	}
	s.log.Info("[Admin] provider created", zap.String("providerId", p.ID.Hex()))
	return p, nil
}

func (s *AdminService) UpdateProvider(ctx context.Context, providerID string, in ProviderUpdate) (*models.User, error) {
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	upd := repository.UserUpdate{ProviderInfo: in.ProviderInfo, BasicInfo: in.BasicInfo}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validation("Name cannot be empty")
		}
		upd.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if !s.validEmail(email) {
			return nil, validation("Please provide a valid email")
		}
		upd.Email = &email
	}
	if in.ProviderInfo != nil && len(in.ProviderInfo.Bio) > 1000 {
		return nil, validation("Bio cannot be more than 1000 characters")
	}
	if upd.Empty() {
		return p, nil
	}

	updated, err := s.store.Users.Update(ctx, p.ID, upd)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, validation("Provider with this email already exists")
	}
	if err != nil {
		return nil, wrapRepo(err, "Provider not found")
	}
	s.log.Info("[Admin] provider updated", zap.String("providerId", providerID))
	return updated, nil
}

func (s *AdminService) DeleteProvider(ctx context.Context, providerID string) error {
	if err := s.care.DeleteProvider(ctx, providerID); err != nil {
		return err
	}
	s.log.Info("[Admin] provider deleted", zap.String("providerId", providerID))
	return nil
}

func (s *AdminService) ResetProviderPassword(ctx context.Context, providerID, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return err
	}
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users.SetPassword(ctx, p.ID, hash); err != nil {
		return wrapRepo(err, "Provider not found")
	}
	s.log.Info("[Admin] provider password reset", zap.String("providerId", providerID))
	return nil
}

// ListPatients returns every patient, newest first, with the assigned
// provider resolved.
func (s *AdminService) ListPatients(ctx context.Context) ([]PatientListing, error) {
	patients, err := s.store.Users.List(ctx, repository.UserQuery{Role: models.RolePatient})
	if err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, p := range patients {
		if p.AssignedProvider != nil && !seen[*p.AssignedProvider] {
			seen[*p.AssignedProvider] = true
			ids = append(ids, *p.AssignedProvider)
		}
	}
	refs := make(map[primitive.ObjectID]models.UserRef, len(ids))
	if len(ids) > 0 {
		providers, err := s.store.Users.GetMany(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range providers {
			refs[providers[i].ID] = providers[i].Ref()
		}
	}

	out := make([]PatientListing, 0, len(patients))
	for _, p := range patients {
		l := PatientListing{User: p}
		if p.AssignedProvider != nil {
			if ref, ok := refs[*p.AssignedProvider]; ok {
				l.Provider = &ref
			}
		}
		out = append(out, l)
	}
	return out, nil
}
