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

type AuthService struct {
	*base
	hasher utils.PasswordHasher
	tokens *utils.TokenManager
}

type RegisterInput struct {
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Password     string             `json:"password"`
	ConsentGiven bool               `json:"consentGiven"`
	BasicInfo    *models.BasicInfo  `json:"basicInfo"`
	HealthInfo   *models.HealthInfo `json:"healthInfo"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ProfileUpdate is a partial update of the caller's own profile.
type ProfileUpdate struct {
	Name         *string            `json:"name"`
	Email        *string            `json:"email"`
	HealthInfo   *models.HealthInfo `json:"healthInfo"`
	ConsentGiven *bool              `json:"consentGiven"`
}

// Register creates a patient account. Providers are created by admins and
// admins by the CLI, so the role is never taken from the caller.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	switch {
	case in.Name == "":
		return nil, validation("Name is required")
	case !s.validEmail(in.Email):
		return nil, validation("Please provide a valid email")
	case !in.ConsentGiven:
		return nil, validation("Consent is required to register")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Password:     hash,
		Role:         models.RolePatient,
		BasicInfo:    in.BasicInfo,
		HealthInfo:   in.HealthInfo,
		ConsentGiven: true,
		CreatedAt:    s.now(),
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validation("User already exists")
		}
		return nil, err
	}
	s.log.Info("patient registered", zap.String("userId", user.ID.Hex()))
	return s.issue(user)
}

// Login checks credentials. Every mismatch reports the same message.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, validation("Please provide an email and password")
	}
	user, err := s.store.Users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.CheckPasswordHash(password, user.Password) {
		return nil, unauthorized("Invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	id, err := objectID(userID, "user")
	if err != nil {
		return nil, err
	}
	return s.user(ctx, id, "User not found")
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	id, err := objectID(userID, "user")
	if err != nil {
		return nil, err
	}
	upd := repository.UserUpdate{HealthInfo: in.HealthInfo, ConsentGiven: in.ConsentGiven}
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
	return s.update(ctx, id, upd)
}

func (s *AuthService) UpdateBasicInfo(ctx context.Context, userID string, info models.BasicInfo) (*models.User, error) {
	id, err := objectID(userID, "user")
	if err != nil {
		return nil, err
	}
	if info.Age < 0 || info.Height < 0 || info.Weight < 0 {
		return nil, validation("Age, height and weight cannot be negative")
	}
	return s.update(ctx, id, repository.UserUpdate{BasicInfo: &info})
}

func (s *AuthService) update(ctx context.Context, id primitive.ObjectID, upd repository.UserUpdate) (*models.User, error) {
	if upd.Empty() {
		return s.user(ctx, id, "User not found")
	}
	user, err := s.store.Users.Update(ctx, id, upd)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, validation("Email is already in use")
	}
	if err != nil {
		return nil, wrapRepo(err, "User not found")
	}
	return user, nil
}

// EnsureAdmin creates the admin account unless a user with email already
// exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	if !s.validEmail(email) {
		return nil, false, validation("Please provide a valid email")
	}
	existing, err := s.store.Users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	if err := checkPassword(password); err != nil {
		return nil, false, err
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	admin := &models.User{
		Name:         name,
		Email:        email,
		Password:     hash,
		Role:         models.RoleAdmin,
		ConsentGiven: true,
		CreatedAt:    s.now(),
	}
	if err := s.store.Users.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	s.log.Info("admin created", zap.String("userId", admin.ID.Hex()), zap.String("email", email))
	return admin, true, nil
}
