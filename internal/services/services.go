// Package services holds the portal's domain operations. Services take and
// return plain ids as hex strings and report failures as *Error values.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/models"
	"github.com/harentsoaR/healthcare-portal/internal/repository"
	"github.com/harentsoaR/healthcare-portal/internal/utils"
)

const (
	minPasswordLength = 6
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

// checkPassword enforces the length bounds of a new password. The minimum
// counts characters, the maximum bytes.
func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return validation("Password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return validation("Password cannot be longer than %d bytes", maxPasswordBytes)
	}
	return nil
}

// Deps is everything the services are built from.
type Deps struct {
	Store    *repository.Store
	Tokens   *utils.TokenManager
	Hasher   utils.PasswordHasher
	Notifier Notifier
	Log      *zap.Logger

	GoalTargets     models.GoalTargets
	HistoryDays     int
	StatsWindowDays int

	// Now defaults to time.Now.
	Now func() time.Time
}

type Services struct {
	Auth      *AuthService
	Care      *CareService
	Goals     *GoalService
	Reminders *ReminderService
	Admin     *AdminService
	Dashboard *DashboardService
	Messages  *MessageService
}

type base struct {
	store    *repository.Store
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
	validate *validator.Validate
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Notifier == nil {
		d.Notifier = NewLogNotifier(d.Log)
	}
	if d.HistoryDays <= 0 {
		d.HistoryDays = 7
	}
	if d.StatsWindowDays <= 0 {
		d.StatsWindowDays = 7
	}
	b := &base{
		store:    d.Store,
		notifier: d.Notifier,
		log:      d.Log,
		now:      d.Now,
		validate: validator.New(),
	}

	goals := &GoalService{base: b, targets: d.GoalTargets, historyDays: d.HistoryDays}
	reminders := &ReminderService{base: b}
	care := &CareService{base: b}
	return &Services{
		Auth:      &AuthService{base: b, hasher: d.Hasher, tokens: d.Tokens},
		Care:      care,
		Goals:     goals,
		Reminders: reminders,
		Admin:     &AdminService{base: b, care: care, hasher: d.Hasher, windowDays: d.StatsWindowDays},
		Dashboard: &DashboardService{base: b, goals: goals, reminders: reminders},
		Messages:  &MessageService{base: b},
	}
}

func objectID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, validation("Invalid %s id", what)
	}
	return oid, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (b *base) validEmail(email string) bool {
	return b.validate.Var(email, "required,email") == nil
}

// user loads a user by id, mapping a miss to NotFound with msg.
func (b *base) user(ctx context.Context, id primitive.ObjectID, msg string) (*models.User, error) {
	u, err := b.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepo(err, msg)
	}
	return u, nil
}

// userWithRole is user plus a role check; a role mismatch is NotFound too.
func (b *base) userWithRole(ctx context.Context, id primitive.ObjectID, role, msg string) (*models.User, error) {
	u, err := b.user(ctx, id, msg)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, notFound("%s", msg)
	}
	return u, nil
}

// wrapRepo maps repository sentinels onto domain errors.
func wrapRepo(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound("%s", notFoundMsg)
	default:
		return err
	}
}
