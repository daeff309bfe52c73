// Package repository defines the persistence interfaces of the portal and
// their MongoDB implementation.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserQuery filters users. Zero fields are ignored.
type UserQuery struct {
	Role             string
	AssignedProvider *primitive.ObjectID
	HasProvider      *bool
	CreatedSince     time.Time
}

// UserUpdate is a partial update of a user profile. Nil fields are left
// untouched.
type UserUpdate struct {
	Name         *string
	Email        *string
	BasicInfo    *models.BasicInfo
	HealthInfo   *models.HealthInfo
	ProviderInfo *models.ProviderInfo
	ConsentGiven *bool
}

func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.BasicInfo == nil && u.HealthInfo == nil &&
		u.ProviderInfo == nil && u.ConsentGiven == nil
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	// List returns matching users, newest first.
	List(ctx context.Context, q UserQuery) ([]models.User, error)
	Count(ctx context.Context, q UserQuery) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, u UserUpdate) (*models.User, error)
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error

	// Assign links patient and provider on both sides, first removing the
	// patient from previous when it is set and differs from provider.
	Assign(ctx context.Context, patientID, providerID primitive.ObjectID, previous *primitive.ObjectID) error
	// Unassign removes the link on both sides.
	Unassign(ctx context.Context, patientID, providerID primitive.ObjectID) error
	// DeleteProvider clears assignedProvider on every patient referencing
	// the provider, then removes the provider.
	DeleteProvider(ctx context.Context, providerID primitive.ObjectID) error
}

type GoalRepository interface {
	FindByDay(ctx context.Context, userID primitive.ObjectID, day time.Time) (*models.Goal, error)
	// GetOrCreate returns the goal of day, inserting a zeroed one with
	// targets when none exists.
	GetOrCreate(ctx context.Context, userID primitive.ObjectID, day time.Time, targets models.GoalTargets) (*models.Goal, error)
	// UpdateMetrics merges m into the goal of day, creating it first if
	// needed, and returns the result.
	UpdateMetrics(ctx context.Context, userID primitive.ObjectID, day time.Time, m models.GoalMetrics, targets models.GoalTargets) (*models.Goal, error)
	// History returns goals dated on or after since, most recent first.
	History(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.Goal, error)
}

// ReminderQuery filters a user's reminders.
type ReminderQuery struct {
	PendingOnly bool
	DueFrom     time.Time
	Limit       int64
}

type ReminderRepository interface {
	Create(ctx context.Context, r *models.Reminder) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reminder, error)
	// MarkCompleted sets completed and completedAt unless already completed.
	MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Reminder, error)
	// ListByUser returns reminders sorted by due date ascending.
	ListByUser(ctx context.Context, userID primitive.ObjectID, q ReminderQuery) ([]models.Reminder, error)
	CountOverdue(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error)
}

type HealthTipRepository interface {
	// Random returns an active tip, or nil when there are none.
	Random(ctx context.Context) (*models.HealthTip, error)
	ReplaceAll(ctx context.Context, tips []models.HealthTip) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// ListConversation returns the messages of a conversation, oldest first.
	ListConversation(ctx context.Context, id models.ConversationID) ([]models.Message, error)
}

// Store bundles every repository.
type Store struct {
	Users     UserRepository
	Goals     GoalRepository
	Reminders ReminderRepository
	Tips      HealthTipRepository
	Messages  MessageRepository
}
