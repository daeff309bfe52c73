package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ReminderTypes = []string{"checkup", "bloodtest", "vaccination", "medication", "other"}

type Reminder struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User        primitive.ObjectID  `bson:"user" json:"user"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Type        string              `bson:"type" json:"type"`
	DueDate     time.Time           `bson:"dueDate" json:"dueDate"`
	Completed   bool                `bson:"completed" json:"completed"`
	CompletedAt *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedBy   *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// Overdue reports whether the reminder is past due and still open at now.
func (r *Reminder) Overdue(now time.Time) bool {
	return !r.Completed && r.DueDate.Before(now)
}

func ValidReminderType(t string) bool {
	for _, v := range ReminderTypes {
		if v == t {
			return true
		}
	}
	return false
}
