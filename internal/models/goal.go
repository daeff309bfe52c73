package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal is one user's wellness record for a single calendar day.
type Goal struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User           primitive.ObjectID `bson:"user" json:"user"`
	Date           time.Time          `bson:"date" json:"date"` // midnight of the day
	Steps          float64            `bson:"steps" json:"steps"`
	ActiveTime     float64            `bson:"activeTime" json:"activeTime"`         // minutes
	Sleep          float64            `bson:"sleep" json:"sleep"`                   // hours
	CaloriesBurned float64            `bson:"caloriesBurned" json:"caloriesBurned"` // kcal
	WaterIntake    float64            `bson:"waterIntake" json:"waterIntake"`       // ml
	Targets        GoalTargets        `bson:"targets" json:"targets"`
}

type GoalTargets struct {
	Steps       float64 `bson:"steps" json:"steps"`
	ActiveTime  float64 `bson:"activeTime" json:"activeTime"`
	Sleep       float64 `bson:"sleep" json:"sleep"`
	WaterIntake float64 `bson:"waterIntake" json:"waterIntake"`
}

// GoalMetrics is a partial update of a Goal's current values. Nil fields
// are left untouched.
type GoalMetrics struct {
	Steps          *float64 `json:"steps"`
	ActiveTime     *float64 `json:"activeTime"`
	Sleep          *float64 `json:"sleep"`
	CaloriesBurned *float64 `json:"caloriesBurned"`
	WaterIntake    *float64 `json:"waterIntake"`
}

// Empty reports whether no metric was provided.
func (m GoalMetrics) Empty() bool {
	return m.Steps == nil && m.ActiveTime == nil && m.Sleep == nil &&
		m.CaloriesBurned == nil && m.WaterIntake == nil
}

// Apply merges the provided fields into g.
func (m GoalMetrics) Apply(g *Goal) {
	if m.Steps != nil {
		g.Steps = *m.Steps
	}
	if m.ActiveTime != nil {
		g.ActiveTime = *m.ActiveTime
	}
	if m.Sleep != nil {
		g.Sleep = *m.Sleep
	}
	if m.CaloriesBurned != nil {
		g.CaloriesBurned = *m.CaloriesBurned
	}
	if m.WaterIntake != nil {
		g.WaterIntake = *m.WaterIntake
	}
}

// DayStart truncates t to local midnight of its calendar day.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
