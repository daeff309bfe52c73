package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

type MongoGoalRepo struct {
	coll *mongo.Collection
}

func (r *MongoGoalRepo) FindByDay(ctx context.Context, userID primitive.ObjectID, day time.Time) (*models.Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var goal models.Goal
	if err := r.coll.FindOne(ctx, bson.M{"user": userID, "date": day}).Decode(&goal); err != nil {
		return nil, translate(err)
	}
	return &goal, nil
}

func (r *MongoGoalRepo) GetOrCreate(ctx context.Context, userID primitive.ObjectID, day time.Time, targets models.GoalTargets) (*models.Goal, error) {
	return r.upsert(ctx, userID, day, models.GoalMetrics{}, targets)
}

func (r *MongoGoalRepo) UpdateMetrics(ctx context.Context, userID primitive.ObjectID, day time.Time, m models.GoalMetrics, targets models.GoalTargets) (*models.Goal, error) {
	return r.upsert(ctx, userID, day, m, targets)
}

// upsert sets the provided metrics and initialises everything else only on
// insert. Two concurrent upserts for the same (user, date) can both miss
// and race to insert; the loser gets a duplicate key error and simply
// retries, which then matches the winner's row.
func (r *MongoGoalRepo) upsert(ctx context.Context, userID primitive.ObjectID, day time.Time, m models.GoalMetrics, targets models.GoalTargets) (*models.Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := bson.M{}
	onInsert := bson.M{"targets": targets}
	for field, v := range map[string]*float64{
		"steps":          m.Steps,
		"activeTime":     m.ActiveTime,
		"sleep":          m.Sleep,
		"caloriesBurned": m.CaloriesBurned,
		"waterIntake":    m.WaterIntake,
	} {
		if v != nil {
			set[field] = *v
		} else {
			onInsert[field] = 0
		}
	}
	update := bson.M{"$setOnInsert": onInsert}
	if len(set) > 0 {
		update["$set"] = set
	}

	filter := bson.M{"user": userID, "date": day}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var goal models.Goal
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&goal)
	if mongo.IsDuplicateKeyError(err) {
		err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&goal)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert goal for user %s: %w", userID.Hex(), translate(err))
	}
	return &goal, nil
}

func (r *MongoGoalRepo) History(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]models.Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user": userID, "date": bson.M{"$gte": since}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve goals: %w", err)
	}
	defer cursor.Close(ctx)

	goals := make([]models.Goal, 0)
	if err := cursor.All(ctx, &goals); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %w", err)
	}
	return goals, nil
}
