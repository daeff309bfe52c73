package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

type MongoReminderRepo struct {
	coll *mongo.Collection
}

func (r *MongoReminderRepo) Create(ctx context.Context, rem *models.Reminder) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if rem.ID.IsZero() {
		rem.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, rem); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (r *MongoReminderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rem models.Reminder
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rem); err != nil {
		return nil, translate(err)
	}
	return &rem, nil
}

func (r *MongoReminderRepo) MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rem models.Reminder
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "completed": false},
		bson.M{"$set": bson.M{"completed": true, "completedAt": at}},
		opts,
	).Decode(&rem)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// either missing or already completed
		return r.GetByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete reminder %s: %w", id.Hex(), err)
	}
	return &rem, nil
}

func (r *MongoReminderRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, q ReminderQuery) ([]models.Reminder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"user": userID}
	if q.PendingOnly {
		filter["completed"] = false
	}
	if !q.DueFrom.IsZero() {
		filter["dueDate"] = bson.M{"$gte": q.DueFrom}
	}
	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reminders: %w", err)
	}
	defer cursor.Close(ctx)

	reminders := make([]models.Reminder, 0)
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, fmt.Errorf("failed to decode reminders: %w", err)
	}
	return reminders, nil
}

func (r *MongoReminderRepo) CountOverdue(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{
		"user":      userID,
		"completed": false,
		"dueDate":   bson.M{"$lt": now},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue reminders: %w", err)
	}
	return n, nil
}
