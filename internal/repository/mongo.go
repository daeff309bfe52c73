package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// Collection names.
const (
	UsersCollection     = "users"
	GoalsCollection     = "goals"
	RemindersCollection = "reminders"
	TipsCollection      = "healthtips"
	MessagesCollection  = "messages"
)

// Connect opens a MongoDB client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

// NewMongoStore builds every repository on db and ensures their indexes.
// When transactions is set, the two-sided assignment updates run inside a
// multi-document transaction, which requires a replica set.
func NewMongoStore(ctx context.Context, db *mongo.Database, transactions bool) (*Store, error) {
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return &Store{
		Users:     &MongoUserRepo{coll: db.Collection(UsersCollection), transactions: transactions},
		Goals:     &MongoGoalRepo{coll: db.Collection(GoalsCollection)},
		Reminders: &MongoReminderRepo{coll: db.Collection(RemindersCollection)},
		Tips:      &MongoHealthTipRepo{coll: db.Collection(TipsCollection)},
		Messages:  &MongoMessageRepo{coll: db.Collection(MessagesCollection)},
	}, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "assignedProvider", Value: 1}}},
		},
		GoalsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		RemindersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "dueDate", Value: 1}}},
		},
		MessagesCollection: {
			{Keys: bson.D{{Key: "conversation", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case err == mongo.ErrNoDocuments:
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
