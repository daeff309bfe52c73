package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

type MongoHealthTipRepo struct {
	coll *mongo.Collection
}

func (r *MongoHealthTipRepo) Random(ctx context.Context) (*models.HealthTip, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "active", Value: true}}}},
		bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sample health tips: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return nil, cursor.Err()
	}
	var tip models.HealthTip
	if err := cursor.Decode(&tip); err != nil {
		return nil, fmt.Errorf("failed to decode health tip: %w", err)
	}
	return &tip, nil
}

func (r *MongoHealthTipRepo) ReplaceAll(ctx context.Context, tips []models.HealthTip) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear health tips: %w", err)
	}
	if len(tips) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tips))
	for i := range tips {
		docs[i] = tips[i]
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert health tips: %w", err)
	}
	return nil
}
