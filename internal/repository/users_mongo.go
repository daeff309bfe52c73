package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll         *mongo.Collection
	transactions bool
}

func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.AssignedPatients == nil {
		user.AssignedPatients = []primitive.ObjectID{}
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepo) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func userFilter(q UserQuery) bson.M {
	filter := bson.M{}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.AssignedProvider != nil {
		filter["assignedProvider"] = *q.AssignedProvider
	} else if q.HasProvider != nil {
		if *q.HasProvider {
			filter["assignedProvider"] = bson.M{"$exists": true, "$ne": nil}
		} else {
			// null matches both a missing and an explicit null field
			filter["assignedProvider"] = nil
		}
	}
	if !q.CreatedSince.IsZero() {
		filter["createdAt"] = bson.M{"$gte": q.CreatedSince}
	}
	return filter
}

func (r *MongoUserRepo) List(ctx context.Context, q UserQuery) ([]models.User, error) {
	return r.find(ctx, userFilter(q))
}

func (r *MongoUserRepo) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepo) Count(ctx context.Context, q UserQuery) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, userFilter(q))
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *MongoUserRepo) Update(ctx context.Context, id primitive.ObjectID, u UserUpdate) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Email != nil {
		set["email"] = *u.Email
	}
	if u.BasicInfo != nil {
		set["basicInfo"] = u.BasicInfo
	}
	if u.HealthInfo != nil {
		set["healthInfo"] = u.HealthInfo
	}
	if u.ProviderInfo != nil {
		set["providerInfo"] = u.ProviderInfo
	}
	if u.ConsentGiven != nil {
		set["consentGiven"] = *u.ConsentGiven
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *MongoUserRepo) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash}})
	if err != nil {
		return fmt.Errorf("failed to set password for user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// withTxn runs fn inside a transaction when enabled, otherwise directly.
func (r *MongoUserRepo) withTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, 2*opTimeout)
	defer cancel()

	if !r.transactions {
		return fn(ctx)
	}
	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *MongoUserRepo) Assign(ctx context.Context, patientID, providerID primitive.ObjectID, previous *primitive.ObjectID) error {
	return r.withTxn(ctx, func(ctx context.Context) error {
		if previous != nil && *previous != providerID {
			if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": *previous},
				bson.M{"$pull": bson.M{"assignedPatients": patientID}}); err != nil {
				return fmt.Errorf("failed to detach patient from previous provider: %w", err)
			}
		}
		res, err := r.coll.UpdateOne(ctx, bson.M{"_id": patientID},
			bson.M{"$set": bson.M{"assignedProvider": providerID}})
		if err != nil {
			return fmt.Errorf("failed to set assigned provider: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		res, err = r.coll.UpdateOne(ctx, bson.M{"_id": providerID},
			bson.M{"$addToSet": bson.M{"assignedPatients": patientID}})
		if err != nil {
			return fmt.Errorf("failed to add patient to provider: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *MongoUserRepo) Unassign(ctx context.Context, patientID, providerID primitive.ObjectID) error {
	return r.withTxn(ctx, func(ctx context.Context) error {
		res, err := r.coll.UpdateOne(ctx, bson.M{"_id": patientID},
			bson.M{"$unset": bson.M{"assignedProvider": ""}})
		if err != nil {
			return fmt.Errorf("failed to unset assigned provider: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": providerID},
			bson.M{"$pull": bson.M{"assignedPatients": patientID}}); err != nil {
			return fmt.Errorf("failed to remove patient from provider: %w", err)
		}
		return nil
	})
}

func (r *MongoUserRepo) DeleteProvider(ctx context.Context, providerID primitive.ObjectID) error {
	return r.withTxn(ctx, func(ctx context.Context) error {
		if _, err := r.coll.UpdateMany(ctx, bson.M{"assignedProvider": providerID},
			bson.M{"$unset": bson.M{"assignedProvider": ""}}); err != nil {
			return fmt.Errorf("failed to unassign patients of provider %s: %w", providerID.Hex(), err)
		}
		res, err := r.coll.DeleteOne(ctx, bson.M{"_id": providerID, "role": models.RoleProvider})
		if err != nil {
			return fmt.Errorf("failed to delete provider %s: %w", providerID.Hex(), err)
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}
