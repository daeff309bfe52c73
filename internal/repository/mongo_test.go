package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

var testTargets = models.GoalTargets{Steps: 10000, ActiveTime: 60, Sleep: 8, WaterIntake: 2000}

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func goalReply(id, user primitive.ObjectID, day time.Time, steps float64) bson.D {
	return bson.D{
		{Key: "ok", Value: 1},
		{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "user", Value: user},
			{Key: "date", Value: day},
			{Key: "steps", Value: steps},
			{Key: "targets", Value: bson.D{
				{Key: "steps", Value: testTargets.Steps},
				{Key: "activeTime", Value: testTargets.ActiveTime},
				{Key: "sleep", Value: testTargets.Sleep},
				{Key: "waterIntake", Value: testTargets.WaterIntake},
			}},
		}},
	}
}

func duplicateKeyReply() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    11000,
		Name:    "DuplicateKey",
		Message: "E11000 duplicate key error collection: goals index: user_1_date_1",
	})
}

func updateOk(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

// findAndModifyUpdate returns the update document of the next started
// findAndModify command.
func findAndModifyUpdate(mt *mtest.T) bson.Raw {
	mt.Helper()
	ev := mt.GetStartedEvent()
	if ev == nil || ev.CommandName != "findAndModify" {
		mt.Fatalf("expected a findAndModify command, got %+v", ev)
	}
	if !ev.Command.Lookup("upsert").Boolean() {
		mt.Error("goal update is not an upsert")
	}
	return ev.Command.Lookup("update").Document()
}

func TestGoalUpsert_OnlyProvidedMetricsAreSet(t *testing.T) {
	mt := newMock(t)
	mt.Run("partial update", func(mt *mtest.T) {
		repo := &MongoGoalRepo{coll: mt.Coll}
		user, id := primitive.NewObjectID(), primitive.NewObjectID()
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(goalReply(id, user, day, 5000))

		steps := 5000.0
		g, err := repo.UpdateMetrics(context.Background(), user, day, models.GoalMetrics{Steps: &steps}, testTargets)
		if err != nil {
			mt.Fatalf("update: %v", err)
		}
		if g.ID != id || g.Steps != 5000 || g.Targets != testTargets {
			mt.Errorf("unexpected goal %+v", g)
		}

		update := findAndModifyUpdate(mt)
		set := update.Lookup("$set").Document()
		onInsert := update.Lookup("$setOnInsert").Document()
		if set.Lookup("steps").Double() != 5000 {
			mt.Errorf("steps not in $set: %s", set)
		}
		if _, err := onInsert.LookupErr("steps"); err == nil {
			mt.Error("steps must not be initialised on insert when provided")
		}
		// Omitted metrics and the targets are only written when the row is
		// created, so an existing goal keeps them.
		for _, field := range []string{"activeTime", "sleep", "caloriesBurned", "waterIntake", "targets"} {
			if _, err := onInsert.LookupErr(field); err != nil {
				mt.Errorf("%s missing from $setOnInsert", field)
			}
			if _, err := set.LookupErr(field); err == nil {
				mt.Errorf("%s must not be overwritten by $set", field)
			}
		}
	})

	mt.Run("get or create sets nothing", func(mt *mtest.T) {
		repo := &MongoGoalRepo{coll: mt.Coll}
		user := primitive.NewObjectID()
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(goalReply(primitive.NewObjectID(), user, day, 0))

		if _, err := repo.GetOrCreate(context.Background(), user, day, testTargets); err != nil {
			mt.Fatalf("get or create: %v", err)
		}
		update := findAndModifyUpdate(mt)
		if _, err := update.LookupErr("$set"); err == nil {
			mt.Errorf("get or create must not touch an existing goal: %s", update)
		}
	})
}

func TestGoalUpsert_RetriesAfterDuplicateKey(t *testing.T) {
	mt := newMock(t)
	mt.Run("loser of the insert race", func(mt *mtest.T) {
		repo := &MongoGoalRepo{coll: mt.Coll}
		user, id := primitive.NewObjectID(), primitive.NewObjectID()
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(duplicateKeyReply(), goalReply(id, user, day, 1200))

		water := 500.0
		g, err := repo.UpdateMetrics(context.Background(), user, day, models.GoalMetrics{WaterIntake: &water}, testTargets)
		if err != nil {
			mt.Fatalf("expected the retry to succeed, got %v", err)
		}
		if g.ID != id {
			mt.Errorf("expected the winner's goal, got %+v", g)
		}
		for attempt := 1; attempt <= 2; attempt++ {
			update := findAndModifyUpdate(mt)
			if got := update.Lookup("$set", "waterIntake").Double(); got != 500 {
				mt.Errorf("attempt %d: waterIntake = %v", attempt, got)
			}
			if _, err := update.LookupErr("$setOnInsert", "steps"); err != nil {
				mt.Errorf("attempt %d: steps missing from $setOnInsert", attempt)
			}
		}
		if ev := mt.GetStartedEvent(); ev != nil {
			mt.Errorf("expected exactly one retry, got another %s", ev.CommandName)
		}
	})

	mt.Run("duplicate twice", func(mt *mtest.T) {
		repo := &MongoGoalRepo{coll: mt.Coll}
		mt.AddMockResponses(duplicateKeyReply(), duplicateKeyReply())

		_, err := repo.GetOrCreate(context.Background(), primitive.NewObjectID(), time.Now(), testTargets)
		if !errors.Is(err, ErrDuplicate) {
			mt.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})
}

// updateStep is one update statement as sent: its operator and the _id it
// targets (zero when the filter is not by id).
type updateStep struct {
	op string
	id primitive.ObjectID
}

func sentUpdates(mt *mtest.T) []updateStep {
	var steps []updateStep
	for _, ev := range mt.GetAllStartedEvents() {
		if ev.CommandName != "update" {
			continue
		}
		stmt := ev.Command.Lookup("updates").Array().Index(0).Value().Document()
		var step updateStep
		if v, err := stmt.Lookup("q").Document().LookupErr("_id"); err == nil {
			step.id = v.ObjectID()
		}
		if elems, err := stmt.Lookup("u").Document().Elements(); err == nil && len(elems) > 0 {
			step.op = elems[0].Key()
		}
		steps = append(steps, step)
	}
	return steps
}

func wantSteps(t *testing.T, got, want []updateStep) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d updates, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("update %d: got %s on %s, want %s on %s", i, got[i].op, got[i].id.Hex(), want[i].op, want[i].id.Hex())
		}
	}
}

func TestUserAssignment_UpdateOrder(t *testing.T) {
	mt := newMock(t)
	patient, previous, provider := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("reassign", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(updateOk(1), updateOk(1), updateOk(1))

		if err := repo.Assign(context.Background(), patient, provider, &previous); err != nil {
			mt.Fatalf("assign: %v", err)
		}
		wantSteps(mt.T, sentUpdates(mt), []updateStep{
			{"$pull", previous},
			{"$set", patient},
			{"$addToSet", provider},
		})
	})

	mt.Run("same provider skips the pull", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(updateOk(1), updateOk(1))

		if err := repo.Assign(context.Background(), patient, provider, &provider); err != nil {
			mt.Fatalf("assign: %v", err)
		}
		wantSteps(mt.T, sentUpdates(mt), []updateStep{{"$set", patient}, {"$addToSet", provider}})
	})

	mt.Run("missing patient stops early", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(updateOk(0))

		err := repo.Assign(context.Background(), patient, provider, nil)
		if !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
		wantSteps(mt.T, sentUpdates(mt), []updateStep{{"$set", patient}})
	})

	mt.Run("unassign", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(updateOk(1), updateOk(1))

		if err := repo.Unassign(context.Background(), patient, provider); err != nil {
			mt.Fatalf("unassign: %v", err)
		}
		wantSteps(mt.T, sentUpdates(mt), []updateStep{{"$unset", patient}, {"$pull", provider}})
	})

	mt.Run("delete provider", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(updateOk(2), mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := repo.DeleteProvider(context.Background(), provider); err != nil {
			mt.Fatalf("delete: %v", err)
		}
		var names []string
		for _, ev := range mt.GetAllStartedEvents() {
			names = append(names, ev.CommandName)
		}
		if len(names) != 2 || names[0] != "update" || names[1] != "delete" {
			mt.Errorf("expected patients cleared before the delete, got %v", names)
		}
	})

	mt.Run("delete unknown provider", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll}
		mt.AddMockResponses(updateOk(0), mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := repo.DeleteProvider(context.Background(), provider); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserAssignment_RunsInTransaction(t *testing.T) {
	mt := newMock(t)
	mt.Run("assign", func(mt *mtest.T) {
		repo := &MongoUserRepo{coll: mt.Coll, transactions: true}
		mt.AddMockResponses(updateOk(1), updateOk(1), mtest.CreateSuccessResponse())

		if err := repo.Assign(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), nil); err != nil {
			mt.Fatalf("assign: %v", err)
		}
		events := mt.GetAllStartedEvents()
		if len(events) != 3 {
			mt.Fatalf("expected 2 updates and a commit, got %d commands", len(events))
		}
		if !events[0].Command.Lookup("startTransaction").Boolean() {
			mt.Error("first update did not start the transaction")
		}
		txn := events[0].Command.Lookup("txnNumber").Int64()
		for _, ev := range events[:2] {
			if ev.CommandName != "update" || ev.Command.Lookup("txnNumber").Int64() != txn {
				mt.Errorf("%s is outside the transaction", ev.CommandName)
			}
			if ev.Command.Lookup("autocommit").Boolean() {
				mt.Errorf("%s autocommits", ev.CommandName)
			}
		}
		if events[2].CommandName != "commitTransaction" {
			mt.Errorf("expected a commit, got %s", events[2].CommandName)
		}
	})
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no documents", mongo.ErrNoDocuments, ErrNotFound},
		{"other", context.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translate(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("translate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
