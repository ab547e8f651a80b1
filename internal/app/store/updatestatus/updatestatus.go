// internal/app/store/updatestatus/updatestatus.go
//
// Package updatestatus tracks the refresh lifecycle in a singleton document
// and doubles as a coarse cross-process advisory lock: TryStart only
// succeeds while no other refresh is marked running.
package updatestatus

import (
	"context"
	"time"

	mongodb "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/orgchart/internal/domain/models"
)

const statusDocID = "status"

// staleAfter bounds how long a refresh may stay "running" before it is
// assumed dead and reset.
const staleAfter = 2 * time.Hour

// Store provides access to the update_status collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new update status store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("update_status")}
}

// Get returns the current status; with nothing recorded yet it reports idle.
func (s *Store) Get(ctx context.Context) (models.UpdateStatus, error) {
	var status models.UpdateStatus
	err := s.c.FindOne(ctx, bson.M{"_id": statusDocID}).Decode(&status)
	if err == mongo.ErrNoDocuments {
		return models.UpdateStatus{State: models.UpdateStateIdle}, nil
	}
	if err != nil {
		return models.UpdateStatus{}, err
	}
	return status, nil
}

// TryStart claims the refresh lock. ok is false when another refresh is
// already running. A running state older than staleAfter is reset first, so
// a crashed worker cannot hold the lock forever.
func (s *Store) TryStart(ctx context.Context, source string) (runID string, ok bool, err error) {
	now := time.Now().UTC()

	staleFilter := bson.M{
		"_id":        statusDocID,
		"state":      models.UpdateStateRunning,
		"started_at": bson.M{"$lt": now.Add(-staleAfter)},
	}
	staleUpdate := bson.M{"$set": bson.M{
		"state":       models.UpdateStateIdle,
		"finished_at": now,
		"error":       "previous update appeared stuck; automatically reset",
	}}
	if _, err := s.c.UpdateOne(ctx, staleFilter, staleUpdate); err != nil {
		return "", false, err
	}

	runID = uuid.NewString()
	filter := bson.M{
		"_id":   statusDocID,
		"state": bson.M{"$ne": models.UpdateStateRunning},
	}
	update := bson.M{
		"$set": bson.M{
			"state":      models.UpdateStateRunning,
			"run_id":     runID,
			"source":     source,
			"started_at": now,
			"error":      "",
		},
		"$unset": bson.M{"finished_at": ""},
	}
	opts := options.Update().SetUpsert(true)
	_, err = s.c.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		// A running document exists: the filter matched nothing and the
		// upsert collided on _id. That is the "lock held" outcome.
		if mongodb.IsDup(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return runID, true, nil
}

// Finish records the outcome of a run. The run_id filter makes Finish a
// no-op when the run was already reset as stale and another refresh took
// over.
func (s *Store) Finish(ctx context.Context, runID string, employeeCount int, runErr error) error {
	now := time.Now().UTC()
	set := bson.M{
		"state":          models.UpdateStateIdle,
		"finished_at":    now,
		"employee_count": employeeCount,
	}
	if runErr != nil {
		set["error"] = runErr.Error()
	} else {
		set["error"] = ""
		set["last_success_at"] = now
	}
	filter := bson.M{"_id": statusDocID, "run_id": runID}
	_, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	return err
}

// ResetInterrupted clears a running state left behind by a previous process.
// Called once at startup.
func (s *Store) ResetInterrupted(ctx context.Context) error {
	filter := bson.M{"_id": statusDocID, "state": models.UpdateStateRunning}
	update := bson.M{"$set": bson.M{
		"state":       models.UpdateStateIdle,
		"finished_at": time.Now().UTC(),
		"error":       "previous update was interrupted by application restart",
	}}
	_, err := s.c.UpdateOne(ctx, filter, update)
	return err
}
