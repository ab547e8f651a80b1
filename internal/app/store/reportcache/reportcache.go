// internal/app/store/reportcache/reportcache.go
//
// Package reportcache stores the derived report blobs (hierarchy, employee
// snapshot, audit reports) keyed by name. Blobs are opaque JSON; the refresh
// pipeline writes them and the HTTP surface serves them verbatim.
package reportcache

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Cache keys written by the refresh pipeline.
const (
	KeyHierarchy        = "hierarchy"
	KeyEmployees        = "employees"
	KeyMissingManager   = "missing_manager"
	KeyDisabledUsers    = "disabled_users"
	KeyDisabledLicensed = "disabled_licensed"
	KeyRecentlyDisabled = "recently_disabled"
	KeyRecentlyHired    = "recently_hired"
	KeyLastLogins       = "last_logins"
	KeyFilteredUsers    = "filtered_users"
	KeyFilteredLicensed = "filtered_licensed"
)

// Store is a blob cache. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the blob for key; found is false on a miss.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	Invalidate(ctx context.Context, key string) error
}

// MongoStore keeps one document per key in the report_cache collection.
type MongoStore struct {
	c *mongo.Collection
}

// NewMongo creates a Mongo-backed report cache.
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection("report_cache")}
}

type cacheDoc struct {
	ID        string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc cacheDoc
	err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc.Data, true, nil
}

func (s *MongoStore) Put(ctx context.Context, key string, data []byte) error {
	filter := bson.M{"_id": key}
	update := bson.M{"$set": bson.M{
		"data":       data,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, filter, update, opts)
	return err
}

func (s *MongoStore) Invalidate(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
