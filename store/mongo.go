package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
)

// MongoStore reconciles against a MongoDB collection. Field names follow
// the record schema rather than the spreadsheet columns.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore wraps a collection from an already-connected client.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{collection: db.Collection(collection)}
}

type mongoIdentity struct {
	ID   primitive.ObjectID `bson:"_id"`
	Code string             `bson:"code"`
}

// FetchByKeys implements RecordStore with a single $in query projected to
// id+code.
func (s *MongoStore) FetchByKeys(ctx context.Context, codes []string) ([]ExistingRecord, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	filter := bson.M{"code": bson.M{"$in": codes}}
	projection := options.Find().SetProjection(bson.M{"_id": 1, "code": 1})
	cursor, err := s.collection.Find(ctx, filter, projection)
	if err != nil {
		return nil, fmt.Errorf("query existing records: %w", err)
	}
	defer cursor.Close(ctx)

	var identities []mongoIdentity
	if err := cursor.All(ctx, &identities); err != nil {
		return nil, fmt.Errorf("decode existing records: %w", err)
	}

	records := make([]ExistingRecord, len(identities))
	for i, identity := range identities {
		records[i] = ExistingRecord{ID: identity.ID.Hex(), Code: identity.Code}
	}
	return records, nil
}

// InsertBatch implements RecordStore via InsertMany.
func (s *MongoStore) InsertBatch(ctx context.Context, businessID string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]any, len(records))
	for i, record := range records {
		docs[i] = bson.M{
			"business_id": businessID,
			"code":        record.Code,
			"name":        record.Name,
			"description": record.Description,
			"price":       record.Price,
			"stock":       record.Stock,
			"min_stock":   record.MinStock,
			"created_at":  now,
			"updated_at":  now,
		}
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// UpdateByID implements RecordStore. The code field stays untouched.
func (s *MongoStore) UpdateByID(ctx context.Context, id string, record models.Record) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return RequestError{Err: fmt.Errorf("invalid record id %q: %w", id, err)}
	}

	update := bson.M{"$set": bson.M{
		"name":        record.Name,
		"description": record.Description,
		"price":       record.Price,
		"stock":       record.Stock,
		"min_stock":   record.MinStock,
		"updated_at":  time.Now().UTC(),
	}}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return RequestError{Err: fmt.Errorf("record %s not found", id)}
	}
	return nil
}
