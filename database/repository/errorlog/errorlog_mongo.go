package errorlogRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"denticare/database"
	"denticare/models"
)

// MongoErrorLogRepo is the production ErrorLogRepository.
type MongoErrorLogRepo struct {
	coll *mongo.Collection
}

func NewMongoErrorLogRepo() *MongoErrorLogRepo {
	return &MongoErrorLogRepo{coll: database.Collection("error_events")}
}

func (r *MongoErrorLogRepo) Append(ctx context.Context, event models.ErrorEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("error appending error event: %w", err)
	}
	return nil
}

func (r *MongoErrorLogRepo) Window(ctx context.Context, from, to time.Time) ([]models.ErrorEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"timestamp": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error reading error log window: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.ErrorEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding error events: %w", err)
	}
	return events, nil
}

func (r *MongoErrorLogRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"timestamp": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("error counting error events: %w", err)
	}
	return n, nil
}

func (r *MongoErrorLogRepo) CountByKindSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$kind", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating error events: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Kind  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding error aggregates: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

func (r *MongoErrorLogRepo) Size(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting error log: %w", err)
	}
	return n, nil
}

// EnsureIndexes creates the timestamp index the window queries rely on.
func (r *MongoErrorLogRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("timestamp_idx"),
		},
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("kind_timestamp_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create error log indexes: %w", err)
	}
	return nil
}
