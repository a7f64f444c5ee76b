package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists records in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "citekit",
		Collection: "research",
	}
}

// NewMongoStore connects to MongoDB and prepares the collection.
func NewMongoStore(config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)

	store := &MongoStore{client: client, collection: collection}
	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "question", Value: "text"}, {Key: "answer", Value: "text"}}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, models)
	return err
}

// Save upserts the record.
func (s *MongoStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	cp := *rec
	if cp.ID == "" {
		cp.ID = fmt.Sprintf("research-%d", time.Now().UnixNano())
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": cp.ID}, &cp, opts); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Search uses the Mongo text index for candidate selection, then applies
// the shared lexical score so results rank identically across backends.
func (s *MongoStore) Search(ctx context.Context, query string, limit int) ([]ScoredRecord, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}
	findOpts := options.Find().SetLimit(int64(limit * 4))
	if limit <= 0 {
		findOpts = options.Find()
	}

	cursor, err := s.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer cursor.Close(ctx)

	var scored []ScoredRecord
	for cursor.Next(ctx) {
		var rec Record
		if err := cursor.Decode(&rec); err != nil {
			continue
		}
		score := scoreRecord(query, &rec)
		if score <= 0 {
			continue
		}
		scored = append(scored, ScoredRecord{Record: &rec, Score: score})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Record.ID < scored[j].Record.ID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
