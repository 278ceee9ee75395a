package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "pipebuilder"
	DefaultMongoCollection = "pipelines"
)

// MongoOptions configures a MongoStore.
type MongoOptions struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// mongoDoc is the stored document; the key is the document id.
type mongoDoc struct {
	Key    string `bson:"_id"`
	Record `bson:",inline"`
}

// MongoStore keeps one document per key.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and pings the primary.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

func (o MongoOptions) withDefaults() MongoOptions {
	if o.URI == "" {
		o.URI = "mongodb://localhost:27017"
	}
	if o.Database == "" {
		o.Database = DefaultMongoDatabase
	}
	if o.Collection == "" {
		o.Collection = DefaultMongoCollection
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	return o
}

// Load reads a record.
func (s *MongoStore) Load(ctx context.Context, key string) (*Record, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return &doc.Record, nil
}

// Save upserts a record.
func (s *MongoStore) Save(ctx context.Context, key string, rec Record) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoDoc{Key: key, Record: rec},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	return nil
}

// Delete removes a record.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
