package preferences

import (
	"context"
	"sync"
	"time"

	"tcpos-reports/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists string values per user and key.
type Store interface {
	Get(ctx context.Context, userID, key string) (string, bool, error)
	Set(ctx context.Context, userID, key, value string) error
}

type entry struct {
	UserID    string    `bson:"user_id"`
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoStore struct {
	Collection *mongo.Collection
}

func NewMongoStore(mongodb *database.MongodbDB) Store {
	return &MongoStore{
		Collection: mongodb.DB.Collection(database.CollectionPreferences),
	}
}

func (s *MongoStore) Get(ctx context.Context, userID, key string) (string, bool, error) {
	var e entry
	err := s.Collection.FindOne(ctx, bson.M{"user_id": userID, "key": key}).Decode(&e)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", false, nil
		}
		return "", false, err
	}
	return e.Value, true, nil
}

func (s *MongoStore) Set(ctx context.Context, userID, key, value string) error {
	filter := bson.M{"user_id": userID, "key": key}
	update := bson.M{"$set": entry{UserID: userID, Key: key, Value: value, UpdatedAt: time.Now().UTC()}}
	opts := options.Update().SetUpsert(true)
	_, err := s.Collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// MemoryStore keeps values for the life of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, userID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[userID][key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[userID] == nil {
		s.values[userID] = map[string]string{}
	}
	s.values[userID][key] = value
	return nil
}
