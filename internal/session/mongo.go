package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionsCollection = "sessions"

// MongoStore хранит сессии документами коллекции sessions:
// {_id: sid, expires: time, data: {namespace: json}}.
// Просроченные документы удаляет TTL-индекс по полю expires.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	ttl    time.Duration
}

// NewMongoStoreFromURI подключается к MongoDB и создаёт хранилище сессий в базе dbName.
func NewMongoStoreFromURI(ctx context.Context, uri, dbName string, ttl time.Duration) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping mongo: %v", ErrStoreUnavailable, err)
	}

	s, err := NewMongoStore(ctx, client.Database(dbName), ttl)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.client = client
	return s, nil
}

// Close отключается от MongoDB, если соединение открывало само хранилище.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type mongoSession struct {
	ID      string            `bson:"_id"`
	Expires time.Time         `bson:"expires"`
	Data    map[string]string `bson:"data"`
}

// NewMongoStore создаёт хранилище сессий и TTL-индекс.
func NewMongoStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*MongoStore, error) {
	coll := db.Collection(sessionsCollection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create ttl index: %v", ErrStoreUnavailable, err)
	}

	return &MongoStore{coll: coll, ttl: ttl}, nil
}

func dataField(namespace string) string {
	return "data." + namespace
}

// Get возвращает значение или ErrNotFound.
func (s *MongoStore) Get(ctx context.Context, sid, namespace string) ([]byte, error) {
	var doc mongoSession
	err := s.coll.FindOne(ctx, bson.M{
		"_id":     sid,
		"expires": bson.M{"$gt": time.Now()},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	v, ok := doc.Data[namespace]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

// Set сохраняет значение и продлевает срок жизни документа сессии.
func (s *MongoStore) Set(ctx context.Context, sid, namespace string, value []byte) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": sid},
		bson.M{"$set": bson.M{
			dataField(namespace): string(value),
			"expires":            time.Now().Add(s.ttl),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Take читает и удаляет значение одной операцией findAndModify.
func (s *MongoStore) Take(ctx context.Context, sid, namespace string) ([]byte, error) {
	field := dataField(namespace)

	var doc mongoSession
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{
			"_id":     sid,
			"expires": bson.M{"$gt": time.Now()},
			field:     bson.M{"$exists": true},
		},
		bson.M{"$unset": bson.M{field: ""}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return []byte(doc.Data[namespace]), nil
}

// Delete удаляет значение из документа сессии.
func (s *MongoStore) Delete(ctx context.Context, sid, namespace string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": sid},
		bson.M{"$unset": bson.M{dataField(namespace): ""}},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
