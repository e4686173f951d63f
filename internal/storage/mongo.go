package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"gridboard/internal/domain"
)

const snapshotCollection = "snapshots"

// snapshotDoc is the stored form. Data keeps the exported JSON verbatim so
// free-form item configs round-trip without BSON type drift.
type snapshotDoc struct {
	Name      string `bson:"_id"`
	Version   string `bson:"version"`
	Data      string `bson:"data"`
	UpdatedAt int64  `bson:"updatedAt"`
}

// MongoSnapshotStore keeps snapshots in a MongoDB collection.
type MongoSnapshotStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and verifies the connection.
func OpenMongo(ctx context.Context, uri, database string) (*MongoSnapshotStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoSnapshotStore{
		client: client,
		coll:   client.Database(database).Collection(snapshotCollection),
	}, nil
}

// Close disconnects the client.
func (s *MongoSnapshotStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoSnapshotStore) Save(ctx context.Context, name string, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	doc := snapshotDoc{Name: name, Version: snap.Version, Data: string(data), UpdatedAt: time.Now().UnixNano()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

func (s *MongoSnapshotStore) Load(ctx context.Context, name string) (domain.Snapshot, error) {
	var doc snapshotDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %s: %w", name, ErrSnapshotNotFound)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(doc.Data), &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return snap, nil
}

func (s *MongoSnapshotStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"data": 0})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var out []SnapshotInfo
	for cursor.Next(ctx) {
		var doc snapshotDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, SnapshotInfo{Name: doc.Name, Version: doc.Version, UpdatedAt: time.Unix(0, doc.UpdatedAt)})
	}
	return out, cursor.Err()
}

func (s *MongoSnapshotStore) Delete(ctx context.Context, name string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	return nil
}
