// Package mongodb stores documents in MongoDB collections.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"toy-catalog/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store maps each collection to a MongoDB collection of the same name.
// New documents get an ObjectID _id, exposed as its hex string. Documents
// written by other tools with string ids are read and deleted as well.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect opens a client, pings it and selects the database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Store{client: client, database: client.Database(database)}, nil
}

// Create upserts a new document so that ServerTimestamp fields can be set
// with $currentDate.
func (s *Store) Create(ctx context.Context, collection string, fields store.Fields) (string, error) {
	id := primitive.NewObjectID()

	set := bson.M{}
	stamped := bson.M{}
	for k, v := range fields {
		if store.IsServerTimestamp(v) {
			stamped[k] = true
			continue
		}
		set[k] = v
	}

	update := bson.M{"$set": set}
	if len(stamped) > 0 {
		update["$currentDate"] = stamped
	}
	if len(set) == 0 {
		delete(update, "$set")
	}

	_, err := s.database.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}

	return id.Hex(), nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	var raw bson.M
	err := s.database.Collection(collection).FindOne(ctx, bson.M{"_id": objectID(id)}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	doc := toDocument(raw)
	return &doc, nil
}

func (s *Store) Find(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	coll := s.database.Collection(collection)

	filter := bson.M{}
	for _, f := range q.Where {
		filter[f.Field] = f.Value
	}

	dir := 1
	cmp := "$gt"
	if q.Direction == store.Desc {
		dir, cmp = -1, "$lt"
	}

	if q.StartAfter != "" {
		if q.OrderBy == "" {
			return nil, fmt.Errorf("start after %s: query has no order", q.StartAfter)
		}
		var cursor bson.M
		err := coll.FindOne(ctx, bson.M{"_id": objectID(q.StartAfter)}).Decode(&cursor)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, fmt.Errorf("start after %s: %w", q.StartAfter, store.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to read cursor %s: %w", q.StartAfter, err)
		}
		value := cursor[q.OrderBy]
		filter["$or"] = bson.A{
			bson.M{q.OrderBy: bson.M{cmp: value}},
			bson.M{q.OrderBy: value, "_id": bson.M{cmp: cursor["_id"]}},
		}
	}

	opts := options.Find()
	if q.OrderBy != "" {
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: dir}})
	} else {
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	docs := []store.Document{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, toDocument(raw))
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", collection, err)
	}

	return docs, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.database.Collection(collection).DeleteOne(ctx, bson.M{"_id": objectID(id)}); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes a whole collection. Only tests use it.
func (s *Store) Drop(ctx context.Context, collection string) error {
	return s.database.Collection(collection).Drop(ctx)
}

// objectID resolves a document ID to the _id value stored for it. Hex
// strings are ObjectIDs; anything else was written with a string _id.
func objectID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func toDocument(raw bson.M) store.Document {
	var id string
	switch v := raw["_id"].(type) {
	case primitive.ObjectID:
		id = v.Hex()
	case string:
		id = v
	default:
		id = fmt.Sprint(v)
	}
	delete(raw, "_id")

	fields := make(store.Fields, len(raw))
	for k, v := range raw {
		fields[k] = normalize(v)
	}
	return store.Document{ID: id, Fields: fields}
}

// normalize converts driver types into plain Go values.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case bson.M:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = normalize(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = normalize(inner)
		}
		return out
	}
	return v
}
