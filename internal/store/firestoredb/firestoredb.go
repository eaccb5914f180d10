package firestoredb

import (
	"context"
	"errors"
	"fmt"

	"toy-catalog/internal/store"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store maps collections onto top-level Firestore collections.
type Store struct {
	client *firestore.Client
}

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Create(ctx context.Context, collection string, fields store.Fields) (string, error) {
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		if store.IsServerTimestamp(v) {
			v = firestore.ServerTimestamp
		}
		data[k] = v
	}

	ref := s.client.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return &store.Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (s *Store) Find(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	coll := s.client.Collection(collection)
	query := coll.Query

	for _, f := range q.Where {
		query = query.Where(f.Field, "==", f.Value)
	}

	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == store.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir).OrderBy(firestore.DocumentID, dir)

		if q.StartAfter != "" {
			cursor, err := coll.Doc(q.StartAfter).Get(ctx)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return nil, store.ErrNotFound
				}
				return nil, fmt.Errorf("failed to load cursor %s: %w", q.StartAfter, err)
			}
			query = query.StartAfter(cursor)
		}
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []store.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		docs = append(docs, store.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

// Delete removes a document. Missing documents are not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
