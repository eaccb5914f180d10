// Package memdb is an in-process DocumentStore used for dry runs and tests.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"toy-catalog/internal/store"

	"github.com/google/uuid"
)

// Store keeps collections in memory. Insertion order is preserved for
// unordered queries.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]store.Document
	now         func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string][]store.Document),
		now:         time.Now,
	}
}

// WithClock replaces the time source used for server timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Create(ctx context.Context, collection string, fields store.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC()
	doc := store.Document{ID: uuid.NewString(), Fields: make(store.Fields, len(fields))}
	for k, v := range fields {
		if store.IsServerTimestamp(v) {
			v = stamp
		}
		doc.Fields[k] = copyValue(v)
	}

	s.collections[collection] = append(s.collections[collection], doc)
	return doc.ID, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.collections[collection] {
		if doc.ID == id {
			out := copyDoc(doc)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Find(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []store.Document
	for _, doc := range s.collections[collection] {
		if matches(doc, q.Where) {
			matched = append(matched, doc)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i], matched[j], q.OrderBy, q.Direction)
		})
	}

	if q.StartAfter != "" {
		if q.OrderBy == "" {
			return nil, fmt.Errorf("start after %s: query has no order", q.StartAfter)
		}
		cursor := -1
		for i, doc := range matched {
			if doc.ID == q.StartAfter {
				cursor = i
				break
			}
		}
		if cursor < 0 {
			return nil, fmt.Errorf("start after %s: %w", q.StartAfter, store.ErrNotFound)
		}
		matched = matched[cursor+1:]
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]store.Document, len(matched))
	for i, doc := range matched {
		out[i] = copyDoc(doc)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		if doc.ID == id {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *Store) Close() error {
	return nil
}

func matches(doc store.Document, filters []store.Filter) bool {
	for _, f := range filters {
		if doc.Fields[f.Field] != f.Value {
			return false
		}
	}
	return true
}

// less orders by the field value, then by ID, in the requested direction.
func less(a, b store.Document, field string, dir store.Direction) bool {
	c := compare(a.Fields[field], b.Fields[field])
	if c == 0 {
		c = compareStrings(a.ID, b.ID)
	}
	if dir == store.Desc {
		return c > 0
	}
	return c < 0
}

func compare(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return compareStrings(av, bv)
		}
	default:
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if aok && bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return 0
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func copyDoc(doc store.Document) store.Document {
	return store.Document{ID: doc.ID, Fields: copyFields(doc.Fields)}
}

func copyFields(fields store.Fields) store.Fields {
	out := make(store.Fields, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies the container types a document can hold.
func copyValue(v any) any {
	switch t := v.(type) {
	case store.Fields:
		return copyFields(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = copyValue(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, inner := range t {
			out[k] = inner
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = copyValue(inner)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return v
}
