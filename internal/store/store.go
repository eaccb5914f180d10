// Package store defines the document store used by the seeder and the
// catalog API. Backends live in the sub-packages.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// Direction is the sort direction of a query.
type Direction int

const (
	Asc Direction = iota
	Desc
)

type serverTimestamp struct{}

// ServerTimestamp is a field value the backend replaces with its own
// write time.
var ServerTimestamp = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Fields is the content of a document, keyed by field name.
type Fields map[string]any

// Document is a stored document and its store-generated ID.
type Document struct {
	ID     string
	Fields Fields
}

// Filter matches documents whose Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from one collection. A zero Limit returns every
// match. StartAfter is the ID of the last document of the previous page and
// requires OrderBy.
type Query struct {
	Where      []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
	StartAfter string
}

// DocumentStore is implemented by every backend.
type DocumentStore interface {
	// Create writes a new document with a store-generated ID.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// HealthChecker is implemented by backends that can report connection
// status.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}
