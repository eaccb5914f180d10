// Package postgresdb stores documents as JSONB rows in PostgreSQL.
package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"toy-catalog/internal/database"
	"toy-catalog/internal/store"
)

// Store keeps every collection in the documents table created by the
// embedded migrations.
type Store struct {
	db *sql.DB
}

// New wraps an open, migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a document. IDs come from gen_random_uuid() and
// ServerTimestamp fields from now(), so both are assigned by the server.
func (s *Store) Create(ctx context.Context, collection string, fields store.Fields) (string, error) {
	data := make(map[string]any, len(fields))
	var stamped []string
	for k, v := range fields {
		if store.IsServerTimestamp(v) {
			stamped = append(stamped, k)
			continue
		}
		data[k] = v
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, data)
		VALUES ($1, $2::jsonb || COALESCE(
			(SELECT jsonb_object_agg(f, now()) FROM unnest($3::text[]) AS f),
			'{}'::jsonb))
		RETURNING id
	`

	var id string
	if err := s.db.QueryRowContext(ctx, query, collection, string(raw), stamped).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}

	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	doc := &store.Document{}
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&doc.ID, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}

	return doc, nil
}

func (s *Store) Find(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	var b strings.Builder
	args := []any{collection}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	if len(q.Where) > 0 {
		match := make(map[string]any, len(q.Where))
		for _, f := range q.Where {
			match[f.Field] = f.Value
		}
		raw, err := json.Marshal(match)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		fmt.Fprintf(&b, " AND data @> %s::jsonb", arg(string(raw)))
	}

	order := "ASC"
	cmp := ">"
	if q.Direction == store.Desc {
		order, cmp = "DESC", "<"
	}

	if q.StartAfter != "" {
		if q.OrderBy == "" {
			return nil, fmt.Errorf("start after %s: query has no order", q.StartAfter)
		}
		cursor, err := s.cursorValue(ctx, collection, q.OrderBy, q.StartAfter)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, " AND (data -> %s::text, id) %s (%s::jsonb, %s)",
			arg(q.OrderBy), cmp, arg(cursor), arg(q.StartAfter))
	}

	if q.OrderBy != "" {
		field := arg(q.OrderBy)
		fmt.Fprintf(&b, " ORDER BY data -> %s::text %s, id %s", field, order, order)
	} else {
		b.WriteString(" ORDER BY created_at, id")
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %s", arg(q.Limit))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []store.Document{}
	for rows.Next() {
		var (
			doc store.Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal(raw, &doc.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, doc.ID, err)
		}
		docs = append(docs, doc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", collection, err)
	}

	return docs, nil
}

// cursorValue returns the JSON text of the order field of the cursor
// document.
func (s *Store) cursorValue(ctx context.Context, collection, field, id string) (string, error) {
	query := `SELECT COALESCE(data -> $2::text, 'null'::jsonb)::text FROM documents WHERE collection = $1 AND id = $3`

	var value string
	err := s.db.QueryRowContext(ctx, query, collection, field, id).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("start after %s: %w", id, store.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read cursor %s: %w", id, err)
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	if _, err := s.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Health(ctx context.Context) map[string]string {
	return database.Health(ctx, s.db)
}
