package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/username/fundfolio/backend/src/models"
)

// SQLiteStore implements Store over a single documents table. Every
// document's loosely-typed field map is stored as a JSON blob, keeping the
// store schemaless the way the original data source is.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) GetCollection(ctx context.Context, path string) (map[string]models.RawEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, fields FROM documents WHERE collection = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", path, err)
	}
	defer rows.Close()

	events := make(map[string]models.RawEvent)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning document in %s: %w", path, err)
		}
		fields := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("decoding document %s/%s: %w", path, id, err)
		}
		events[id] = models.RawEvent{ID: id, Fields: fields}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collection %s: %w", path, err)
	}
	return events, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, path, id string) (models.RawEvent, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT fields FROM documents WHERE collection = ? AND id = ?`, path, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RawEvent{}, fmt.Errorf("%s/%s: %w", path, id, ErrNotFound)
	}
	if err != nil {
		return models.RawEvent{}, fmt.Errorf("reading document %s/%s: %w", path, id, err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return models.RawEvent{}, fmt.Errorf("decoding document %s/%s: %w", path, id, err)
	}
	return models.RawEvent{ID: id, Fields: fields}, nil
}

func (s *SQLiteStore) PutDocument(ctx context.Context, path, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding document %s/%s: %w", path, id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET fields = excluded.fields`,
		path, id, string(raw))
	if err != nil {
		return fmt.Errorf("writing document %s/%s: %w", path, id, err)
	}
	return nil
}

// UpdateDocument merges fields into an existing document inside a single
// transaction so concurrent writers cannot interleave a read-modify-write.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, path, id string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update of %s/%s: %w", path, id, err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT fields FROM documents WHERE collection = ? AND id = ?`, path, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", path, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading document %s/%s for update: %w", path, id, err)
	}

	existing := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return fmt.Errorf("decoding document %s/%s: %w", path, id, err)
	}
	for k, v := range fields {
		existing[k] = v
	}

	merged, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("encoding document %s/%s: %w", path, id, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE documents SET fields = ? WHERE collection = ? AND id = ?`, string(merged), path, id); err != nil {
		return fmt.Errorf("updating document %s/%s: %w", path, id, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, path, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, path, id)
	if err != nil {
		return fmt.Errorf("deleting document %s/%s: %w", path, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s/%s: %w", path, id, ErrNotFound)
	}
	return nil
}
