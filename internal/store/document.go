package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateDocument inserts a new document with the given name.
// Returns an error matching ErrDuplicateName if the name is taken.
func (s *Store) CreateDocument(ctx context.Context, name string) (Document, error) {
	name = normalizeKey(name)
	now := s.now()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (name, created_at, updated_at)
		VALUES (?, ?, ?)
	`, name, now, now)
	if err != nil {
		return Document{}, classify("create document", name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Document{}, classify("create document", name, err)
	}

	return Document{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// EnsureDocument returns the document with the given name, creating it if
// absent. The Outcome distinguishes the two cases; an existing document is
// not an error.
func (s *Store) EnsureDocument(ctx context.Context, name string) (Document, Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, 0, classify("ensure document: begin tx", name, err)
	}
	defer tx.Rollback() // No-op if committed

	doc, outcome, err := s.ensureDocument(ctx, tx, normalizeKey(name))
	if err != nil {
		return Document{}, 0, err
	}

	if err := tx.Commit(); err != nil {
		return Document{}, 0, classify("ensure document: commit", name, err)
	}
	return doc, outcome, nil
}

// ensureDocument is the upsert half of get-or-create. The unique constraint
// on documents.name decides the winner; the loser re-reads the existing row.
func (s *Store) ensureDocument(ctx context.Context, q querier, name string) (Document, Outcome, error) {
	now := s.now()
	result, err := q.ExecContext(ctx, `
		INSERT INTO documents (name, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, now, now)
	if err != nil {
		return Document{}, 0, classify("ensure document: insert", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Document{}, 0, classify("ensure document: rows affected", name, err)
	}

	if rowsAffected > 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return Document{}, 0, classify("ensure document: last insert id", name, err)
		}
		return Document{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, Created, nil
	}

	doc, found, err := getDocument(ctx, q, name)
	if err != nil {
		return Document{}, 0, err
	}
	if !found {
		// The conflicting row vanished; documents are never deleted, so
		// this means the store is inconsistent.
		return Document{}, 0, &Error{Code: ErrCodeStorageUnavailable, Op: "ensure document: select existing", Name: name}
	}
	return doc, AlreadyExists, nil
}

// GetDocument looks up a document by name.
// found is false (with a nil error) when no such document exists.
func (s *Store) GetDocument(ctx context.Context, name string) (doc Document, found bool, err error) {
	return getDocument(ctx, s.db, normalizeKey(name))
}

func getDocument(ctx context.Context, q querier, name string) (Document, bool, error) {
	var doc Document
	err := q.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM documents
		WHERE name = ?
	`, name).Scan(&doc.ID, &doc.Name, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, classify("get document", name, err)
	}
	return doc, true, nil
}

// ListDocuments returns every document name in ascending binary order.
// Returns an empty slice (not nil) if the store holds no documents.
func (s *Store) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM documents
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, classify("list documents", "", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify("list documents: scan", "", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("list documents: iterate", "", fmt.Errorf("iterate documents: %w", err))
	}

	return names, nil
}
