package store

import (
	"context"
)

// AppendEntry appends one entry under (documentName, sectionTitle), creating
// the document and section if they do not exist yet.
//
// All three steps run in a single transaction:
//  1. get-or-create the document by name
//  2. get-or-create the section by (document id, title)
//  3. insert the entry and bump updated_at on the section and document
//
// Repeated calls with the same names accumulate entries under one stable
// section. The only failure mode is STORAGE_UNAVAILABLE.
func (s *Store) AppendEntry(ctx context.Context, documentName, sectionTitle, content string) (Entry, error) {
	documentName = normalizeKey(documentName)
	sectionTitle = normalizeKey(sectionTitle)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, classify("append entry: begin tx", documentName, err)
	}
	defer tx.Rollback() // No-op if committed

	doc, _, err := s.ensureDocument(ctx, tx, documentName)
	if err != nil {
		return Entry{}, err
	}

	section, _, err := s.ensureSection(ctx, tx, doc.ID, sectionTitle)
	if err != nil {
		return Entry{}, err
	}

	now := s.now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO entries (section_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, section.ID, content, now, now)
	if err != nil {
		return Entry{}, classify("append entry: insert", documentName, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Entry{}, classify("append entry: last insert id", documentName, err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sections SET updated_at = ? WHERE id = ?`, now, section.ID); err != nil {
		return Entry{}, classify("append entry: touch section", sectionTitle, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE documents SET updated_at = ? WHERE id = ?`, now, doc.ID); err != nil {
		return Entry{}, classify("append entry: touch document", documentName, err)
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, classify("append entry: commit", documentName, err)
	}

	return Entry{
		ID:        id,
		SectionID: section.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ensureSection is get-or-create for a section keyed by (documentID, title).
// Uses ON CONFLICT(document_id, title) DO NOTHING, then selects the existing
// row when the insert lost.
func (s *Store) ensureSection(ctx context.Context, q querier, documentID int64, title string) (Section, Outcome, error) {
	now := s.now()
	result, err := q.ExecContext(ctx, `
		INSERT INTO sections (document_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id, title) DO NOTHING
	`, documentID, title, now, now)
	if err != nil {
		return Section{}, 0, classify("ensure section: insert", title, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Section{}, 0, classify("ensure section: rows affected", title, err)
	}

	if rowsAffected > 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return Section{}, 0, classify("ensure section: last insert id", title, err)
		}
		return Section{
			ID:         id,
			DocumentID: documentID,
			Title:      title,
			CreatedAt:  now,
			UpdatedAt:  now,
		}, Created, nil
	}

	var sec Section
	err = q.QueryRowContext(ctx, `
		SELECT id, document_id, title, created_at, updated_at
		FROM sections
		WHERE document_id = ? AND title = ?
	`, documentID, title).Scan(&sec.ID, &sec.DocumentID, &sec.Title, &sec.CreatedAt, &sec.UpdatedAt)
	if err != nil {
		return Section{}, 0, classify("ensure section: select existing", title, err)
	}
	return sec, AlreadyExists, nil
}
