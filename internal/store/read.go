package store

import (
	"context"
	"database/sql"
	"strings"
)

// EntryMarker prefixes every entry line in rendered content.
const EntryMarker = "- "

// Sections returns the sections of a document in creation order.
// Returns an empty slice (not nil) if the document has no sections.
func (s *Store) Sections(ctx context.Context, documentID int64) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, title, created_at, updated_at
		FROM sections
		WHERE document_id = ?
		ORDER BY id ASC
	`, documentID)
	if err != nil {
		return nil, classify("query sections", "", err)
	}
	defer rows.Close()

	sections := []Section{}
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.DocumentID, &sec.Title, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, classify("scan section", "", err)
		}
		sections = append(sections, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate sections", "", err)
	}

	return sections, nil
}

// Entries returns the entries of a section in creation order.
// Returns an empty slice (not nil) if the section has no entries.
func (s *Store) Entries(ctx context.Context, sectionID int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, section_id, content, created_at, updated_at
		FROM entries
		WHERE section_id = ?
		ORDER BY id ASC
	`, sectionID)
	if err != nil {
		return nil, classify("query entries", "", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate entries", "", err)
	}

	return entries, nil
}

// DocumentContent renders a document as text.
//
// found is false when the document does not exist, which is distinct from a
// document with no sections (found=true, content=""). Each section renders
// as its title line, one EntryMarker-prefixed line per entry, and a blank line.
//
// Sections are fetched with one query and entries with one query per section.
func (s *Store) DocumentContent(ctx context.Context, name string) (content string, found bool, err error) {
	doc, found, err := s.GetDocument(ctx, name)
	if err != nil || !found {
		return "", found, err
	}

	sections, err := s.Sections(ctx, doc.ID)
	if err != nil {
		return "", true, err
	}

	var b strings.Builder
	for _, sec := range sections {
		entries, err := s.Entries(ctx, sec.ID)
		if err != nil {
			return "", true, err
		}
		renderSection(&b, sec, entries)
	}
	return b.String(), true, nil
}

func renderSection(b *strings.Builder, sec Section, entries []Entry) {
	b.WriteString(sec.Title)
	b.WriteByte('\n')
	for _, e := range entries {
		b.WriteString(EntryMarker)
		b.WriteString(e.Content)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}

// scanEntry scans a row into an Entry struct.
func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	if err := rows.Scan(&e.ID, &e.SectionID, &e.Content, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Entry{}, classify("scan entry", "", err)
	}
	return e, nil
}
