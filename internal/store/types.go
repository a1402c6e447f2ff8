package store

import (
	"time"

	"golang.org/x/text/unicode/norm"
)

// Document is a top-level named container.
type Document struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Section is a titled subdivision of a document, unique per (DocumentID, Title).
type Section struct {
	ID         int64
	DocumentID int64
	Title      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Entry is an immutable text unit belonging to a section.
type Entry struct {
	ID        int64
	SectionID int64
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome reports whether a get-or-create call inserted a row.
type Outcome int

const (
	// Created means the row did not exist and was inserted by this call.
	Created Outcome = iota + 1
	// AlreadyExists means the row was present before this call.
	AlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// normalizeKey returns the NFC form of a document name or section title.
func normalizeKey(s string) string {
	return norm.NFC.String(s)
}
