// Package store provides SQLite-backed durable storage for memory bank documents.
//
// The store holds a strict containment hierarchy:
//   - Documents: top-level containers, unique by name
//   - Sections: titled subdivisions, unique per (document_id, title)
//   - Entries: append-only text rows belonging to one section
//
// # Critical Patterns
//
// Get-or-create via native upsert
//   - INSERT ... ON CONFLICT DO NOTHING, then SELECT the winning row
//   - A racing writer observes the existing row, never a duplicate error
//
// Insertion ordering
//   - Sections and entries are ordered by autoincrement id, which is
//     assigned in insertion order
//   - Wall-clock timestamps are recorded but never used for ordering
//
// Key normalization
//   - Document names and section titles are NFC-normalized before use
//   - Entry content is stored verbatim
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
