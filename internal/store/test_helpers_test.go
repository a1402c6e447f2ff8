package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/memorybank/internal/testutil"
)

// createTestStore creates a new file-backed store for testing with a
// deterministic clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewDeterministicClock().Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// countSections returns how many sections titled title exist under the
// document named docName.
func countSections(t *testing.T, s *Store, docName, title string) int {
	t.Helper()
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sections s
		JOIN documents d ON s.document_id = d.id
		WHERE d.name = ? AND s.title = ?
	`, docName, title).Scan(&n)
	if err != nil {
		t.Fatalf("count sections failed: %v", err)
	}
	return n
}
