package store

import (
	"path/filepath"
	"testing"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestQuery creates a default query with the given id and name.
func createTestQuery(id int64, name string, fragments ...query.Fragment) query.Query {
	return query.MustNew(append([]query.Fragment{query.ID(id), query.Name(name)}, fragments...)...)
}
