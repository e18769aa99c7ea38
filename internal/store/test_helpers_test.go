package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/roach88/tabula/internal/record"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// loadTestDataset builds a dataset from native rows and loads it.
func loadTestDataset(t *testing.T, s *Store, name string, rows ...map[string]any) *record.Dataset {
	t.Helper()
	ds, err := record.FromMaps(name, rows)
	if err != nil {
		t.Fatalf("FromMaps(%q) failed: %v", name, err)
	}
	if err := s.LoadDataset(context.Background(), ds); err != nil {
		t.Fatalf("LoadDataset(%q) failed: %v", name, err)
	}
	return ds
}

// getTableIndexes returns the index names of a table.
func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		names = append(names, name)
	}
	return names
}
