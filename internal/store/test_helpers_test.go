package store

import (
	"testing"

	"github.com/roach88/f1metrix/internal/testutil"
)

// createTestStore opens the fixture results database read-only.
func createTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := testutil.NewResultsDB(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}
