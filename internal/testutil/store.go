package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/karmapos/internal/store"
)

// OpenStore opens a fresh store in a temp dir and closes it on cleanup.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}
