// Package sqlitetest opens migrated throwaway stores for tests.
package sqlitetest

import (
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

// New returns a migrated store backed by a file in t.TempDir(). A file is
// used instead of :memory: because every pooled connection would otherwise
// see its own empty database.
func New(t testing.TB) *sqlite.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "auth.db")
	st, err := sqlite.NewStore(sqlite.DSN(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}
