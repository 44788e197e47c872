package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/truthmemes/gatekeeper/core"
)

func newTestSQLiteStore(t *testing.T) *SQLiteAdminStore {
	t.Helper()
	s, err := NewSQLiteAdminStore(filepath.Join(t.TempDir(), "admins.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteAdminStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	cred := &core.AdminCredential{ID: "id-1", Username: "root", PasswordHash: "cafebabe"}
	require.NoError(t, s.Create(ctx, cred))

	found, err := s.FindByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "id-1", found.ID)
	assert.Equal(t, "root", found.Username)
	assert.Equal(t, "cafebabe", found.PasswordHash)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestSQLiteAdminStoreUniqueUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	require.NoError(t, s.Create(ctx, &core.AdminCredential{ID: "id-1", Username: "root", PasswordHash: "a"}))
	err := s.Create(ctx, &core.AdminCredential{ID: "id-2", Username: "root", PasswordHash: "b"})
	assert.ErrorIs(t, err, core.ErrUsernameTaken)
}

func TestSQLiteAdminStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	_, err := s.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrAdminNotFound)
}
