package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/truthmemes/gatekeeper/core"
)

func TestMemoryNonceStoreCreateIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryNonceStore()
	expires := time.Now().Add(time.Hour)

	require.NoError(t, s.Create(ctx, "abc12345", expires))
	assert.ErrorIs(t, s.Create(ctx, "abc12345", expires), core.ErrNonceExists)

	live, err := s.Exists(ctx, "abc12345")
	require.NoError(t, err)
	assert.True(t, live)
}

func TestMemoryNonceStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryNonceStore()

	require.NoError(t, s.Create(ctx, "stale123", time.Now().Add(-time.Second)))

	live, err := s.Exists(ctx, "stale123")
	require.NoError(t, err)
	assert.False(t, live)

	// An expired value is free for reuse.
	assert.NoError(t, s.Create(ctx, "stale123", time.Now().Add(time.Hour)))
}

func TestMemoryNonceStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryNonceStore()

	require.NoError(t, s.Create(ctx, "abc12345", time.Now().Add(time.Hour)))
	require.NoError(t, s.Delete(ctx, "abc12345"))

	live, err := s.Exists(ctx, "abc12345")
	require.NoError(t, err)
	assert.False(t, live)

	assert.ErrorIs(t, s.Delete(ctx, "abc12345"), core.ErrNonceNotFound)
}

func TestMemoryAdminStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAdminStore()

	cred := &core.AdminCredential{ID: "1", Username: "root", PasswordHash: "deadbeef"}
	require.NoError(t, s.Create(ctx, cred))
	assert.ErrorIs(t, s.Create(ctx, cred), core.ErrUsernameTaken)

	found, err := s.FindByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", found.PasswordHash)

	_, err = s.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrAdminNotFound)
}

func TestMemoryRateCounterWindows(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryRateCounter()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, "short:1.2.3.4", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Separate keys count independently.
	got, err := c.Incr(ctx, "long:1.2.3.4", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestMemoryRateCounterResetsAfterWindow(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryRateCounter()

	_, err := c.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(15 * time.Millisecond)

	got, err := c.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
