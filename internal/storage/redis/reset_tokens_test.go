package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/storage"
)

func setupStore(t *testing.T) (*ResetTokenStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewResetTokenStore(rdb, "test"), mr
}

func TestResetTokenStore(t *testing.T) {
	ctx := context.Background()
	s, mr := setupStore(t)

	require.NoError(t, s.Save(ctx, "tok-1", "user-1", time.Hour))

	userID, err := s.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	t.Run("new token replaces the old one", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "tok-2", "user-1", time.Hour))

		_, err := s.Lookup(ctx, "tok-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		userID, err := s.Lookup(ctx, "tok-2")
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "tok-2"))
		_, err := s.Lookup(ctx, "tok-2")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.False(t, mr.Exists("test:user:user-1"))

		assert.NoError(t, s.Delete(ctx, "unknown"))
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "tok-3", "user-2", time.Minute))
		mr.FastForward(2 * time.Minute)

		_, err := s.Lookup(ctx, "tok-3")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
