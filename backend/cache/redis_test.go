package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/backend/config"
)

var _ fiber.Storage = (*LimiterStorage)(nil)

// newClient connects to REDIS_ADDR or skips the test.
func newClient(t *testing.T) *RedisTokenStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), &config.Config{RedisAddr: addr, RedisDB: 15})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRedisTokenStore(client)
}

func TestTokenStore(t *testing.T) {
	store := newClient(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 42, "first", time.Minute))
	require.NoError(t, store.Save(ctx, 42, "second", time.Minute))

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	require.NoError(t, store.Delete(ctx, 42))
	got, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTokenStoreExpiry(t *testing.T) {
	store := newClient(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 7, "short", 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTokenKey(t *testing.T) {
	assert.Equal(t, "refresh_token:user:12", tokenKey(12))
}
