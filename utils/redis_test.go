package utils

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a running redis; set REDIS_HOST to enable.
func TestRedisOperations(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set")
	}

	client, err := NewRedisClient(host, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	key := "clinic:test_key"
	value := "test_value"

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetToCache(ctx, key, value, time.Second))

	got, err := client.GetFromCache(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	time.Sleep(2 * time.Second)
	_, err = client.GetFromCache(ctx, key)
	assert.True(t, errors.Is(err, redis.Nil), "expected redis.Nil, got %v", err)
}

func TestConnectRedis_GivesUp(t *testing.T) {
	var retries []int
	_, err := ConnectRedis("127.0.0.1:1", "", 0, 2, time.Millisecond, func(attempt int, err error) {
		retries = append(retries, attempt)
	})

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, retries)
}
