package ratelimit

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLimiter_WindowBoundary(t *testing.T) {
	_, rdb := newMiniRedis(t)
	l := NewRedisLimiter(rdb, 5*time.Second)

	assert.True(t, allow(t, l, "alice", t0))
	assert.False(t, allow(t, l, "alice", t0.Add(4999*time.Millisecond)))
	assert.True(t, allow(t, l, "alice", t0.Add(5000*time.Millisecond)))
	// окно отсчитывается от последнего принятого сообщения
	assert.False(t, allow(t, l, "alice", t0.Add(9999*time.Millisecond)))
}

func TestRedisLimiter_PerSenderAndSharedBetweenInstances(t *testing.T) {
	_, rdb := newMiniRedis(t)
	a := NewRedisLimiter(rdb, 5*time.Second)
	b := NewRedisLimiter(rdb, 5*time.Second)

	assert.True(t, allow(t, a, "alice", t0))
	assert.True(t, allow(t, a, "bob", t0))
	assert.False(t, allow(t, b, "alice", t0.Add(time.Second)), "second instance sees the same window")
	assert.True(t, allow(t, b, " alice", t0.Add(time.Second)), "names are not normalized")
}

func TestRedisLimiter_KeyExpires(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewRedisLimiter(rdb, 5*time.Second)

	require.True(t, allow(t, l, "alice", t0))
	key := redisKeyPrefix + "alice"
	assert.Equal(t, 10*time.Second, mr.TTL(key))

	mr.FastForward(10 * time.Second)
	assert.False(t, mr.Exists(key))
}

func TestRedisLimiter_ConcurrentSingleWinner(t *testing.T) {
	_, rdb := newMiniRedis(t)
	l := NewRedisLimiter(rdb, 5*time.Second)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := l.Allow(context.Background(), "alice", t0); err == nil && ok {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, accepted.Load())
}

func TestRedisLimiter_ServerDown(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	l := NewRedisLimiter(rdb, 5*time.Second)
	mr.Close()

	ok, err := l.Allow(context.Background(), "alice", t0)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestNewRedisLimiter_NilClientPanics(t *testing.T) {
	assert.Panics(t, func() { NewRedisLimiter(nil, time.Second) })
}

// Живой Redis: REDIS_URL=redis://localhost:6379/0
func TestRedisLimiter_LiveServer(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLimiter(rdb, 5*time.Second)
	sender := "test-" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, redisKeyPrefix+sender) })

	now := time.Now()
	assert.True(t, allow(t, l, sender, now))
	assert.False(t, allow(t, l, sender, now.Add(4999*time.Millisecond)))
	assert.True(t, allow(t, l, sender, now.Add(5*time.Second)))
}
