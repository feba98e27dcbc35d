package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "ratelimit:msg:"

// allowScript: ключ хранит unix ms последнего принятого сообщения.
// Решение принимается по now вызывающего, TTL ключа только чистит память.
var allowScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
local now = tonumber(ARGV[1])
if last and now - tonumber(last) < tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// RedisLimiter делит окна между несколькими экземплярами сервиса.
// Окно считается по now из Allow, а не по часам Redis, поэтому часы
// экземпляров должны быть синхронизированы.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, window time.Duration) *RedisLimiter {
	if client == nil {
		panic("redis client cannot be nil for RedisLimiter")
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{client: client, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, sender string, now time.Time) (bool, error) {
	// ключ живёт два окна: с запасом на расхождение часов экземпляров
	ttl := 2 * l.window
	res, err := allowScript.Run(ctx, l.client, []string{redisKeyPrefix + sender},
		now.UnixMilli(), l.window.Milliseconds(), ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis allow: %w", err)
	}
	return res == 1, nil
}

// NewRedisClient разбирает URL вида redis://host:6379/0 и проверяет соединение.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
