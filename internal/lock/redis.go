package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// снимаем ключ только если он всё ещё наш
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker блокировки между несколькими экземплярами сервиса.
// TTL ограничивает время удержания, если процесс упал между проверкой и записью
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, keys []string) (Release, error) {
	keys = normalize(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))

	release := func(ctx context.Context) error {
		var firstErr error
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(ctx, l.client, []string{held[i]}, token).Err(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("release lock %s: %w", held[i], err)
			}
		}
		return firstErr
	}

	for _, key := range keys {
		full := l.prefix + key
		for {
			ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
			if err != nil {
				_ = release(context.WithoutCancel(ctx))
				return nil, fmt.Errorf("acquire lock %s: %w", key, err)
			}
			if ok {
				held = append(held, full)
				break
			}

			select {
			case <-time.After(l.retry):
			case <-ctx.Done():
				_ = release(context.WithoutCancel(ctx))
				return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
			}
		}
	}

	return release, nil
}
