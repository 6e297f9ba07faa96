package rediscache

import (
	"context"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseLockScript deletes the lock key only when the caller still holds
// it, so a lock that expired and was re-acquired elsewhere is never
// released by the old holder.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// LockKey builds a namespaced lock key.
func LockKey(namespace, resource string) string {
	return fmt.Sprintf("lock:%s:%s", namespace, resource)
}

// AcquireLock attempts SET NX PX with the given ttl. token "" generates a
// fresh one. Returns the held token, or "" if the lock is taken.
func (p *Pool) AcquireLock(ctx context.Context, key string, ttl time.Duration, token string) (string, error) {
	if token == "" {
		token = uuid.NewString()
	}
	ok, err := p.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// AcquireLockRetry retries AcquireLock with a fixed backoff between
// attempts. Returns "" when every attempt found the lock taken.
func (p *Pool) AcquireLockRetry(ctx context.Context, key string, ttl time.Duration, retries int, backoff time.Duration, token string) (string, error) {
	for i := 0; i < retries; i++ {
		held, err := p.AcquireLock(ctx, key, ttl, token)
		if err != nil {
			return "", err
		}
		if held != "" {
			return held, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", nil
}

// ReleaseLock releases the lock when token still matches.
func (p *Pool) ReleaseLock(ctx context.Context, key, token string) (bool, error) {
	n, err := releaseLockScript.Run(ctx, p.client, []string{key}, token).Int()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
