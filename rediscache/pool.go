package rediscache

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/ooiai/neocrates/env_mode"
)

// Pool wraps a pooled redis client with the expiring key-value operations
// the captcha/sms services rely on. Expiry is delegated entirely to redis
// TTLs; the Pool never sweeps.
type Pool struct {
	client *redis.Client
}

// NewPool connects to redis and verifies the connection with a PING.
func NewPool(cnf Config) (*Pool, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cnf.Addr(),
		Password:     cnf.Password,
		DB:           cnf.DB,
		PoolSize:     cnf.PoolSize,
		MinIdleConns: cnf.MinIdleConns,
		DialTimeout:  cnf.DialTimeout,
		IdleTimeout:  cnf.IdleTimeout,
		MaxConnAge:   cnf.MaxConnAge,
	})
	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		return nil, err
	}
	if env_mode.Mode() == env_mode.DevMode {
		fmt.Printf("redis连接成功: %s (%s)\n", pong, configLogFields(cnf))
	}
	return &Pool{client: client}, nil
}

// NewPoolFromClient wraps an existing client. Used by tests and by callers
// that manage the client themselves.
func NewPoolFromClient(client *redis.Client) *Pool {
	return &Pool{client: client}
}

// Client exposes the underlying redis client for operations the wrapper
// does not cover.
func (p *Pool) Client() *redis.Client {
	return p.client
}

// Close releases the connection pool.
func (p *Pool) Close() error {
	return p.client.Close()
}

// Set 写入键值, ttl 为 0 表示不过期
func (p *Pool) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return p.client.Set(ctx, key, value, ttl).Err()
}

// SetEx 写入带过期时间的键值
func (p *Pool) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return p.client.SetEX(ctx, key, value, ttl).Err()
}

// Get 读取键值; 键不存在时 ok 为 false 且不报错
func (p *Pool) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := p.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Del 删除键, 返回是否实际删除
func (p *Pool) Del(ctx context.Context, key string) (bool, error) {
	n, err := p.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists 检查键是否存在
func (p *Pool) Exists(ctx context.Context, key string) (bool, error) {
	n, err := p.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Expire 重设键的过期时间
func (p *Pool) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return p.client.Expire(ctx, key, ttl).Result()
}

// TTL 查询键的剩余生存时间
func (p *Pool) TTL(ctx context.Context, key string) (time.Duration, error) {
	return p.client.TTL(ctx, key).Result()
}

// compareAndDeleteScript compares GET result against ARGV[1] and deletes
// the key on a match, all in one round trip. ARGV[2] = "1" folds case.
// Returns {matched, existed}.
var compareAndDeleteScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v == false then
    return {0, 0}
end
local stored = v
local expected = ARGV[1]
if ARGV[2] == "1" then
    stored = string.upper(stored)
    expected = string.upper(expected)
end
if stored == expected then
    redis.call("DEL", KEYS[1])
    return {1, 1}
end
return {0, 1}
`)

// CompareAndDelete atomically compares the stored value with expected and
// deletes the key when they match. existed reports whether the key was
// live at all.
func (p *Pool) CompareAndDelete(ctx context.Context, key, expected string, foldCase bool) (matched bool, existed bool, err error) {
	fold := "0"
	if foldCase {
		fold = "1"
	}
	res, err := compareAndDeleteScript.Run(ctx, p.client, []string{key}, expected, fold).Result()
	if err != nil {
		return false, false, err
	}
	flags, ok := res.([]interface{})
	if !ok || len(flags) != 2 {
		return false, false, fmt.Errorf("unexpected script reply: %v", res)
	}
	matched = toInt64(flags[0]) == 1
	existed = toInt64(flags[1]) == 1
	return matched, existed, nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		if strings.TrimSpace(n) == "1" {
			return 1
		}
	}
	return 0
}
