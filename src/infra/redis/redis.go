package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	prefix     string
}

// NewRedisClient connects to the addresses in addrs (comma separated). A
// single address gets a standalone client, several get a cluster client.
func NewRedisClient(addrs string, poolSize int, defaultTTL time.Duration) *RedisClient {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        strings.Split(addrs, ","),
		PoolSize:     poolSize,
		MinIdleConns: 5,
		MaxRedirects: 3,

		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	return &RedisClient{
		client:     client,
		defaultTTL: defaultTTL,
	}
}

// WithPrefix returns a client that namespaces every key. Tests use it to
// keep their keys apart from real data.
func (rc *RedisClient) WithPrefix(prefix string) *RedisClient {
	return &RedisClient{
		client:     rc.client,
		defaultTTL: rc.defaultTTL,
		prefix:     prefix,
	}
}

// cacheFields wraps a value with the time it was written. The extra field
// makes stale entries easy to spot from redis-cli.
func cacheFields(value string) map[string]interface{} {
	return map[string]interface{}{
		"data":      value,
		"cached_at": time.Now().Unix(),
	}
}

func (rc *RedisClient) SetKey(ctx context.Context, key string, value string) error {
	name := rc.prefix + key

	if err := rc.client.HSet(ctx, name, cacheFields(value)).Err(); err != nil {
		return err
	}

	return rc.client.Expire(ctx, name, rc.defaultTTL).Err()
}

// SetPersistent stores a value without a TTL. Checkpoints must outlive the
// cache expiry.
func (rc *RedisClient) SetPersistent(ctx context.Context, key string, value string) error {
	return rc.client.HSet(ctx, rc.prefix+key, cacheFields(value)).Err()
}

func (rc *RedisClient) GetKey(ctx context.Context, key string) (string, bool, error) {
	val, err := rc.client.HGet(ctx, rc.prefix+key, "data").Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return val, true, nil
}

func (rc *RedisClient) DeleteKeys(ctx context.Context, keys []string) error {
	// One DEL per key; a variadic DEL would cross slots on a cluster.
	var errs []error
	for _, key := range keys {
		if err := rc.client.Del(ctx, rc.prefix+key).Err(); err != nil {
			errs = append(errs, fmt.Errorf("key %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

// FlushByPrefix removes every key under the client's prefix. Test cleanup
// only; it scans the keyspace.
func (rc *RedisClient) FlushByPrefix(ctx context.Context) error {
	if rc.prefix == "" {
		return fmt.Errorf("refusing to flush without a prefix")
	}

	iter := rc.client.Scan(ctx, 0, rc.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := rc.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}

func (rc *RedisClient) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}
