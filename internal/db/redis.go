package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "runlog"

// Redis is a KV backed by plain Redis strings. Keys are namespaced with a
// prefix so several logs can share one server.
type Redis struct {
	client   *goredis.Client
	prefix   string
	password string
	db       int
}

// RedisOption configures a Redis backend.
type RedisOption func(*Redis)

// WithRedisPassword sets the AUTH password.
func WithRedisPassword(password string) RedisOption {
	return func(r *Redis) {
		r.password = password
	}
}

// WithRedisDB selects the logical database number.
func WithRedisDB(db int) RedisOption {
	return func(r *Redis) {
		r.db = db
	}
}

// WithRedisPrefix sets the key prefix; blank prefixes are ignored.
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if p := strings.TrimSpace(prefix); p != "" {
			r.prefix = p
		}
	}
}

// WithRedisClient uses an existing client instead of dialing addr.
func WithRedisClient(client *goredis.Client) RedisOption {
	return func(r *Redis) {
		if client != nil {
			r.client = client
		}
	}
}

// OpenRedis connects to the server at addr and pings it.
func OpenRedis(ctx context.Context, addr string, opts ...RedisOption) (*Redis, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	r := &Redis{prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: r.password,
			DB:       r.db,
		})
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return r, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

// Get returns the value under the prefixed key, or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get %q from redis: %w", key, err)
	}
	return raw, nil
}

// Set stores value under the prefixed key with no expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %q in redis: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
