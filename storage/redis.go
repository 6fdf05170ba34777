package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Backend over a go-redis client. Keys are "<prefix>:<namespace>:<key>".
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis backend. A ttl of zero stores values without expiry.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "gb"
	}
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *Redis) key(namespace, key string) string {
	return r.prefix + ":" + namespace + ":" + key
}

func (r *Redis) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(namespace, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, namespace, key string) error {
	if err := r.client.Del(ctx, r.key(namespace, key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping checks connectivity; used by health endpoints.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
