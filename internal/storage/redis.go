package storage

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisEngine stores keys as plain redis strings under a prefix, so several
// databases can share one redis instance.
type RedisEngine struct {
	client *redis.Client
	prefix string
}

func NewRedisEngine(addr, prefix string) (*RedisEngine, error) {
	if prefix == "" {
		prefix = "novadb:"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WithMessage(err, "redis.client.Ping failed")
	}
	return &RedisEngine{client: client, prefix: prefix}, nil
}

func (r *RedisEngine) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisTimeout)
}

func (r *RedisEngine) Read(key string) ([]byte, error) {
	ctx, cancel := r.ctx()
	defer cancel()
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

func (r *RedisEngine) Write(key string, data []byte) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Set(ctx, r.prefix+key, data, 0).Err()
}

func (r *RedisEngine) Delete(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *RedisEngine) Keys() ([]string, error) {
	ctx, cancel := r.ctx()
	defer cancel()
	var keys []string
	it := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for it.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(it.Val(), r.prefix))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Flush is a no-op: durability is the redis server's concern.
func (r *RedisEngine) Flush() error { return nil }

func (r *RedisEngine) Close() error { return r.client.Close() }
