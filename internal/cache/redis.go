package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

type RedisCache struct {
	pool *redis.Pool
}

// NewRedisPool dials addr lazily; db selects the logical database.
func NewRedisPool(addr, password string, db int) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr,
				redis.DialPassword(password),
				redis.DialDatabase(db),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func NewRedisCache(pool *redis.Pool) *RedisCache {
	return &RedisCache{pool: pool}
}

func (r *RedisCache) do(ctx context.Context, cmd string, args ...interface{}) (interface{}, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	defer conn.Close()

	return redis.DoContext(conn, ctx, cmd, args...)
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := redis.String(r.do(ctx, "GET", key))
	if errors.Is(err, redis.ErrNil) {
		return "", ErrNotFound
	}
	return value, err
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := []interface{}{key, value}
	if ttl > 0 {
		args = append(args, "PX", ttl.Milliseconds())
	}
	_, err := r.do(ctx, "SET", args...)
	return err
}

func (r *RedisCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	args := []interface{}{key, value, "NX"}
	if ttl > 0 {
		args = append(args, "PX", ttl.Milliseconds())
	}
	_, err := redis.String(r.do(ctx, "SET", args...))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.do(ctx, "DEL", redis.Args{}.AddFlat(keys)...)
	return err
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	return redis.Bool(r.do(ctx, "EXISTS", key))
}

func (r *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	_, err := r.do(ctx, "PEXPIRE", key, ttl.Milliseconds())
	return err
}

func (r *RedisCache) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	_, err := r.do(ctx, "SADD", redis.Args{}.Add(key).AddFlat(members)...)
	return err
}

func (r *RedisCache) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	_, err := r.do(ctx, "SREM", redis.Args{}.Add(key).AddFlat(members)...)
	return err
}

func (r *RedisCache) SMembers(ctx context.Context, key string) ([]string, error) {
	return redis.Strings(r.do(ctx, "SMEMBERS", key))
}

func (r *RedisCache) Ping(ctx context.Context) error {
	_, err := r.do(ctx, "PING")
	return err
}
