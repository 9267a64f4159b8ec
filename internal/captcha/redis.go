package captcha

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tcf:captcha:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient builds the client used for captcha sessions.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func (r *RedisStore) Put(ctx context.Context, sessionToken string, expected int, ttl time.Duration) error {
	return r.client.Set(ctx, redisKeyPrefix+sessionToken, expected, ttl).Err()
}

// Take uses GETDEL so two concurrent submits cannot both read the answer.
func (r *RedisStore) Take(ctx context.Context, sessionToken string) (int, error) {
	val, err := r.client.GetDel(ctx, redisKeyPrefix+sessionToken).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNoChallenge
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt captcha value %q: %w", val, err)
	}
	return n, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
