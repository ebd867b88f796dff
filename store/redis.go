package store

import (
	"context"
	"errors"
	"strings"

	"logviewer/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "logviewer:counter:"

type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(addr string, password string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &RedisStore{Client: client}
}

// Ping verifies the connection; callers fall back to LocalStore on failure.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	return s.Client.Incr(ctx, keyPrefix+key).Result()
}

func (s *RedisStore) GetCounter(ctx context.Context, key string) (int64, error) {
	val, err := s.Client.Get(ctx, keyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

func (s *RedisStore) Counters(ctx context.Context) (map[string]int64, error) {
	counters := make(map[string]int64)
	iter := s.Client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		val, err := s.Client.Get(ctx, k).Int64()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				logger.Warn("Redis counter read failed", "key", k, "err", err)
			}
			continue
		}
		counters[strings.TrimPrefix(k, keyPrefix)] = val
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return counters, nil
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
