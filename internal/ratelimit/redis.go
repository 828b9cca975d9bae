package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "faceverify:attempts:"

// RedisCounter keeps attempts in a sorted set per user and business type,
// scored by unix nanoseconds.
type RedisCounter struct {
	client    redis.Cmdable
	retention time.Duration
}

func NewRedisCounter(client redis.Cmdable, retention time.Duration) *RedisCounter {
	return &RedisCounter{
		client:    client,
		retention: retention,
	}
}

// NewRedisClient parses url and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func attemptKey(userID, businessType string) string {
	return attemptKeyPrefix + businessType + ":" + userID
}

func (c *RedisCounter) Record(ctx context.Context, userID, businessType string, at time.Time) error {
	key := attemptKey(userID, businessType)

	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixNano()), Member: uuid.NewString()})
	if c.retention > 0 {
		cutoff := at.Add(-c.retention).UnixNano()
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		pipe.Expire(ctx, key, c.retention)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (c *RedisCounter) Count(ctx context.Context, userID, businessType string, window time.Duration, now time.Time) (int, error) {
	lo := "(" + strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	hi := strconv.FormatInt(now.UnixNano(), 10)

	n, err := c.client.ZCount(ctx, attemptKey(userID, businessType), lo, hi).Result()
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return int(n), nil
}
