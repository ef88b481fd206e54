package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

var RedisClient *redis.Client

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("key not found")

var errRedisUnavailable = errors.New("Redis client not initialized")

// InitRedis connects the shared client.
func InitRedis(host, port string) error {
	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	RedisClient = client
	logrus.Infof("Connected to Redis at %s", addr)
	return nil
}

// CacheSet stores a value in Redis with expiration
func CacheSet(ctx context.Context, key string, value string, expiration time.Duration) error {
	if RedisClient == nil {
		return errRedisUnavailable
	}
	return RedisClient.Set(ctx, key, value, expiration).Err()
}

// CacheGet retrieves a value from Redis
func CacheGet(ctx context.Context, key string) (string, error) {
	if RedisClient == nil {
		return "", errRedisUnavailable
	}
	val, err := RedisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

// CacheDelete removes a key from Redis
func CacheDelete(ctx context.Context, key string) error {
	if RedisClient == nil {
		return errRedisUnavailable
	}
	return RedisClient.Del(ctx, key).Err()
}

// ClaimKey sets key only if it is absent. It reports whether this caller
// now owns the key.
func ClaimKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if RedisClient == nil {
		return false, errRedisUnavailable
	}
	return RedisClient.SetNX(ctx, key, "", ttl).Result()
}

// CloseRedis closes the Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
