// Package redis provides a Redis-based implementation of the storage interface.
package redis

import (
	"context"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/engram/engram/pkg/storage"
)

// Config holds configuration for RedisStorage.
type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisStorage implements the Storage interface using Redis.
type RedisStorage struct {
	client redis.Cmdable
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(config *Config) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	return &RedisStorage{client: client}, nil
}

// NewRedisStorageWithClient wraps an existing Redis client. The caller keeps
// ownership of the client unless it implements io.Closer.
func NewRedisStorageWithClient(client redis.Cmdable) *RedisStorage {
	return &RedisStorage{client: client}
}

// Get retrieves the value stored under key.
func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, &storage.NotFoundError{Key: key}
		}
		return nil, err
	}
	return value, nil
}

// Set stores value under key. A zero ttl means the key never expires.
func (r *RedisStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes key. Redis DEL on a missing key is not an error.
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Ping reports whether the Redis server is reachable.
func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &storage.StorageUnavailableError{Cause: err}
	}
	return nil
}

// Close closes the underlying client when this storage owns it.
func (r *RedisStorage) Close() error {
	if closer, ok := r.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
