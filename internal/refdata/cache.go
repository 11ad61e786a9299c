package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache persists the last good reference data outside the process.
type Cache interface {
	Load(ctx context.Context) (Data, bool, error)
	Store(ctx context.Context, data Data) error
}

// RedisCache stores reference data as a JSON blob under one key.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache builds a cache; ttl <= 0 keeps the entry forever.
func NewRedisCache(client *redis.Client, key string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, key: key, ttl: ttl}
}

// Load returns false when nothing has been cached yet.
func (c *RedisCache) Load(ctx context.Context) (Data, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, false, nil
	}
	if err != nil {
		return Data{}, false, fmt.Errorf("read reference cache: %w", err)
	}
	data, err := decodeData(raw)
	if err != nil {
		return Data{}, false, err
	}
	return data, true, nil
}

// Store overwrites the cached entry.
func (c *RedisCache) Store(ctx context.Context, data Data) error {
	raw, err := encodeData(data)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("write reference cache: %w", err)
	}
	return nil
}

func encodeData(data Data) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode reference data: %w", err)
	}
	return raw, nil
}

func decodeData(raw []byte) (Data, error) {
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("decode reference data: %w", err)
	}
	return data, nil
}
