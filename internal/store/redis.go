package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	"github.com/brizzai/volunteer-auth/internal/config"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 2 * time.Second

// RedisStore keeps each document as a JSON string under
// "<project>:<collection>:<key>"
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and pings it once
func NewRedisStore(cfg config.StoreConfig, projectID string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis ping %s: %w", cfg.RedisAddr, err)
	}

	return NewRedisStoreWithClient(client, projectID), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, projectID string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: projectID + ":",
	}
}

func (r *RedisStore) key(collection, key string) string {
	return r.prefix + collection + ":" + key
}

func (r *RedisStore) Get(ctx context.Context, collection, key string) (models.Profile, bool, error) {
	val, err := r.client.Get(ctx, r.key(collection, key)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: redis get %s/%s: %w", collection, key, err)
	}

	var doc models.Profile
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return nil, false, fmt.Errorf("store: failed to unmarshal %s/%s: %w", collection, key, err)
	}
	return doc, true, nil
}

func (r *RedisStore) Set(ctx context.Context, collection, key string, doc models.Profile) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: failed to marshal %s/%s: %w", collection, key, err)
	}
	if err := r.client.Set(ctx, r.key(collection, key), data, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
