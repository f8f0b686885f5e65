package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidTTL = errors.New("cache: ttl must be > 0")
)

const (
	TempImageListKey = "temp_image_names"
)

type Cacher interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
	AddImageNameToTempList(ctx context.Context, imageName string) error
	RemoveImageNameFromTempList(ctx context.Context, imageName string) error
}

// AuctionKey is where the storefront projection of an auction is cached.
func AuctionKey(id uuid.UUID) string {
	return "auction:" + id.String()
}

// NewRedisClient connects to Redis. The client is shared by the cache, the
// event publisher and the live subscriber.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("REDIS_ADDR is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     50,
		MinIdleConns: 10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
	}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// cache miss - not an error
		return "", false, nil
	}
	if err != nil {
		// real failure (timeout, connection issue, etc.)
		return "", false, err
	}

	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) AddImageNameToTempList(ctx context.Context, imageName string) error {
	return r.client.LPush(ctx, TempImageListKey, imageName).Err()
}

func (r *RedisCache) RemoveImageNameFromTempList(ctx context.Context, imageName string) error {
	return r.client.LRem(ctx, TempImageListKey, 0, imageName).Err()
}

// Nop is a Cacher that stores nothing. It stands in when Redis is not configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Nop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error { return nil }
func (Nop) Ping(context.Context) error { return nil }
func (Nop) Close() error { return nil }
func (Nop) AddImageNameToTempList(context.Context, string) error { return nil }
func (Nop) RemoveImageNameFromTempList(context.Context, string) error { return nil }
