package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// CacheRepository кэширует цель редиректа по короткому коду.
// Счётчики в кэш не попадают, только то, что не меняется от кликов.
type CacheRepository interface {
	Get(ctx context.Context, code string) (*models.LinkTarget, error)
	Set(ctx context.Context, code string, target *models.LinkTarget, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) Get(ctx context.Context, code string) (*models.LinkTarget, error) {
	data, err := r.redis.Client.Get(ctx, r.key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var target models.LinkTarget
	if err := json.Unmarshal(data, &target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link target: %w", err)
	}

	return &target, nil
}

func (r *cacheRepository) Set(ctx context.Context, code string, target *models.LinkTarget, ttl time.Duration) error {
	data, err := json.Marshal(target)
	if err != nil {
		return fmt.Errorf("failed to marshal link target: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(code), data, ttl).Err()
}

func (r *cacheRepository) Delete(ctx context.Context, code string) error {
	return r.redis.Client.Del(ctx, r.key(code)).Err()
}

func (r *cacheRepository) key(code string) string {
	return "link:" + code
}

// noopCache используется, когда Redis не настроен
type noopCache struct{}

func NewNoopCache() CacheRepository {
	return noopCache{}
}

func (noopCache) Get(context.Context, string) (*models.LinkTarget, error) {
	return nil, ErrCacheMiss
}

func (noopCache) Set(context.Context, string, *models.LinkTarget, time.Duration) error {
	return nil
}

func (noopCache) Delete(context.Context, string) error {
	return nil
}
