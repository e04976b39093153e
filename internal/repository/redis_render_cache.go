package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storyboard-server/internal/model"
)

var _ RenderCache = (*redisRenderCache)(nil)

// redisRenderCache кэширует результат отрисовки по хэшу промпта.
// Один и тот же промпт с теми же референсами не отправляется провайдеру
// повторно, пока жива запись.
type redisRenderCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisRenderCache(client *redis.Client, logger *zap.Logger) RenderCache {
	return &redisRenderCache{
		client: client,
		logger: logger.Named("RedisRenderCache"),
	}
}

func cacheKey(promptHash string) string {
	return fmt.Sprintf("render_cache:%s", promptHash)
}

func (c *redisRenderCache) Get(ctx context.Context, promptHash string) (string, error) {
	imageURL, err := c.client.Get(ctx, cacheKey(promptHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: render cache miss %s", model.ErrNotFound, promptHash)
		}
		c.logger.Error("ошибка чтения кэша отрисовки", zap.String("hash", promptHash), zap.Error(err))
		return "", fmt.Errorf("redis error reading render cache: %w", err)
	}
	c.logger.Debug("попадание в кэш отрисовки", zap.String("hash", promptHash))
	return imageURL, nil
}

func (c *redisRenderCache) Set(ctx context.Context, promptHash, imageURL string, ttl time.Duration) error {
	if err := c.client.Set(ctx, cacheKey(promptHash), imageURL, ttl).Err(); err != nil {
		c.logger.Error("ошибка записи кэша отрисовки", zap.String("hash", promptHash), zap.Error(err))
		return fmt.Errorf("redis error writing render cache: %w", err)
	}
	return nil
}
