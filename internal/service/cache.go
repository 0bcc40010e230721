package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"foodpos/internal/model"
)

// MenuCache holds the active menu list the POS screen polls.
type MenuCache interface {
	GetActiveMenus(ctx context.Context) ([]model.Menu, bool)
	SetActiveMenus(ctx context.Context, menus []model.Menu)
	Invalidate(ctx context.Context)
}

const activeMenusKey = "foodpos:menus:active"

type RedisMenuCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRedisMenuCache(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisMenuCache {
	return &RedisMenuCache{client: client, ttl: ttl, log: log}
}

func (c *RedisMenuCache) GetActiveMenus(ctx context.Context) ([]model.Menu, bool) {
	data, err := c.client.Get(ctx, activeMenusKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Warn("menu cache read failed")
		}
		return nil, false
	}

	var menus []model.Menu
	if err := json.Unmarshal(data, &menus); err != nil {
		c.log.WithError(err).Warn("menu cache entry corrupt")
		return nil, false
	}
	return menus, true
}

func (c *RedisMenuCache) SetActiveMenus(ctx context.Context, menus []model.Menu) {
	data, err := json.Marshal(menus)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, activeMenusKey, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("menu cache write failed")
	}
}

func (c *RedisMenuCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, activeMenusKey).Err(); err != nil {
		c.log.WithError(err).Warn("menu cache invalidation failed")
	}
}

// NoopMenuCache is used when no redis address is configured.
type NoopMenuCache struct{}

func (NoopMenuCache) GetActiveMenus(context.Context) ([]model.Menu, bool) { return nil, false }

func (NoopMenuCache) SetActiveMenus(context.Context, []model.Menu) {}

func (NoopMenuCache) Invalidate(context.Context) {}

// ConnectMenuCache returns a redis-backed cache when addr is set and reachable,
// otherwise a NoopMenuCache.
func ConnectMenuCache(ctx context.Context, addr string, ttl time.Duration, log logrus.FieldLogger) MenuCache {
	if addr == "" {
		return NoopMenuCache{}
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 2 * time.Second})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unavailable, menu cache disabled")
		_ = client.Close()
		return NoopMenuCache{}
	}

	log.WithField("addr", addr).Info("menu cache enabled")
	return NewRedisMenuCache(client, ttl, log)
}
