package cache

import (
	"context"
	"encoding/json"
	"time"

	dom "todosync/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyListPrefix = "todo:list:"

// TodoCache caches per-user todo lists in Redis.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// GetList returns the cached list for userID, or nil on miss.
func (c *TodoCache) GetList(ctx context.Context, userID string) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, keyListPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Todo
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the list for userID.
func (c *TodoCache) SetList(ctx context.Context, userID string, list []dom.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyListPrefix+userID, b, c.ttl).Err()
}

// Invalidate drops the cached list for userID (cache invalidation on write).
func (c *TodoCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, keyListPrefix+userID).Err()
}
