package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ytakahashi/task-reminder-api/internal/models"
)

// ListCache holds the per-owner task list the API serves between store
// reads. It is the visible state the optimistic status toggle mutates before
// the store write confirms.
type ListCache interface {
	Get(ctx context.Context, ownerID string) ([]*models.Task, bool, error)
	Set(ctx context.Context, ownerID string, tasks []*models.Task) error
	Invalidate(ctx context.Context, ownerID string) error
	UpdateStatus(ctx context.Context, ownerID, taskID string, status models.TaskStatus) error
}

// RedisListCache is a cache-aside task list cache keyed by owner id.
type RedisListCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisListCache(client *redis.Client, prefix string, ttl time.Duration) *RedisListCache {
	return &RedisListCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisListCache) key(ownerID string) string {
	return c.prefix + "tasks:" + ownerID
}

func (c *RedisListCache) Get(ctx context.Context, ownerID string) ([]*models.Task, bool, error) {
	data, err := c.client.Get(ctx, c.key(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}

	var tasks []*models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	return tasks, true, nil
}

func (c *RedisListCache) Set(ctx context.Context, ownerID string, tasks []*models.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.key(ownerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

func (c *RedisListCache) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.client.Del(ctx, c.key(ownerID)).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}

	return nil
}

// UpdateStatus rewrites one task's status inside the cached list. A cache
// miss is not an error: there is no visible copy to flip.
func (c *RedisListCache) UpdateStatus(ctx context.Context, ownerID, taskID string, status models.TaskStatus) error {
	tasks, ok, err := c.Get(ctx, ownerID)
	if err != nil || !ok {
		return err
	}

	for _, task := range tasks {
		if task.ID == taskID {
			task.Status = status
		}
	}

	return c.Set(ctx, ownerID, tasks)
}
