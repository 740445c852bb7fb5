package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Alert is a pending reminder notification for a single task. At most one
// alert exists per task id; adding overwrites, removing is a no-op when
// absent.
type Alert struct {
	TaskID  string    `json:"taskId"`
	OwnerID string    `json:"ownerId"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	FireAt  time.Time `json:"fireAt"`
}

// AlertQueue is the registry of pending alerts consumed by the dispatcher.
type AlertQueue interface {
	Add(ctx context.Context, alert Alert) error
	Remove(ctx context.Context, taskID string) error
	// Due pops and returns every alert whose fire time is at or before now.
	Due(ctx context.Context, now time.Time) ([]Alert, error)
}

// RedisAlertQueue keeps pending alerts in a sorted set scored by fire time,
// with one payload key per task id.
type RedisAlertQueue struct {
	client *redis.Client
	prefix string
}

func NewRedisAlertQueue(client *redis.Client, prefix string) *RedisAlertQueue {
	return &RedisAlertQueue{client: client, prefix: prefix}
}

func (q *RedisAlertQueue) pendingKey() string {
	return q.prefix + "pending"
}

func (q *RedisAlertQueue) alertKey(taskID string) string {
	return q.prefix + "alert:" + taskID
}

func (q *RedisAlertQueue) Add(ctx context.Context, alert Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("alert marshal error: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.ZAdd(ctx, q.pendingKey(), redis.Z{
		Score:  float64(alert.FireAt.Unix()),
		Member: alert.TaskID,
	})
	pipe.Set(ctx, q.alertKey(alert.TaskID), data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("alert add error: %w", err)
	}

	return nil
}

// Remove drops the pending alert for taskID. Removing an absent alert is a
// success: ZREM and DEL both tolerate missing members.
func (q *RedisAlertQueue) Remove(ctx context.Context, taskID string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.pendingKey(), taskID)
	pipe.Del(ctx, q.alertKey(taskID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("alert remove error: %w", err)
	}

	return nil
}

func (q *RedisAlertQueue) Due(ctx context.Context, now time.Time) ([]Alert, error) {
	ids, err := q.client.ZRangeByScore(ctx, q.pendingKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("alert range error: %w", err)
	}

	var alerts []Alert
	for _, id := range ids {
		data, err := q.client.Get(ctx, q.alertKey(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// payload already gone, drop the orphaned member
				q.client.ZRem(ctx, q.pendingKey(), id)
				continue
			}
			return alerts, fmt.Errorf("alert get error: %w", err)
		}

		var alert Alert
		if err := json.Unmarshal(data, &alert); err != nil {
			return alerts, fmt.Errorf("alert unmarshal error: %w", err)
		}

		if err := q.Remove(ctx, id); err != nil {
			return alerts, err
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}
