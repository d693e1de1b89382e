package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"victoweb/domain"
)

type backend interface {
	ListMessages(ctx context.Context) ([]domain.ChatMessage, error)
	ListTasks(ctx context.Context) ([]domain.ChatTask, error)
	CreateMessage(ctx context.Context, authorID int64, body string) (domain.ChatMessage, error)
	DeleteMessage(ctx context.Context, id int64) error
	CreateTask(ctx context.Context, creatorID int64, in TaskInput) (domain.ChatTask, error)
	UpdateTaskStatus(ctx context.Context, id int64, status string) error
	UpdateTaskAssignment(ctx context.Context, id int64, assigneeID *int64) error
	DeleteTask(ctx context.Context, id int64) error
	AddTaskItem(ctx context.Context, taskID int64, label string) (domain.TaskItem, error)
	ToggleTaskItem(ctx context.Context, id int64, done bool) error
}

// Cache wraps a Store with Redis-backed caching for the admin hub's hot read
// paths. Every stream cue makes each connected admin re-fetch the full hub
// state, so reads dominate; mutations write through and evict.
type Cache struct {
	*Store
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper around base using the provided Redis
// client and TTL. A nil client disables caching without changing behavior.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	c := &Cache{base: base, redis: client, ttl: ttl}
	if s, ok := base.(*Store); ok {
		c.Store = s
	}
	return c
}

const (
	messagesCacheKey = "hub:messages"
	tasksCacheKey    = "hub:tasks"
)

func (c *Cache) ListMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	var cached []domain.ChatMessage
	if c.load(ctx, messagesCacheKey, &cached) {
		return cached, nil
	}
	messages, err := c.base.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, messagesCacheKey, messages)
	return messages, nil
}

func (c *Cache) ListTasks(ctx context.Context) ([]domain.ChatTask, error) {
	var cached []domain.ChatTask
	if c.load(ctx, tasksCacheKey, &cached) {
		return cached, nil
	}
	tasks, err := c.base.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tasksCacheKey, tasks)
	return tasks, nil
}

func (c *Cache) CreateMessage(ctx context.Context, authorID int64, body string) (domain.ChatMessage, error) {
	msg, err := c.base.CreateMessage(ctx, authorID, body)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	c.evict(ctx, messagesCacheKey)
	return msg, nil
}

func (c *Cache) DeleteMessage(ctx context.Context, id int64) error {
	if err := c.base.DeleteMessage(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, messagesCacheKey)
	return nil
}

func (c *Cache) CreateTask(ctx context.Context, creatorID int64, in TaskInput) (domain.ChatTask, error) {
	task, err := c.base.CreateTask(ctx, creatorID, in)
	if err != nil {
		return domain.ChatTask{}, err
	}
	c.evict(ctx, tasksCacheKey)
	return task, nil
}

func (c *Cache) UpdateTaskStatus(ctx context.Context, id int64, status string) error {
	if err := c.base.UpdateTaskStatus(ctx, id, status); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey)
	return nil
}

func (c *Cache) UpdateTaskAssignment(ctx context.Context, id int64, assigneeID *int64) error {
	if err := c.base.UpdateTaskAssignment(ctx, id, assigneeID); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, id int64) error {
	if err := c.base.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey)
	return nil
}

func (c *Cache) AddTaskItem(ctx context.Context, taskID int64, label string) (domain.TaskItem, error) {
	item, err := c.base.AddTaskItem(ctx, taskID, label)
	if err != nil {
		return domain.TaskItem{}, err
	}
	c.evict(ctx, tasksCacheKey)
	return item, nil
}

func (c *Cache) ToggleTaskItem(ctx context.Context, id int64, done bool) error {
	if err := c.base.ToggleTaskItem(ctx, id, done); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey)
	return nil
}

func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, key).Result()
}
