// Package cache provides a read-through Redis cache in front of the Job
// store's get/list operations, cache-aside style: reads check Redis first
// and populate it on miss. The job service invalidates after its own
// mutations (post-commit registration, delete, pause, resume); status and
// next-fire writes made by the executor do not invalidate, so cached
// entries can lag them by up to the 30-second TTL.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"triggerd/internal/models"
)

const (
	jobKeyPrefix = "triggerd:job:"
	listKey      = "triggerd:job:list"
	ttl          = 30 * time.Second
)

// JobCache wraps a Redis client with Job-shaped get/set/invalidate helpers,
// grounded on kenjpais-godoit's cache-aside usage in
// internal/controller/job_controller.go (check cache → miss → populate).
type JobCache struct {
	client *redis.Client
}

func New(client *redis.Client) *JobCache {
	return &JobCache{client: client}
}

func (c *JobCache) Get(ctx context.Context, id uuid.UUID) (*models.Job, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, jobKeyPrefix+id.String()).Bytes()
	if err != nil {
		return nil, false
	}
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, false
	}
	return &job, true
}

func (c *JobCache) Set(ctx context.Context, job *models.Job) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	c.client.Set(ctx, jobKeyPrefix+job.ID.String(), raw, ttl)
}

func (c *JobCache) GetList(ctx context.Context) ([]*models.Job, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, listKey).Bytes()
	if err != nil {
		return nil, false
	}
	var jobs []*models.Job
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil, false
	}
	return jobs, true
}

func (c *JobCache) SetList(ctx context.Context, jobs []*models.Job) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(jobs)
	if err != nil {
		return
	}
	c.client.Set(ctx, listKey, raw, ttl)
}

// Invalidate drops the cached entry for a single Job and the list cache,
// called after any mutating store operation.
func (c *JobCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, jobKeyPrefix+id.String(), listKey)
}
