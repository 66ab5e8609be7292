package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/redis/go-redis/v9"
)

const recentJobsKey = "recent_jobs"
const recentJobsMax = 100

// JobsCache keeps enriched jobs in Redis so hot lookups skip the database.
// Entries carry a TTL; the recent_jobs list is trimmed to the last 100 IDs.
type JobsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func NewJobsCache(client *redis.Client, ttl time.Duration) *JobsCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JobsCache{client: client, ttl: ttl}
}

// CacheJob is a no-op on a nil cache, so callers can wire an optional
// cache without guarding every call site.
func (c *JobsCache) CacheJob(ctx context.Context, job *entities.Job) error {
	if c == nil || job.ID == "" {
		return nil
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, jobKey(job.ID), data, c.ttl)
	pipe.LPush(ctx, recentJobsKey, job.ID)
	pipe.LTrim(ctx, recentJobsKey, 0, recentJobsMax-1)
	_, err = pipe.Exec(ctx)
	return err
}

// GetJob returns nil without error on a cache miss or a nil cache.
func (c *JobsCache) GetJob(ctx context.Context, id string) (*entities.Job, error) {
	if c == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var job entities.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *JobsCache) RecentJobIDs(ctx context.Context, limit int) ([]string, error) {
	if c == nil {
		return nil, nil
	}
	return c.client.LRange(ctx, recentJobsKey, 0, int64(limit)-1).Result()
}

func jobKey(id string) string {
	return "job:" + id
}
