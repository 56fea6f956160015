package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"personaforge/internal/model"
)

// RunCache handles Redis operations for classification run output. Full
// result sets are expensive to pull from Mongo on every read; the cache
// fronts them with a TTL so re-reads of a finished run stay cheap.
type RunCache interface {
	GetResults(ctx context.Context, runID string) ([]model.ClassificationResult, error)
	SetResults(ctx context.Context, runID string, results []model.ClassificationResult) error

	GetProgress(ctx context.Context, runID string) (*model.RunProgress, error)
	SetProgress(ctx context.Context, runID string, progress *model.RunProgress) error

	// Latest completed run per dataset, "" when none is cached
	GetLatestRunID(ctx context.Context, datasetID string) (string, error)
	SetLatestRunID(ctx context.Context, datasetID, runID string) error

	Invalidate(ctx context.Context, runID string) error
}

type runCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunCache creates a new run cache
func NewRunCache(client *redis.Client) RunCache {
	return &runCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

// Key helpers
func (c *runCache) resultsKey(runID string) string {
	return fmt.Sprintf("run:%s:results", runID)
}

func (c *runCache) progressKey(runID string) string {
	return fmt.Sprintf("run:%s:progress", runID)
}

func (c *runCache) latestKey(datasetID string) string {
	return fmt.Sprintf("dataset:%s:latest_run", datasetID)
}

func (c *runCache) GetResults(ctx context.Context, runID string) ([]model.ClassificationResult, error) {
	data, err := c.client.Get(ctx, c.resultsKey(runID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var results []model.ClassificationResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *runCache) SetResults(ctx context.Context, runID string, results []model.ClassificationResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.resultsKey(runID), data, c.ttl).Err()
}

func (c *runCache) GetProgress(ctx context.Context, runID string) (*model.RunProgress, error) {
	data, err := c.client.Get(ctx, c.progressKey(runID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var progress model.RunProgress
	if err := json.Unmarshal([]byte(data), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (c *runCache) SetProgress(ctx context.Context, runID string, progress *model.RunProgress) error {
	progress.UpdatedAt = time.Now()
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.progressKey(runID), data, c.ttl).Err()
}

func (c *runCache) GetLatestRunID(ctx context.Context, datasetID string) (string, error) {
	runID, err := c.client.Get(ctx, c.latestKey(datasetID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return runID, nil
}

func (c *runCache) SetLatestRunID(ctx context.Context, datasetID, runID string) error {
	return c.client.Set(ctx, c.latestKey(datasetID), runID, c.ttl).Err()
}

func (c *runCache) Invalidate(ctx context.Context, runID string) error {
	return c.client.Del(ctx, c.resultsKey(runID), c.progressKey(runID)).Err()
}
