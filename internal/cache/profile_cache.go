package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"personaforge/internal/model"
)

// ProfileCache handles Redis operations for interpreted segment profiles.
// Profiles arrive asynchronously after a clustering run; caching them
// separately lets the run document stay untouched until interpretation
// completes.
type ProfileCache interface {
	GetProfiles(ctx context.Context, runID string) ([]model.SegmentProfile, error)
	SetProfiles(ctx context.Context, runID string, profiles []model.SegmentProfile) error
}

type profileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache creates a new profile cache
func NewProfileCache(client *redis.Client) ProfileCache {
	return &profileCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *profileCache) profilesKey(runID string) string {
	return fmt.Sprintf("run:%s:profiles", runID)
}

func (c *profileCache) GetProfiles(ctx context.Context, runID string) ([]model.SegmentProfile, error) {
	data, err := c.client.Get(ctx, c.profilesKey(runID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var profiles []model.SegmentProfile
	if err := json.Unmarshal([]byte(data), &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (c *profileCache) SetProfiles(ctx context.Context, runID string, profiles []model.SegmentProfile) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.profilesKey(runID), data, c.ttl).Err()
}
