package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache keeps recent capacity snapshots in Redis. Snapshots go stale
// the moment a booking lands, so the TTL must stay short; the cache is a
// read-through optimization and the engine works identically without it.
type SnapshotCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSnapshotCache creates a capacity snapshot cache.
func NewSnapshotCache(redisClient *redis.Client, ttl time.Duration) *SnapshotCache {
	if redisClient == nil {
		panic("availability: redis client required")
	}
	return &SnapshotCache{redis: redisClient, ttl: ttl}
}

func (c *SnapshotCache) key(clinicID, date string) string {
	return fmt.Sprintf("availability:capacity:%s:%s", clinicID, date)
}

// Get returns the cached snapshot for a clinic day, or (nil, nil) on a miss.
func (c *SnapshotCache) Get(ctx context.Context, clinicID, date string) (*CapacitySnapshot, error) {
	data, err := c.redis.Get(ctx, c.key(clinicID, date)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("availability: cache get: %w", err)
	}

	var snap CapacitySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("availability: cache unmarshal: %w", err)
	}
	return &snap, nil
}

// Set stores a snapshot under the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, snap *CapacitySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("availability: cache marshal: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(snap.ClinicID, snap.Date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("availability: cache set: %w", err)
	}
	return nil
}
