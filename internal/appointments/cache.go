package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/velvetdesk/salon-api/pkg/logging"
)

// SlotCache memoizes computed slot grids in redis. The grid is advisory:
// the authoritative conflict check runs at propose time, so a briefly
// stale cached grid costs at worst an ErrSlotConflict round trip. Misses
// and redis failures both fall through to recomputation.
type SlotCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewSlotCache creates a slot grid cache with the given TTL.
func NewSlotCache(redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *SlotCache {
	if logger == nil {
		logger = logging.Default()
	}
	return &SlotCache{redis: redisClient, ttl: ttl, logger: logger}
}

func slotKey(tenantID string, professionalID, serviceID uuid.UUID, date time.Time, granularity int) string {
	return fmt.Sprintf("slots:%s:%s:%s:%s:%d", tenantID, professionalID, date.Format(time.DateOnly), serviceID, granularity)
}

func dayPattern(tenantID string, professionalID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("slots:%s:%s:%s:*", tenantID, professionalID, date.Format(time.DateOnly))
}

// Get returns the cached grid, or ok=false on miss or any redis error.
func (c *SlotCache) Get(ctx context.Context, tenantID string, professionalID, serviceID uuid.UUID, date time.Time, granularity int) ([]string, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, slotKey(tenantID, professionalID, serviceID, date, granularity)).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

// Set stores a computed grid. Best effort.
func (c *SlotCache) Set(ctx context.Context, tenantID string, professionalID, serviceID uuid.UUID, date time.Time, granularity int, slots []string) {
	if c == nil || c.redis == nil {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, slotKey(tenantID, professionalID, serviceID, date, granularity), data, c.ttl).Err(); err != nil {
		c.logger.Debug("slot cache set failed", "error", err)
	}
}

// InvalidateDay drops every cached grid for the professional's day after a
// successful write, regardless of service or granularity.
func (c *SlotCache) InvalidateDay(ctx context.Context, tenantID string, professionalID uuid.UUID, date time.Time) {
	if c == nil || c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, dayPattern(tenantID, professionalID, date), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Debug("slot cache invalidate failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Debug("slot cache scan failed", "error", err)
	}
}
