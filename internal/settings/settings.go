// Package settings persists per-tenant configuration that the scheduling
// core reads but never writes: the working-hours windows.
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/velvetdesk/salon-api/internal/schedule"
)

// Store provides persistence for tenant working hours.
type Store struct {
	redis *redis.Client
}

// NewStore creates a working-hours store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(tenantID string) string {
	return fmt.Sprintf("settings:hours:%s", tenantID)
}

// GetWorkingHours retrieves the tenant's hours, returning the default
// configuration if none were ever saved. Both the booking write path and
// slot generation read through this method, so they always agree.
func (s *Store) GetWorkingHours(ctx context.Context, tenantID string) (schedule.WorkingHours, error) {
	data, err := s.redis.Get(ctx, s.key(tenantID)).Bytes()
	if err == redis.Nil {
		return schedule.DefaultWorkingHours(), nil
	}
	if err != nil {
		return schedule.WorkingHours{}, fmt.Errorf("settings: get hours: %w", err)
	}

	var hours schedule.WorkingHours
	if err := json.Unmarshal(data, &hours); err != nil {
		return schedule.WorkingHours{}, fmt.Errorf("settings: unmarshal hours: %w", err)
	}
	return hours, nil
}

// SetWorkingHours saves the tenant's hours after validating every
// configured window parses and opens before it closes.
func (s *Store) SetWorkingHours(ctx context.Context, tenantID string, hours schedule.WorkingHours) error {
	if err := validate(hours); err != nil {
		return err
	}
	data, err := json.Marshal(hours)
	if err != nil {
		return fmt.Errorf("settings: marshal hours: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(tenantID), data, 0).Err(); err != nil {
		return fmt.Errorf("settings: set hours: %w", err)
	}
	return nil
}

func validate(hours schedule.WorkingHours) error {
	windows := []struct {
		name    string
		window  schedule.Window
		enabled bool
	}{
		{"weekdays", hours.Weekdays, true},
		{"saturday", schedule.Window{Open: hours.Saturday.Open, Close: hours.Saturday.Close}, hours.Saturday.Enabled},
		{"sunday", schedule.Window{Open: hours.Sunday.Open, Close: hours.Sunday.Close}, hours.Sunday.Enabled},
	}
	for _, w := range windows {
		if !w.enabled {
			continue
		}
		openMin, closeMin, err := w.window.Minutes()
		if err != nil {
			return fmt.Errorf("settings: %s: %w", w.name, err)
		}
		if openMin >= closeMin {
			return fmt.Errorf("settings: %s window closes before it opens", w.name)
		}
	}
	return nil
}
