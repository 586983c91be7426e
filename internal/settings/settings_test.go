package settings

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetdesk/salon-api/internal/schedule"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestGetWorkingHoursDefaultsWhenUnset(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(client)
	hours, err := store.GetWorkingHours(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, schedule.DefaultWorkingHours(), hours)
}

func TestSetWorkingHoursRoundTrips(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(client)
	custom := schedule.DefaultWorkingHours()
	custom.Weekdays = schedule.Window{Open: "09:00", Close: "20:00"}
	custom.Sunday.Enabled = true
	custom.Sunday.Open = "10:00"
	custom.Sunday.Close = "14:00"

	require.NoError(t, store.SetWorkingHours(context.Background(), "tenant-1", custom))

	got, err := store.GetWorkingHours(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestSetWorkingHoursIsolatedPerTenant(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(client)
	custom := schedule.DefaultWorkingHours()
	custom.Weekdays = schedule.Window{Open: "07:00", Close: "13:00"}
	require.NoError(t, store.SetWorkingHours(context.Background(), "tenant-1", custom))

	other, err := store.GetWorkingHours(context.Background(), "tenant-2")
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultWorkingHours(), other)
}

func TestSetWorkingHoursRejectsInvertedWindow(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(client)
	bad := schedule.DefaultWorkingHours()
	bad.Weekdays = schedule.Window{Open: "18:00", Close: "08:00"}

	err := store.SetWorkingHours(context.Background(), "tenant-1", bad)
	assert.ErrorContains(t, err, "closes before it opens")
}

func TestSetWorkingHoursRejectsMalformedTime(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(client)
	bad := schedule.DefaultWorkingHours()
	bad.Saturday.Enabled = true
	bad.Saturday.Open = "9am"
	bad.Saturday.Close = "13:00"

	err := store.SetWorkingHours(context.Background(), "tenant-1", bad)
	assert.ErrorIs(t, err, schedule.ErrInvalidTimeFormat)
}

func TestSetWorkingHoursSkipsDisabledDays(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(client)
	hours := schedule.DefaultWorkingHours()
	hours.Sunday.Enabled = false
	hours.Sunday.Open = "garbage"
	hours.Sunday.Close = ""

	assert.NoError(t, store.SetWorkingHours(context.Background(), "tenant-1", hours))
}
