package stats

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdesk/backend/internal/service/checkin"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

var ict = time.FixedZone("ICT", 7*60*60)

func TestStore_Key_UsesBusinessDay(t *testing.T) {
	s := NewStore(nil, ict, time.Hour)

	// 20:00 UTC is already the next day at +07:00.
	at := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "eventdesk:checkins:2024-03-02:Night", s.key(at, checkin.SessionNight))
}

func TestStore_RegisteredAndCounts(t *testing.T) {
	client := setupTestRedis(t)
	s := NewStore(client, ict, time.Hour)
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 10, 0, 0, 0, ict)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Registered(ctx, checkin.Record{EmployeeID: "E", Session: checkin.SessionDay, RegisteredAt: day}))
	}
	require.NoError(t, s.Registered(ctx, checkin.Record{EmployeeID: "N", Session: checkin.SessionNight, RegisteredAt: day.Add(10 * time.Hour)}))

	counts, err := s.Counts(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[checkin.SessionDay])
	assert.Equal(t, 1, counts[checkin.SessionNight])

	ttl, err := client.TTL(ctx, s.key(day, checkin.SessionDay)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Hour)
}

func TestStore_Counts_EmptyDay(t *testing.T) {
	client := setupTestRedis(t)
	s := NewStore(client, ict, time.Hour)

	_, err := s.Counts(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, ict))
	assert.ErrorIs(t, err, ErrNoCounters)
}

func TestStore_Counts_ExpiredKeys(t *testing.T) {
	client := setupTestRedis(t)
	s := NewStore(client, ict, time.Hour)
	ctx := context.Background()

	rec := checkin.Record{EmployeeID: "E", Session: checkin.SessionDay, RegisteredAt: time.Date(2024, 3, 1, 9, 0, 0, 0, ict)}
	require.NoError(t, s.Registered(ctx, rec))

	_, err := s.Counts(ctx, rec.RegisteredAt)
	require.NoError(t, err)

	require.NoError(t, client.Del(ctx, s.key(rec.RegisteredAt, checkin.SessionDay)).Err())

	_, err = s.Counts(ctx, rec.RegisteredAt)
	assert.ErrorIs(t, err, ErrNoCounters)
}

func TestStore_Seed(t *testing.T) {
	client := setupTestRedis(t)
	s := NewStore(client, ict, time.Hour)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 9, 0, 0, 0, ict)

	require.NoError(t, s.Registered(ctx, checkin.Record{EmployeeID: "N", Session: checkin.SessionNight, RegisteredAt: day}))
	require.NoError(t, s.Seed(ctx, day, map[checkin.Session]int{checkin.SessionDay: 5, checkin.SessionNight: 9}))

	counts, err := s.Counts(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 5, counts[checkin.SessionDay])
	assert.Equal(t, 1, counts[checkin.SessionNight])

	ttl, err := client.TTL(ctx, s.key(day, checkin.SessionDay)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Hour)
}

func TestStore_Unregistered_NeverNegative(t *testing.T) {
	client := setupTestRedis(t)
	s := NewStore(client, ict, time.Hour)
	ctx := context.Background()

	rec := checkin.Record{EmployeeID: "E", Session: checkin.SessionDay, RegisteredAt: time.Date(2024, 3, 1, 9, 0, 0, 0, ict)}

	require.NoError(t, s.Registered(ctx, rec))
	require.NoError(t, s.Unregistered(ctx, rec))
	require.NoError(t, s.Unregistered(ctx, rec))

	counts, err := s.Counts(ctx, rec.RegisteredAt)
	require.NoError(t, err)
	assert.Equal(t, 0, counts[checkin.SessionDay])
}
