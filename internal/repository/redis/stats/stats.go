// Package stats keeps live per-session check-in counters in redis.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"eventdesk/backend/internal/service/checkin"
)

const keyPrefix = "eventdesk:checkins"

// ErrNoCounters is returned by Counts when no counter of the day exists,
// either because nothing was recorded or because the keys expired.
var ErrNoCounters = errors.New("no live counters for day")

// Store counts registrations per business day and session.
type Store struct {
	client *redis.Client
	loc    *time.Location
	ttl    time.Duration
}

// NewStore returns a redis-backed counter store. Counters expire ttl after
// their last change.
func NewStore(client *redis.Client, loc *time.Location, ttl time.Duration) *Store {
	return &Store{client: client, loc: loc, ttl: ttl}
}

func (s *Store) key(day time.Time, session checkin.Session) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, day.In(s.loc).Format("2006-01-02"), session)
}

// Registered implements checkin.Recorder.
func (s *Store) Registered(ctx context.Context, rec checkin.Record) error {
	key := s.key(rec.RegisteredAt, rec.Session)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "incrementing %s", key)
	}

	return nil
}

// Unregistered reverts a counter after a registration was deleted.
func (s *Store) Unregistered(ctx context.Context, rec checkin.Record) error {
	key := s.key(rec.RegisteredAt, rec.Session)

	n, err := s.client.Decr(ctx, key).Result()
	if err != nil {
		return errors.Wrapf(err, "decrementing %s", key)
	}
	if n < 0 {
		if err := s.client.Set(ctx, key, 0, s.ttl).Err(); err != nil {
			return errors.Wrapf(err, "resetting %s", key)
		}
	}

	return nil
}

// Counts returns the counter of every session for day. A missing session
// key counts as zero; ErrNoCounters is returned when every key is missing.
func (s *Store) Counts(ctx context.Context, day time.Time) (map[checkin.Session]int, error) {
	keys := make([]string, 0, len(checkin.Sessions))
	for _, session := range checkin.Sessions {
		keys = append(keys, s.key(day, session))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading counters")
	}

	var found bool
	counts := make(map[checkin.Session]int, len(checkin.Sessions))
	for i, session := range checkin.Sessions {
		counts[session] = 0

		v, ok := values[i].(string)
		if !ok {
			continue
		}
		found = true

		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing counter %s", keys[i])
		}
		if n > 0 {
			counts[session] = n
		}
	}

	if !found {
		return nil, ErrNoCounters
	}

	return counts, nil
}

// Seed restores the counters of day from counts. Existing keys are left
// untouched so increments made meanwhile are kept.
func (s *Store) Seed(ctx context.Context, day time.Time, counts map[checkin.Session]int) error {
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, session := range checkin.Sessions {
			pipe.SetNX(ctx, s.key(day, session), counts[session], s.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "seeding counters")
	}

	return nil
}
