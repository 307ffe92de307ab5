package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps Redis transport failures so callers can
// distinguish backend outages from a plain unauthenticated answer.
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultSubject is used when a Store is built without an explicit subject.
const DefaultSubject = "default"

const flagValue = "1"

// Store persists the authenticated flag in Redis.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	client  *redis.Client
	prefix  string
	subject string
	ttl     time.Duration
}

// NewStore creates a Store writing under prefix with the given flag TTL.
// A ttl of zero stores the flag without expiry.
func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{
		client:  client,
		prefix:  prefix,
		subject: DefaultSubject,
		ttl:     ttl,
	}
}

// WithSubject returns a copy of the Store scoped to a different subject.
func (s *Store) WithSubject(subject string) *Store {
	clone := *s
	clone.subject = subject
	return &clone
}

func (s *Store) key() string {
	return fmt.Sprintf("%s:auth:%s", s.prefix, s.subject)
}

// SetAuthenticated writes or clears the flag. Clearing an absent flag is
// not an error.
func (s *Store) SetAuthenticated(ctx context.Context, authenticated bool) error {
	if !authenticated {
		if err := s.client.Del(ctx, s.key()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}

	if err := s.client.Set(ctx, s.key(), flagValue, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SetAuthenticatedUntil writes the flag with an absolute expiry, given as
// a Unix timestamp in seconds. A timestamp at or before now clears the
// flag instead.
func (s *Store) SetAuthenticatedUntil(ctx context.Context, until int64) error {
	remaining := time.Until(time.Unix(until, 0))
	if remaining <= 0 {
		return s.SetAuthenticated(ctx, false)
	}

	if err := s.client.Set(ctx, s.key(), flagValue, remaining).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Authenticated reports whether the flag is currently set.
func (s *Store) Authenticated(ctx context.Context) (bool, error) {
	_, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return true, nil
}

// TTL reports the remaining lifetime of the flag. Returns zero when the
// flag is absent or has no expiry.
func (s *Store) TTL(ctx context.Context) (time.Duration, error) {
	d, err := s.client.TTL(ctx, s.key()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// Ping measures round-trip latency to Redis.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
