package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "atm:pin_attempts:"

// RedisAttemptStore keeps failed-attempt counters in Redis so the limit
// holds across multiple core instances fronting the same card base. Counters
// carry a TTL: an idle window clears old failures on its own.
type RedisAttemptStore struct {
	client redis.UniversalClient
	window time.Duration
}

// NewRedisAttemptStore builds a store over the given client. window is the
// counter TTL; zero means counters only reset explicitly.
func NewRedisAttemptStore(client redis.UniversalClient, window time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, window: window}
}

func (s *RedisAttemptStore) Attempts(ctx context.Context, cardToken string) (int, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}

	count, err := s.client.Get(ctx, attemptKeyPrefix+cardToken).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("redis get attempts: %w", err)
	}

	return count, nil
}

func (s *RedisAttemptStore) Increment(ctx context.Context, cardToken string) (int, error) {
	if s == nil || s.client == nil {
		return 0, nil
	}

	key := attemptKeyPrefix + cardToken

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr attempts: %w", err)
	}

	// First failure of a fresh window starts the TTL clock.
	if count == 1 && s.window > 0 {
		if err := s.client.Expire(ctx, key, s.window).Err(); err != nil {
			return int(count), fmt.Errorf("redis expire attempts: %w", err)
		}
	}

	return int(count), nil
}

func (s *RedisAttemptStore) Reset(ctx context.Context, cardToken string) error {
	if s == nil || s.client == nil {
		return nil
	}

	if err := s.client.Del(ctx, attemptKeyPrefix+cardToken).Err(); err != nil {
		return fmt.Errorf("redis del attempts: %w", err)
	}

	return nil
}
