package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures    = 5
	defaultAttemptsWindow = 15 * time.Minute
)

// AttemptLimiter throttles repeated sign-in failures per email.
// Key format: signin_attempts:<email>
type AttemptLimiter struct {
	client      *redis.Client
	maxFailures int
	window      time.Duration
}

// NewAttemptLimiter creates an AttemptLimiter wrapping the given Redis client.
// Non-positive maxFailures or window fall back to 5 failures per 15 minutes.
func NewAttemptLimiter(client *redis.Client, maxFailures int, window time.Duration) *AttemptLimiter {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if window <= 0 {
		window = defaultAttemptsWindow
	}
	return &AttemptLimiter{client: client, maxFailures: maxFailures, window: window}
}

// Allowed reports whether another sign-in attempt may proceed for this email.
func (l *AttemptLimiter) Allowed(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(email)).Int()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return false, fmt.Errorf("attempts get: %w", err)
	}
	return n < l.maxFailures, nil
}

// RecordFailure increments the failure counter; the first failure in a window
// starts the expiry clock.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, email string) error {
	key := l.key(email)
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("attempts incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("attempts expire: %w", err)
		}
	}
	return nil
}

// Reset clears the failure counter after a successful sign-in.
func (l *AttemptLimiter) Reset(ctx context.Context, email string) error {
	return l.client.Del(ctx, l.key(email)).Err()
}

func (l *AttemptLimiter) key(email string) string {
	return "signin_attempts:" + email
}
