// Package strikes provides Redis-backed offense tracking for message
// senders. Each blocked message adds a strike; crossing the threshold mutes
// the sender for an escalating duration. Records are simple key-value pairs
// with TTL-based expiry:
//
//	Key:   mute:<sender>      Value: <reason>   TTL: mute duration
//	Key:   strikes:<sender>   Value: <count>    TTL: strike window
package strikes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MutePrefix is the Redis key prefix for mute records.
	MutePrefix = "mute:"

	// StrikesPrefix is the Redis key prefix for strike counters.
	StrikesPrefix = "strikes:"

	// Escalating mute durations.
	Mute15Min  = 15 * time.Minute // threshold reached
	Mute1Hour  = 1 * time.Hour    // one strike past the threshold
	Mute24Hour = 24 * time.Hour   // further strikes

	// StrikeWindow is how long the strike counter lives in Redis. After 24h
	// without new blocked messages the counter resets to zero.
	StrikeWindow = 24 * time.Hour

	// MuteThreshold is the number of blocked messages within StrikeWindow
	// that triggers an automatic mute.
	MuteThreshold = 3
)

// Store manages mute records and strike counters in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a new strike store using the provided Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// IsMuted checks whether a sender is currently muted.
// Returns (muted, remainingSeconds, reason, error). Redis errors are
// returned so callers can decide how to handle them (the recommended policy
// is fail-open: a Redis outage must not silence legitimate senders).
func (s *Store) IsMuted(ctx context.Context, sender string) (bool, int, string, error) {
	key := MutePrefix + sender

	reason, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, 0, "", nil
	}
	if err != nil {
		return false, 0, "", err
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		// The mute exists but the TTL could not be read. Report muted with 0
		// remaining rather than swallowing the mute.
		return true, 0, reason, nil
	}

	remaining := 0
	if ttl > 0 {
		remaining = int(ttl.Seconds())
	}

	return true, remaining, reason, nil
}

// Mute silences a sender for the given duration with the given reason.
// The mute expires automatically.
func (s *Store) Mute(ctx context.Context, sender string, duration time.Duration, reason string) error {
	key := MutePrefix + sender
	return s.client.Set(ctx, key, reason, duration).Err()
}

// Unmute lifts a sender's mute immediately.
func (s *Store) Unmute(ctx context.Context, sender string) error {
	key := MutePrefix + sender
	return s.client.Del(ctx, key).Err()
}

// muteDuration returns the mute length for a given strike count at or past
// the threshold.
func muteDuration(strikeCount int) time.Duration {
	switch {
	case strikeCount <= MuteThreshold:
		return Mute15Min
	case strikeCount == MuteThreshold+1:
		return Mute1Hour
	default:
		return Mute24Hour
	}
}

// StrikeCount returns the sender's current strike counter. Returns 0 if the
// key does not exist (no strikes recorded or the window expired).
func (s *Store) StrikeCount(ctx context.Context, sender string) (int, error) {
	key := StrikesPrefix + sender
	val, err := s.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

// AddStrike increments the sender's strike counter and, if the threshold is
// met or exceeded, applies a mute with escalating duration:
//
//	3rd strike  -> 15 minutes
//	4th strike  -> 1 hour
//	5th+ strike -> 24 hours
//
// The counter has a 24h TTL set on first increment, so the window does not
// slide and counters naturally expire without new activity.
//
// Returns (muted, appliedDuration, error).
func (s *Store) AddStrike(ctx context.Context, sender string, reason string) (bool, time.Duration, error) {
	key := StrikesPrefix + sender

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("strikes: incr: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, StrikeWindow).Err(); err != nil {
			return false, 0, fmt.Errorf("strikes: expire: %w", err)
		}
	}

	if count >= MuteThreshold {
		duration := muteDuration(int(count))
		if err := s.Mute(ctx, sender, duration, reason); err != nil {
			return false, 0, fmt.Errorf("strikes: mute: %w", err)
		}
		return true, duration, nil
	}

	return false, 0, nil
}
