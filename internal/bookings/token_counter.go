package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medidesk/medidesk-platform/pkg/logging"
)

// FallbackSequencer produces the next daily sequence number when Redis is
// unavailable. The repository backs this with a COUNT over today's bookings.
type FallbackSequencer func(ctx context.Context, clinicID int64, day time.Time) (int64, error)

// TokenCounter allocates per-clinic per-day sequence numbers for token
// appointments. Redis INCR keeps the sequence atomic across instances; the
// key expires so stale counters do not accumulate.
type TokenCounter struct {
	rdb      *redis.Client
	ttl      time.Duration
	fallback FallbackSequencer
	logger   *logging.Logger
}

// NewTokenCounter builds a counter. rdb may be nil, in which case every
// allocation goes through the fallback.
func NewTokenCounter(rdb *redis.Client, ttl time.Duration, fallback FallbackSequencer, logger *logging.Logger) *TokenCounter {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TokenCounter{rdb: rdb, ttl: ttl, fallback: fallback, logger: logger}
}

func sequenceKey(clinicID int64, day time.Time) string {
	return fmt.Sprintf("token_seq:%d:%s", clinicID, day.UTC().Format("20060102"))
}

// Next returns the next sequence number for the clinic's day.
func (c *TokenCounter) Next(ctx context.Context, clinicID int64, day time.Time) (int64, error) {
	if c.rdb != nil {
		seq, err := c.rdb.Incr(ctx, sequenceKey(clinicID, day)).Result()
		if err == nil {
			if seq == 1 {
				if err := c.rdb.Expire(ctx, sequenceKey(clinicID, day), c.ttl).Err(); err != nil {
					c.logger.Warn("failed to set token sequence TTL", "error", err, "clinic_id", clinicID)
				}
			}
			return seq, nil
		}
		c.logger.Warn("redis token sequence unavailable, using fallback", "error", err, "clinic_id", clinicID)
	}
	if c.fallback == nil {
		return 0, fmt.Errorf("bookings: no token sequence backend available")
	}
	seq, err := c.fallback(ctx, clinicID, day)
	if err != nil {
		return 0, fmt.Errorf("bookings: fallback sequence: %w", err)
	}
	return seq, nil
}

// FormatToken renders the human-facing token number, e.g. "3-20260901-007".
func FormatToken(clinicID int64, day time.Time, seq int64) string {
	return fmt.Sprintf("%d-%s-%03d", clinicID, day.UTC().Format("20060102"), seq)
}
