package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounter(t *testing.T, fallback FallbackSequencer) (*TokenCounter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokenCounter(rdb, 48*time.Hour, fallback, nil), mr
}

func TestTokenCounter_SequencesPerClinicPerDay(t *testing.T) {
	counter, _ := newTestCounter(t, nil)
	ctx := context.Background()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	for want := int64(1); want <= 3; want++ {
		seq, err := counter.Next(ctx, 3, day)
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}

	// A different clinic and a different day each start at 1.
	seq, err := counter.Next(ctx, 4, day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = counter.Next(ctx, 3, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestTokenCounter_SetsTTLOnFirstUse(t *testing.T) {
	counter, mr := newTestCounter(t, nil)
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := counter.Next(context.Background(), 3, day)
	require.NoError(t, err)

	ttl := mr.TTL("token_seq:3:20260901")
	assert.Greater(t, ttl, time.Duration(0), "sequence key should expire")
}

func TestTokenCounter_FallsBackWhenRedisDown(t *testing.T) {
	fallback := func(ctx context.Context, clinicID int64, day time.Time) (int64, error) {
		return 8, nil
	}
	counter, mr := newTestCounter(t, fallback)
	mr.Close()

	seq, err := counter.Next(context.Background(), 3, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(8), seq)
}

func TestTokenCounter_NoBackends(t *testing.T) {
	counter := NewTokenCounter(nil, 0, nil, nil)
	_, err := counter.Next(context.Background(), 3, time.Now().UTC())
	assert.Error(t, err)
}

func TestTokenCounter_FallbackError(t *testing.T) {
	boom := errors.New("db down")
	counter := NewTokenCounter(nil, 0, func(ctx context.Context, clinicID int64, day time.Time) (int64, error) {
		return 0, boom
	}, nil)
	_, err := counter.Next(context.Background(), 3, time.Now().UTC())
	assert.ErrorIs(t, err, boom)
}

func TestFormatToken(t *testing.T) {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "3-20260901-007", FormatToken(3, day, 7))
	assert.Equal(t, "12-20260901-142", FormatToken(12, day, 142))
}
