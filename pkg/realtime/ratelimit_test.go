package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campsignal/campsignal/pkg/cachestore"
	"github.com/campsignal/campsignal/pkg/realtime"
)

func TestRateLimiter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("allows up to the ceiling and drops beyond", func(t *testing.T) {
		t.Parallel()
		limiter := realtime.NewRateLimiter(cachestore.NewMemoryStore("test"), 30, time.Minute)

		for i := range 30 {
			assert.True(t, limiter.Allow(ctx, "user-1", "price.changed"), "event %d must pass", i+1)
		}
		assert.False(t, limiter.Allow(ctx, "user-1", "price.changed"), "31st event must be dropped")
	})

	t.Run("counters are independent per user and event", func(t *testing.T) {
		t.Parallel()
		limiter := realtime.NewRateLimiter(cachestore.NewMemoryStore("test"), 1, time.Minute)

		assert.True(t, limiter.Allow(ctx, "user-1", "a"))
		assert.False(t, limiter.Allow(ctx, "user-1", "a"))
		assert.True(t, limiter.Allow(ctx, "user-1", "b"))
		assert.True(t, limiter.Allow(ctx, "user-2", "a"))
	})

	t.Run("window reset restores the allowance", func(t *testing.T) {
		t.Parallel()
		limiter := realtime.NewRateLimiter(cachestore.NewMemoryStore("test"), 1, 30*time.Millisecond)

		assert.True(t, limiter.Allow(ctx, "user-1", "a"))
		assert.False(t, limiter.Allow(ctx, "user-1", "a"))

		time.Sleep(50 * time.Millisecond)
		assert.True(t, limiter.Allow(ctx, "user-1", "a"))
	})
}
