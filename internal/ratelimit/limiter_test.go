package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachkit/prospector/internal/metrics"
)

func TestWait_UnlimitedByDefault(t *testing.T) {
	metrics.Init()

	l := New(Config{})
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx, "https://widgets.io/page"))
	}
}

func TestWait_ThrottlesPerDomain(t *testing.T) {
	metrics.Init()

	l := New(Config{DefaultRPS: 20, DefaultBurst: 1})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://widgets.io/a"))
	require.NoError(t, l.Wait(ctx, "https://widgets.io/b"))
	require.NoError(t, l.Wait(ctx, "https://widgets.io/c"))
	elapsed := time.Since(start)

	// Two waits at 20 rps means at least ~100ms total.
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
}

func TestWait_SeparateDomainsDoNotShareBuckets(t *testing.T) {
	metrics.Init()

	l := New(Config{DefaultRPS: 1, DefaultBurst: 1})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://a.test/"))
	require.NoError(t, l.Wait(ctx, "https://b.test/"))
	require.NoError(t, l.Wait(ctx, "https://c.test/"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWait_CanceledContext(t *testing.T) {
	metrics.Init()

	l := New(Config{DefaultRPS: 0.1, DefaultBurst: 1})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, l.Wait(ctx, "https://slow.test/"))
	cancel()
	assert.Error(t, l.Wait(ctx, "https://slow.test/"))
}
