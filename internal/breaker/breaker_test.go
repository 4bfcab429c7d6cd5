package breaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/pkg/logger"
)

func testBreaker(cfg config.BreakerConfig) *Breaker {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return New(func() config.BreakerConfig { return cfg }, log)
}

func defaultBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		FalsePositiveRatio: 0.20,
		ErrorRatio:         0.30,
		Window:             time.Hour,
		MinResolved:        5,
		MinAttempts:        5,
	}
}

func TestBreaker_TripsOnFalsePositiveRatio(t *testing.T) {
	b := testBreaker(defaultBreakerConfig())
	now := time.Now()

	// 4 resolutions, 2 false positives: ratio 0.50 but below min samples
	b.RecordResolution(true, now)
	b.RecordResolution(false, now)
	b.RecordResolution(true, now)
	b.RecordResolution(false, now)

	tripped, _ := b.Tripped()
	assert.False(t, tripped, "must not trip below the minimum sample count")

	// Fifth sample pushes count to the minimum with ratio 0.40
	b.RecordResolution(false, now)

	tripped, reason := b.Tripped()
	require.True(t, tripped)
	assert.Contains(t, reason, "false-positive ratio")

	state := b.Snapshot(now)
	assert.InDelta(t, 0.40, state.FalsePositiveRatio, 0.001)
	assert.Equal(t, 5, state.ResolvedCount)
	assert.Equal(t, "system", state.Actor)
}

func TestBreaker_StaysClosedAtThreshold(t *testing.T) {
	b := testBreaker(defaultBreakerConfig())
	now := time.Now()

	// 1 FP out of 5 is exactly 0.20; the trip condition is strictly above
	b.RecordResolution(true, now)
	for i := 0; i < 4; i++ {
		b.RecordResolution(false, now)
	}

	tripped, _ := b.Tripped()
	assert.False(t, tripped)
}

func TestBreaker_TripsOnExecutionErrorRatio(t *testing.T) {
	b := testBreaker(defaultBreakerConfig())
	now := time.Now()

	b.RecordAttempt(true, now)
	b.RecordAttempt(true, now)
	for i := 0; i < 3; i++ {
		b.RecordAttempt(false, now)
	}

	tripped, reason := b.Tripped()
	require.True(t, tripped)
	assert.Contains(t, reason, "execution-error ratio")
}

func TestBreaker_WindowPrunesOldSamples(t *testing.T) {
	b := testBreaker(defaultBreakerConfig())
	start := time.Now()

	for i := 0; i < 5; i++ {
		b.RecordResolution(true, start)
	}
	tripped, _ := b.Tripped()
	require.True(t, tripped)

	// Two hours later the bad run has aged out and reset succeeds
	later := start.Add(2 * time.Hour)
	require.NoError(t, b.Reset("admin@example.com", later))

	tripped, _ = b.Tripped()
	assert.False(t, tripped)

	state := b.Snapshot(later)
	assert.Equal(t, 0, state.ResolvedCount)
}

func TestBreaker_ResetRefusedWhileRatioHigh(t *testing.T) {
	b := testBreaker(defaultBreakerConfig())
	now := time.Now()

	for i := 0; i < 5; i++ {
		b.RecordResolution(true, now)
	}
	tripped, _ := b.Tripped()
	require.True(t, tripped)

	err := b.Reset("admin@example.com", now.Add(time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset refused")

	tripped, _ = b.Tripped()
	assert.True(t, tripped, "a refused reset leaves the breaker tripped")
}

func TestBreaker_ManualTripAndReset(t *testing.T) {
	b := testBreaker(defaultBreakerConfig())
	now := time.Now()

	b.Trip("admin@example.com", "maintenance window", now)

	tripped, reason := b.Tripped()
	require.True(t, tripped)
	assert.Equal(t, "maintenance window", reason)

	// Tripping an already-tripped breaker keeps the first reason
	b.Trip("other@example.com", "second opinion", now)
	_, reason = b.Tripped()
	assert.Equal(t, "maintenance window", reason)

	require.NoError(t, b.Reset("admin@example.com", now))
	tripped, _ = b.Tripped()
	assert.False(t, tripped)
}

func TestBreaker_ResetWhenClosedIsNoop(t *testing.T) {
	b := testBreaker(defaultBreakerConfig())
	assert.NoError(t, b.Reset("admin@example.com", time.Now()))
}

func TestBreaker_ConcurrentUpdates(t *testing.T) {
	cfg := defaultBreakerConfig()
	cfg.MinResolved = 1000
	cfg.MinAttempts = 1000
	b := testBreaker(cfg)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.RecordResolution(j%2 == 0, now)
				b.RecordAttempt(j%3 == 0, now)
			}
		}()
	}
	wg.Wait()

	state := b.Snapshot(now)
	assert.Equal(t, 400, state.ResolvedCount)
	assert.Equal(t, 400, state.AttemptCount)
}
