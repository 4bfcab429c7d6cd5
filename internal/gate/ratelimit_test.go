package gate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelops/triage/internal/config"
)

func TestActionRateLimiter_AllowDoesNotConsume(t *testing.T) {
	l := NewActionRateLimiter()
	cfg := config.ActionRateConfig{PerHour: 2, PerMinute: 2}
	now := time.Now()

	// Repeated Allow calls never eat quota
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("user-1", "block_ip", cfg, now))
	}
	assert.Equal(t, 0, l.Executed("user-1", now))
}

func TestActionRateLimiter_RecordConsumes(t *testing.T) {
	l := NewActionRateLimiter()
	cfg := config.ActionRateConfig{PerHour: 2, PerMinute: 10}
	now := time.Now()

	l.Record("user-1", "block_ip", now)
	assert.True(t, l.Allow("user-1", "block_ip", cfg, now))

	l.Record("user-1", "require_mfa", now)
	assert.False(t, l.Allow("user-1", "block_ip", cfg, now), "hourly cap counts all kinds")
	assert.Equal(t, 2, l.Executed("user-1", now))

	assert.True(t, l.Allow("user-2", "block_ip", cfg, now), "caps are per entity")
}

func TestActionRateLimiter_PerMinuteKeyedByKind(t *testing.T) {
	l := NewActionRateLimiter()
	cfg := config.ActionRateConfig{PerHour: 100, PerMinute: 1}
	now := time.Now()

	l.Record("user-1", "block_ip", now)

	assert.False(t, l.Allow("user-1", "block_ip", cfg, now))
	assert.True(t, l.Allow("user-1", "revoke_session", cfg, now))
}

func TestActionRateLimiter_ConcurrentRecordLosesNoUpdates(t *testing.T) {
	l := NewActionRateLimiter()
	now := time.Date(2026, 8, 1, 14, 30, 0, 0, time.UTC)
	wide := config.ActionRateConfig{PerHour: 10000, PerMinute: 10000}

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				l.Record("user-1", "block_ip", now)
				l.Allow("user-1", "block_ip", wide, now)
			}
		}()
	}
	wg.Wait()

	total := workers * perWorker
	assert.Equal(t, total, l.Executed("user-1", now))

	// Both windows hold exactly total: a cap at that count refuses the
	// next execution, a cap one above it does not
	assert.False(t, l.Allow("user-1", "block_ip", config.ActionRateConfig{PerHour: total, PerMinute: total + 1}, now))
	assert.False(t, l.Allow("user-1", "block_ip", config.ActionRateConfig{PerHour: total + 1, PerMinute: total}, now))
	assert.True(t, l.Allow("user-1", "block_ip", config.ActionRateConfig{PerHour: total + 1, PerMinute: total + 1}, now))
}

func TestActionRateLimiter_WindowRollover(t *testing.T) {
	l := NewActionRateLimiter()
	cfg := config.ActionRateConfig{PerHour: 1, PerMinute: 1}
	now := time.Unix(1_700_000_000, 0)

	l.Record("user-1", "block_ip", now)
	assert.False(t, l.Allow("user-1", "block_ip", cfg, now))

	later := now.Add(2 * time.Minute)
	assert.False(t, l.Allow("user-1", "block_ip", cfg, later), "hourly window still holds")

	nextHour := now.Add(2 * time.Hour)
	assert.True(t, l.Allow("user-1", "block_ip", cfg, nextHour))
	assert.Equal(t, 0, l.Executed("user-1", nextHour))
}
