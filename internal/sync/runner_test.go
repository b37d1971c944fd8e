package sync

import (
	"context"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/logger"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox"
)

func TestRunnerRunsImmediatelyAndOnTicks(t *testing.T) {
	factory := &fakeFactory{fetchers: map[string]mailbox.Fetcher{}}
	f := newEngineFixture(t, factory)
	runner := NewRunner(f.engine, config.SyncConfig{
		Interval:    20 * time.Millisecond,
		PassTimeout: time.Second,
	}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	// Enough time for the immediate pass plus at least one tick.
	time.Sleep(90 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancelation")
	}

	passes := promtest.ToFloat64(f.engine.metrics.PassesTotal)
	assert.GreaterOrEqual(t, passes, float64(2))
}

func TestRunnerStopsBeforeNextTick(t *testing.T) {
	factory := &fakeFactory{fetchers: map[string]mailbox.Fetcher{}}
	f := newEngineFixture(t, factory)
	runner := NewRunner(f.engine, config.SyncConfig{
		Interval:    time.Hour,
		PassTimeout: time.Second,
	}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := runner.Run(ctx)
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	// The immediate pass still ran; cancelation only stops scheduling.
	assert.Equal(t, float64(1), promtest.ToFloat64(f.engine.metrics.PassesTotal))
}
