package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
)

// Runner drives the engine on a fixed schedule. Passes run in the loop
// goroutine, so two passes can never overlap.
type Runner struct {
	engine      *Engine
	interval    time.Duration
	passTimeout time.Duration
	logger      *slog.Logger
}

// NewRunner returns a runner that schedules engine passes at the
// configured fixed interval.
func NewRunner(engine *Engine, cfg config.SyncConfig, logger *slog.Logger) *Runner {
	return &Runner{
		engine:      engine,
		interval:    cfg.Interval,
		passTimeout: cfg.PassTimeout,
		logger:      logger,
	}
}

// Run executes a pass immediately and then on every tick until ctx is
// canceled. Cancelation only stops the scheduling of new passes; the pass
// in flight finishes on its own timeout-bounded context.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("sync loop started", slog.Duration("interval", r.interval))

	r.pass()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("sync loop stopped")
			return nil
		case <-ticker.C:
			r.pass()
		}
	}
}

// pass runs one pass on a context independent of the shutdown signal,
// bounded by the pass timeout. Pass failures are logged, never propagated.
func (r *Runner) pass() {
	ctx, cancel := context.WithTimeout(context.Background(), r.passTimeout)
	defer cancel()

	result, err := r.engine.RunPass(ctx)
	if err != nil {
		r.logger.Error("sync pass failed", slog.Any("error", err))
		return
	}

	r.logger.Info("sync pass finished",
		slog.Int("connections", result.Connections),
		slog.Int("synced", result.Synced),
		slog.Int("failed", result.Failed),
		slog.Int("messages", result.Messages),
		slog.Duration("duration", result.Duration))
}
