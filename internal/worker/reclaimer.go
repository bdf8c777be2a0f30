package worker

import (
	"context"
	"log/slog"
	"time"

	"prodplex.app/relay/common/logger"
)

type ReclaimerConfig struct {
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// Reclaimer periodically takes over messages a crashed worker read but never
// acknowledged, and runs them through the worker's Handle.
type Reclaimer struct {
	consumer Consumer
	worker   *Worker
	cfg      ReclaimerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(consumer Consumer, worker *Worker, cfg ReclaimerConfig) *Reclaimer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MinIdle <= 0 {
		cfg.MinIdle = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Reclaimer{
		consumer:  consumer,
		worker:    worker,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run blocks until Stop is called or ctx ends.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "relay.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			r.ReclaimOnce(ctx)
		}
	}
}

func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// ReclaimOnce walks the pending list once and returns how many messages it
// handled.
func (r *Reclaimer) ReclaimOnce(ctx context.Context) int {
	handled := 0
	cursor := "0-0"
	for {
		msgs, next, err := r.consumer.Claim(ctx, r.cfg.MinIdle, cursor, r.cfg.BatchSize)
		if err != nil {
			slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			return handled
		}

		if len(msgs) > 0 {
			slog.InfoContext(ctx, "reclaimed stale messages", "count", len(msgs))
		}
		for _, msg := range msgs {
			r.worker.Handle(ctx, msg)
			handled++
		}

		if next == "" || next == "0-0" || ctx.Err() != nil {
			return handled
		}
		cursor = next
	}
}
