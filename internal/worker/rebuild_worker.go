package worker

import (
	"context"
	"log/slog"
	"time"

	"contest-voting/internal/retry"
)

// Rebuilder recomputes the cache's aggregate counters from the ledger.
type Rebuilder interface {
	RebuildAggregates(ctx context.Context) error
}

// RebuildWorker periodically repairs the aggregate counters. The per-user
// voted sets heal lazily on read; totals, per-contestant counts and category
// histograms have no other repair path after a missed cache write.
type RebuildWorker struct {
	svc      Rebuilder
	interval time.Duration
	log      *slog.Logger
}

func NewRebuildWorker(svc Rebuilder, interval time.Duration, log *slog.Logger) *RebuildWorker {
	if log == nil {
		log = slog.Default()
	}
	return &RebuildWorker{svc: svc, interval: interval, log: log}
}

func (w *RebuildWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info("aggregate rebuild worker disabled")
		return
	}

	w.log.Info("aggregate rebuild worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("aggregate rebuild worker stopped")
			return
		case <-ticker.C:
			err := retry.DoWithRetry(ctx, 3, time.Second, func() error {
				return w.svc.RebuildAggregates(ctx)
			})
			if err != nil {
				w.log.Warn("aggregate rebuild failed", "err", err)
			}
		}
	}
}
