package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/ecourts-causelist/internal/worker/domain"
)

// sweepStaleJobs fails jobs left behind by a lost worker, and jobs nobody
// claimed within the pending timeout. It sweeps once on start, then every
// heartbeat interval until ctx is canceled.
func (w *Worker) sweepStaleJobs(ctx context.Context) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	n, err := w.store.FailStaleJobs(ctx, w.staleAfter, domain.MsgWorkerLost)
	w.logSweep(ctx, "running", n, err)

	if w.pendingTimeout <= 0 {
		return
	}
	n, err = w.store.FailUnclaimedJobs(ctx, w.pendingTimeout, domain.MsgNotPickedUp)
	w.logSweep(ctx, "pending", n, err)
}

func (w *Worker) logSweep(ctx context.Context, status string, n int64, err error) {
	switch {
	case err != nil && ctx.Err() == nil:
		w.logger.Error("Stale job sweep failed",
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
	case n > 0:
		w.logger.Warn("Failed stale jobs",
			slog.String("status", status),
			slog.Int64("count", n),
		)
	}
}
