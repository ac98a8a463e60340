package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/internal/worker/domain"
)

// processJob claims a job, renders its cause list and records the outcome.
// A nil return acks the delivery. Claim errors are retried up to
// maxClaimAttempts times on this worker.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	job, err := w.store.ClaimJob(ctx, msg.JobID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			w.logger.Warn("Job already claimed, skipping",
				slog.String("job_id", msg.JobID),
			)
			return err
		}
		attempts := w.claimFailures.record(msg.JobID)
		w.logger.Error("Failed to claim job",
			slog.String("job_id", msg.JobID),
			slog.Int("attempt", attempts),
			slog.String("error", err.Error()),
		)
		if attempts >= w.maxClaimAttempts {
			w.claimFailures.forget(msg.JobID)
			return fmt.Errorf("%w: %v", domain.ErrMaxRetriesExceeded, err)
		}
		return domain.NewRetryableError(err)
	}
	w.claimFailures.forget(msg.JobID)

	jobCtx, cancel := w.jobContext(ctx)
	defer cancel()

	heartbeatDone := make(chan struct{})
	go w.sendJobHeartbeat(jobCtx, job.JobID, heartbeatDone)
	defer close(heartbeatDone)

	result, err := w.executeJob(jobCtx, job)
	if err != nil {
		message := failureMessage(err)
		w.logger.Error("Job execution failed",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		if updateErr := w.store.FailJob(ctx, job.JobID, message); updateErr != nil {
			return fmt.Errorf("failed to record job failure: %w", updateErr)
		}
		return nil
	}

	if err := w.store.CompleteJob(ctx, job.JobID, result); err != nil {
		w.logger.Error("Failed to record job result",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		// The row is RUNNING and cannot be reclaimed. If this write fails too,
		// the stale-job sweep fails it once its heartbeat lapses.
		if failErr := w.store.FailJob(ctx, job.JobID, failureMessage(err)); failErr != nil {
			return fmt.Errorf("failed to record job result: %w", errors.Join(err, failErr))
		}
	}
	return nil
}

func (w *Worker) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.jobTimeout > 0 {
		return context.WithTimeout(ctx, w.jobTimeout)
	}
	return context.WithCancel(ctx)
}

// executeJob renders the cause list. Rendering problems become a failed
// result; only cancellation is returned as an error.
func (w *Worker) executeJob(ctx context.Context, job *domain.Job) (causelist.JobResult, error) {
	w.logger.Info("Executing job",
		slog.String("job_id", job.JobID),
		slog.String("court_complex", job.CourtComplex),
		slog.String("date", job.CauseDate),
	)

	w.step(ctx, job.JobID, domain.StepConnecting)
	w.step(ctx, job.JobID, domain.StepRendering)

	name, err := w.renderer.Render(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			return causelist.JobResult{}, ctx.Err()
		}
		return causelist.JobResult{
			Success: false,
			Error:   "Download failed: " + err.Error(),
		}, nil
	}

	w.step(ctx, job.JobID, domain.StepSaving)

	return causelist.JobResult{
		Success:     true,
		Filename:    name,
		Message:     "Cause list downloaded successfully for " + job.CourtComplex,
		DownloadURL: "/download/" + url.PathEscape(name),
	}, nil
}

// step records progress. Failures are logged; the job carries on.
func (w *Worker) step(ctx context.Context, jobID, step string) {
	if err := w.store.UpdateStep(ctx, jobID, step); err != nil {
		w.logger.Warn("Failed to update job step",
			slog.String("job_id", jobID),
			slog.String("step", step),
			slog.String("error", err.Error()),
		)
	}
}

func failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Download failed: job timed out"
	}
	return "Download failed: " + err.Error()
}

// sendJobHeartbeat periodically updates the job's heartbeat timestamp
func (w *Worker) sendJobHeartbeat(ctx context.Context, jobID string, done <-chan struct{}) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := w.store.UpdateJobHeartbeat(ctx, jobID); err != nil {
				w.logger.Warn("Failed to update job heartbeat",
					slog.String("job_id", jobID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
