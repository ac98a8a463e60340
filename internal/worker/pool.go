package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/ecourts-causelist/internal/worker/domain"
)

// spawnWorkerPool starts the goroutines that process dispatched jobs. They
// exit once jobsChan is closed and drained.
func (w *Worker) spawnWorkerPool() {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(i)
	}

	w.logger.Info("Worker pool spawned",
		slog.Int("worker_count", w.concurrency),
	)
}

func (w *Worker) workerLoop(workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)

	for msg := range w.jobsChan {
		w.logger.Info("Worker received job",
			slog.String("worker_name", workerName),
			slog.String("job_id", msg.JobID),
		)

		// Jobs run to completion on shutdown, bounded by the job timeout.
		err := w.processJob(context.Background(), msg)
		w.settle(msg.DeliveryTag, msg.JobID, err)
	}
}

// settle acknowledges a delivery, or rejects it when err is set.
func (w *Worker) settle(tag uint64, jobID string, err error) {
	if err == nil {
		if ackErr := w.queue.Ack(tag); ackErr != nil {
			w.logger.Error("Failed to ACK message",
				slog.String("job_id", jobID),
				slog.String("error", ackErr.Error()),
			)
		}
		return
	}

	requeue := shouldRequeueJob(err)
	if nackErr := w.queue.Nack(tag, requeue); nackErr != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("job_id", jobID),
			slog.String("error", nackErr.Error()),
		)
		return
	}

	w.logger.Info("Message NACKed",
		slog.String("job_id", jobID),
		slog.Bool("requeue", requeue),
		slog.String("error", err.Error()),
	)
}

// shouldRequeueJob reports whether a failed delivery should be retried.
func shouldRequeueJob(err error) bool {
	if errors.Is(err, domain.ErrJobAlreadyClaimed) || errors.Is(err, domain.ErrInvalidPayload) {
		return false
	}

	var retryableErr *domain.RetryableError
	return errors.As(err, &retryableErr)
}
