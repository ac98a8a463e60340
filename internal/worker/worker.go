package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/internal/worker/domain"
)

// JobStore is the worker's view of the job table.
type JobStore interface {
	ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error)
	UpdateStep(ctx context.Context, jobID, step string) error
	UpdateJobHeartbeat(ctx context.Context, jobID string) error
	CompleteJob(ctx context.Context, jobID string, result causelist.JobResult) error
	FailJob(ctx context.Context, jobID, message string) error
	FailStaleJobs(ctx context.Context, staleAfter time.Duration, message string) (int64, error)
	FailUnclaimedJobs(ctx context.Context, pendingAfter time.Duration, message string) (int64, error)
}

// Queue delivers job messages and settles them.
type Queue interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
	Ack(tag uint64) error
	Nack(tag uint64, requeue bool) error
}

// PDFRenderer produces the cause-list file for a job.
type PDFRenderer interface {
	Render(ctx context.Context, job *domain.Job) (string, error)
}

// Config holds worker configuration
type Config struct {
	Logger            *slog.Logger
	Store             JobStore
	Queue             Queue
	Renderer          PDFRenderer
	Concurrency       int
	JobTimeout        time.Duration
	HeartbeatInterval time.Duration
	// StaleAfter is how old a running job's heartbeat may get before the job
	// is failed. Zero means three heartbeat intervals.
	StaleAfter time.Duration
	// PendingTimeout fails jobs nobody claimed in time. Zero disables it.
	PendingTimeout   time.Duration
	MaxClaimAttempts int
	QueueName        string
}

// Worker consumes cause-list jobs and renders their PDFs.
type Worker struct {
	logger            *slog.Logger
	store             JobStore
	queue             Queue
	renderer          PDFRenderer
	workerID          string
	concurrency       int
	jobTimeout        time.Duration
	heartbeatInterval time.Duration
	staleAfter        time.Duration
	pendingTimeout    time.Duration
	maxClaimAttempts  int
	queueName         string

	claimFailures claimFailures
	jobsChan      chan *domain.JobMessage
	wg            sync.WaitGroup
}

// claimFailures counts failed claims per job on this worker.
type claimFailures struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *claimFailures) record(jobID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[jobID]++
	return c.counts[jobID]
}

func (c *claimFailures) forget(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, jobID)
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 3 * heartbeat
	}
	maxClaimAttempts := cfg.MaxClaimAttempts
	if maxClaimAttempts <= 0 {
		maxClaimAttempts = 5
	}

	return &Worker{
		logger:            cfg.Logger,
		store:             cfg.Store,
		queue:             cfg.Queue,
		renderer:          cfg.Renderer,
		workerID:          newWorkerID(),
		concurrency:       concurrency,
		jobTimeout:        cfg.JobTimeout,
		heartbeatInterval: heartbeat,
		staleAfter:        staleAfter,
		pendingTimeout:    cfg.PendingTimeout,
		maxClaimAttempts:  maxClaimAttempts,
		queueName:         cfg.QueueName,
		jobsChan:          make(chan *domain.JobMessage),
	}
}

func newWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

// ID returns the identifier recorded on claimed jobs.
func (w *Worker) ID() string {
	return w.workerID
}

// Start consumes jobs until ctx is canceled or the delivery channel closes,
// then waits for in-flight jobs to finish. Stale jobs are swept meanwhile.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		w.sweepStaleJobs(sweepCtx)
	}()

	w.spawnWorkerPool()
	w.startMessageDispatcher(ctx, deliveries)

	close(w.jobsChan)
	w.wg.Wait()
	stopSweep()
	<-sweepDone

	w.logger.Info("Worker stopped", slog.String("worker_id", w.workerID))
	return nil
}
