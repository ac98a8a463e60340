package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimJob moves a PENDING job to RUNNING for workerID. It returns
// domain.ErrJobAlreadyClaimed when the job is missing or no longer pending.
func (s *Storage) ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	query := `
		UPDATE causelist_jobs
		SET status = $1,
		    worker_id = $2,
		    step = $3,
		    started_at = NOW(),
		    last_heartbeat_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $4
		  AND status = $5
		RETURNING job_id, state, district, court_complex, court_name, cause_date
	`

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query,
		domain.JobStatusRunning, workerID, domain.StepClaimed, jobID, domain.JobStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	s.logger.Info("Job claimed",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
	)

	return &job, nil
}

// UpdateStep records the progress message of a running job.
func (s *Storage) UpdateStep(ctx context.Context, jobID, step string) error {
	query := `
		UPDATE causelist_jobs
		SET step = $1, updated_at = NOW()
		WHERE job_id = $2 AND status = $3
	`

	if _, err := s.db.ExecContext(ctx, query, step, jobID, domain.JobStatusRunning); err != nil {
		return fmt.Errorf("failed to update job step: %w", err)
	}
	return nil
}

// CompleteJob stores the result of a job that ran to the end, successful or
// not.
func (s *Storage) CompleteJob(ctx context.Context, jobID string, result causelist.JobResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		UPDATE causelist_jobs
		SET status = $1,
		    result = $2,
		    error_message = $3,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $4 AND status = $5
	`

	if _, err := s.db.ExecContext(ctx, query,
		domain.JobStatusCompleted, string(resultJSON), result.Error, jobID, domain.JobStatusRunning); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	s.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.Bool("success", result.Success),
	)
	return nil
}

// FailJob marks a running job that could not run to the end.
func (s *Storage) FailJob(ctx context.Context, jobID, message string) error {
	query := `
		UPDATE causelist_jobs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3 AND status = $4
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusFailed, message, jobID, domain.JobStatusRunning); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	s.logger.Info("Job failed",
		slog.String("job_id", jobID),
		slog.String("error", message),
	)
	return nil
}

// UpdateJobHeartbeat updates the last_heartbeat_at timestamp for a running job
func (s *Storage) UpdateJobHeartbeat(ctx context.Context, jobID string) error {
	query := `
		UPDATE causelist_jobs
		SET last_heartbeat_at = NOW()
		WHERE job_id = $1 AND status = $2
	`

	result, err := s.db.ExecContext(ctx, query, jobID, domain.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to update job heartbeat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Job heartbeat update - no rows affected (job may not be running)",
			slog.String("job_id", jobID),
		)
	}

	return nil
}

// FailStaleJobs fails running jobs whose heartbeat is older than staleAfter.
func (s *Storage) FailStaleJobs(ctx context.Context, staleAfter time.Duration, message string) (int64, error) {
	query := `
		UPDATE causelist_jobs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE status = $3
		  AND last_heartbeat_at < NOW() - $4::float8 * INTERVAL '1 millisecond'
	`

	return s.sweep(ctx, query, message, domain.JobStatusRunning, staleAfter)
}

// FailUnclaimedJobs fails pending jobs created more than pendingAfter ago.
func (s *Storage) FailUnclaimedJobs(ctx context.Context, pendingAfter time.Duration, message string) (int64, error) {
	query := `
		UPDATE causelist_jobs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE status = $3
		  AND created_at < NOW() - $4::float8 * INTERVAL '1 millisecond'
	`

	return s.sweep(ctx, query, message, domain.JobStatusPending, pendingAfter)
}

func (s *Storage) sweep(ctx context.Context, query, message, status string, age time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusFailed, message, status, float64(age.Milliseconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale %s jobs: %w", status, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
