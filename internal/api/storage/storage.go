package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/ecourts-causelist/internal/api/domain"
	"github.com/cuongbtq/ecourts-causelist/internal/api/model"
)

const jobColumns = `
	job_id, state, district, court_complex, court_name, cause_date,
	status, step, result, error_message, created_at, updated_at`

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) CreateJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO causelist_jobs (
			job_id, state, district, court_complex, court_name, cause_date,
			status, step, created_at, updated_at
		) VALUES (
			:job_id, :state, :district, :court_complex, :court_name, :cause_date,
			:status, :step, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// LatestJob returns the most recently submitted job.
func (s *Storage) LatestJob(ctx context.Context) (*model.Job, error) {
	var job model.Job
	query := `SELECT ` + jobColumns + `
		FROM causelist_jobs
		ORDER BY created_at DESC, job_id DESC
		LIMIT 1
	`

	err := s.db.GetContext(ctx, &job, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get latest job: %w", err)
	}

	return &job, nil
}

// MarkFailed records a job that could not be handed to a worker.
func (s *Storage) MarkFailed(ctx context.Context, jobID, message string) error {
	query := `
		UPDATE causelist_jobs
		SET status = $1, error_message = $2, completed_at = NOW(), updated_at = NOW()
		WHERE job_id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusFailed, message, jobID); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	return nil
}

type JobFilter struct {
	Status   string
	PageSize int
	Cursor   *JobCursor
}

type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query, args := listJobsQuery(filter)

	var jobs []model.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// listJobsQuery selects one row more than the page size so the caller can
// tell whether another page exists.
func listJobsQuery(filter JobFilter) (string, []interface{}) {
	query := `SELECT ` + jobColumns + `
		FROM causelist_jobs
		WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	return query, args
}
