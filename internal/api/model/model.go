package model

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

// Job is a row of causelist_jobs.
type Job struct {
	JobID        string             `db:"job_id"`
	State        string             `db:"state"`
	District     string             `db:"district"`
	CourtComplex string             `db:"court_complex"`
	CourtName    string             `db:"court_name"`
	CauseDate    string             `db:"cause_date"`
	Status       string             `db:"status"`
	Step         string             `db:"step"`
	Result       types.NullJSONText `db:"result"`
	ErrorMessage string             `db:"error_message"`
	CreatedAt    time.Time           `db:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at"`
}

// DecodeResult returns the recorded job outcome, or nil before the worker
// has stored one.
func (j *Job) DecodeResult() (*causelist.JobResult, error) {
	if !j.Result.Valid || len(j.Result.JSONText) == 0 {
		return nil, nil
	}
	var r causelist.JobResult
	if err := j.Result.Unmarshal(&r); err != nil {
		return nil, fmt.Errorf("failed to decode job result: %w", err)
	}
	return &r, nil
}
