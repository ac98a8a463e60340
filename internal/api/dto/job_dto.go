package dto

import (
	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

// Envelope wraps hierarchy and job start responses.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DownloadCauseListRequest is the body of POST /api/download-causelist.
type DownloadCauseListRequest struct {
	State        string `json:"state" binding:"required"`
	District     string `json:"district" binding:"required"`
	CourtComplex string `json:"court_complex" binding:"required"`
	CourtName    string `json:"court_name"`
	Date         string `json:"date" binding:"required,causelistdate"`
}

// JobQueuedResponse is the data of an accepted job start.
type JobQueuedResponse struct {
	JobID string `json:"job_id"`
}

// JobMessage is published to the worker queue.
type JobMessage struct {
	JobID string `json:"job_id"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Data    *causelist.JobResult `json:"data,omitempty"`
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID        string               `json:"job_id"`
	State        string               `json:"state"`
	District     string               `json:"district"`
	CourtComplex string               `json:"court_complex"`
	CourtName    string               `json:"court_name"`
	Date         string               `json:"date"`
	Status       string               `json:"status"`
	Step         string               `json:"step,omitempty"`
	Result       *causelist.JobResult `json:"result,omitempty"`
	Error        string               `json:"error,omitempty"`
	CreatedAt    string               `json:"created_at"`
	UpdatedAt    string               `json:"updated_at"`
}
