package causelist

import (
	"context"
	"errors"
)

// AllCourts is the court name used when no specific court is chosen.
const AllCourts = "All Courts"

// Level is one of the four cascading selection fields, ordered top-down.
type Level int

const (
	LevelState Level = iota
	LevelDistrict
	LevelCourtComplex
	LevelCourt
)

// Levels lists every level in hierarchy order.
var Levels = []Level{LevelState, LevelDistrict, LevelCourtComplex, LevelCourt}

func (l Level) String() string {
	switch l {
	case LevelState:
		return "state"
	case LevelDistrict:
		return "district"
	case LevelCourtComplex:
		return "court complex"
	case LevelCourt:
		return "court"
	default:
		return "unknown"
	}
}

// Dependents returns the levels below l.
func (l Level) Dependents() []Level {
	if l < LevelState || l >= LevelCourt {
		return nil
	}
	return Levels[l+1:]
}

// JobRequest is the payload of a cause-list job submission.
type JobRequest struct {
	State        string `json:"state"`
	District     string `json:"district"`
	CourtComplex string `json:"court_complex"`
	CourtName    string `json:"court_name"`
	Date         string `json:"date"`
}

// Status is the server-reported phase of the current job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether s ends polling for a job.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// JobStatus is one answer from the status endpoint.
type JobStatus struct {
	Status  Status     `json:"status"`
	Message string     `json:"message"`
	Data    *JobResult `json:"data,omitempty"`
}

// JobResult is the outcome attached to a completed job.
type JobResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
	Filename    string `json:"filename,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// API is the server surface the form consumes.
type API interface {
	// Hierarchy lists the option names of level given the selections above it.
	Hierarchy(ctx context.Context, level Level, parents []string) ([]string, error)
	StartJob(ctx context.Context, req JobRequest) error
	Status(ctx context.Context) (*JobStatus, error)
}

// APIError is a well-formed response whose envelope reported failure.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

var (
	// ErrMissingFields is returned when a required form field is empty.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidDate is returned when the date is not a valid DD-MM-YYYY date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrJobActive is returned when a submission arrives while a job is being polled.
	ErrJobActive = errors.New("a download is already in progress")
)
