package domain

import (
	"errors"
)

const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

// StatusIdle is reported by /api/status when no job has been submitted.
const StatusIdle = "idle"

// Messages returned to the form when a job start is rejected.
const (
	MsgFieldsRequired = "All fields are required"
	MsgInvalidDate    = "Invalid date format. Use DD-MM-YYYY"
	MsgQueueFailed    = "Failed to queue download"
	MsgWaiting        = "Waiting for a worker..."
)

var (
	ErrJobNotFound = errors.New("job not found")
)
