package domain

// Job status constants
const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

// Step messages reported through /api/status while a job runs.
const (
	StepClaimed    = "Preparing cause list request..."
	StepConnecting = "Connecting to eCourts..."
	StepRendering  = "Generating PDF..."
	StepSaving     = "Saving PDF..."
)

// Messages recorded on jobs failed by the stale-job sweep.
const (
	MsgWorkerLost  = "Download failed: worker stopped responding"
	MsgNotPickedUp = "Download failed: no worker picked up the job"
)
