package domain

// Job is a claimed cause-list request.
type Job struct {
	JobID        string `db:"job_id"`
	State        string `db:"state"`
	District     string `db:"district"`
	CourtComplex string `db:"court_complex"`
	CourtName    string `db:"court_name"`
	CauseDate    string `db:"cause_date"`
}

// JobMessage represents a job message from RabbitMQ
type JobMessage struct {
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}
