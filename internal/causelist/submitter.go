package causelist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

const (
	startingMessage     = "Starting PDF download from eCourts..."
	startingLoading     = "Starting download..."
	missingFieldsNotice = "Please fill all required fields"
	invalidDateNotice   = "Please enter a valid date in DD-MM-YYYY format"
	jobActiveNotice     = "A download is already in progress"
)

// Submitter validates a JobRequest, starts the server job and hands off to
// the Poller.
type Submitter struct {
	ctx       context.Context
	api       API
	sched     eventloop.Scheduler
	presenter Presenter
	poller    *Poller
	logger    *slog.Logger

	starting bool
}

// NewSubmitter creates a Submitter that starts poller on success.
func NewSubmitter(ctx context.Context, api API, sched eventloop.Scheduler, presenter Presenter, poller *Poller, logger *slog.Logger) *Submitter {
	return &Submitter{
		ctx:       ctx,
		api:       api,
		sched:     sched,
		presenter: presenter,
		poller:    poller,
		logger:    logger,
	}
}

// Busy reports whether a job is starting or being polled.
func (s *Submitter) Busy() bool {
	return s.starting || s.poller.Active()
}

// Validate normalises req and checks it in order: required fields, then date.
func Validate(req *JobRequest) error {
	if req.CourtName == "" {
		req.CourtName = AllCourts
	}
	if req.State == "" || req.District == "" || req.CourtComplex == "" || req.Date == "" {
		return ErrMissingFields
	}
	if !IsValidDate(req.Date) {
		return ErrInvalidDate
	}
	return nil
}

// Submit validates req and, when valid, starts the job. Validation failures
// are reported as warning alerts and returned without any network call.
func (s *Submitter) Submit(req JobRequest) error {
	if s.Busy() {
		s.presenter.Alert(AlertWarning, jobActiveNotice)
		return ErrJobActive
	}

	if err := Validate(&req); err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			s.presenter.Alert(AlertWarning, missingFieldsNotice)
		case errors.Is(err, ErrInvalidDate):
			s.presenter.Alert(AlertWarning, invalidDateNotice)
		}
		return err
	}

	s.logger.Info("Submitting cause list job",
		slog.String("state", req.State),
		slog.String("district", req.District),
		slog.String("court_complex", req.CourtComplex),
		slog.String("court_name", req.CourtName),
		slog.String("date", req.Date),
	)

	s.starting = true
	s.presenter.SetSubmitEnabled(false)
	s.presenter.ShowProgress()
	s.presenter.UpdateProgress(0, startingMessage)
	s.presenter.ShowLoading(startingLoading)

	var err error
	s.sched.Go(func() {
		err = s.api.StartJob(s.ctx, req)
	}, func() {
		s.starting = false
		s.presenter.HideLoading()

		if err != nil {
			s.logger.Error("Failed to start cause list job",
				slog.String("error", err.Error()),
			)
			s.presenter.HideProgress()
			s.presenter.Alert(AlertDanger, startErrorText(err))
			s.presenter.SetSubmitEnabled(true)
			return
		}

		s.poller.Start()
	})
	return nil
}

// startErrorText distinguishes a failure envelope from a transport failure.
func startErrorText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return "Failed to start download: " + msg
	}
	return "Error starting download: " + err.Error()
}
