package causelist

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

// PollState is the lifecycle phase of a Poller.
type PollState int

const (
	PollIdle PollState = iota
	PollPolling
	PollTerminal
)

func (s PollState) String() string {
	switch s {
	case PollIdle:
		return "idle"
	case PollPolling:
		return "polling"
	case PollTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

const (
	progressStep    = 10
	progressCeiling = 90

	completedMessage = "PDF download completed!"
)

// Timing holds the poller's fixed delays.
type Timing struct {
	PollInterval   time.Duration
	CompleteDelay  time.Duration
	ErrorHideDelay time.Duration
}

// DefaultTiming returns the standard 1s poll, 1s result delay and 3s error hide.
func DefaultTiming() Timing {
	return Timing{
		PollInterval:   time.Second,
		CompleteDelay:  time.Second,
		ErrorHideDelay: 3 * time.Second,
	}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.CompleteDelay <= 0 {
		t.CompleteDelay = d.CompleteDelay
	}
	if t.ErrorHideDelay <= 0 {
		t.ErrorHideDelay = d.ErrorHideDelay
	}
	return t
}

// Poller queries job status on a fixed interval until a terminal status.
//
// The poller owns its timer: Start cancels any previous timer before arming a
// new one. At most one status query is in flight; a tick that finds the
// previous query still pending is skipped. Responses arriving after Terminal,
// or belonging to an earlier job, are ignored.
type Poller struct {
	ctx       context.Context
	api       API
	sched     eventloop.Scheduler
	presenter Presenter
	logger    *slog.Logger
	timing    Timing

	state    PollState
	timer    eventloop.Timer
	progress int
	inflight bool
	job      int
	queries  int
}

// NewPoller creates an idle Poller.
func NewPoller(ctx context.Context, api API, sched eventloop.Scheduler, presenter Presenter, logger *slog.Logger, timing Timing) *Poller {
	return &Poller{
		ctx:       ctx,
		api:       api,
		sched:     sched,
		presenter: presenter,
		logger:    logger,
		timing:    timing.withDefaults(),
	}
}

// State returns the current lifecycle phase.
func (p *Poller) State() PollState {
	return p.state
}

// Progress returns the client-estimated completion percentage.
func (p *Poller) Progress() int {
	return p.progress
}

// Active reports whether a job is being polled.
func (p *Poller) Active() bool {
	return p.state == PollPolling
}

// Queries returns how many status queries have been issued in total.
func (p *Poller) Queries() int {
	return p.queries
}

// Start begins polling for a freshly started job.
func (p *Poller) Start() {
	p.stopTimer()

	p.job++
	p.state = PollPolling
	p.progress = 0
	p.inflight = false
	p.timer = p.sched.Every(p.timing.PollInterval, p.tick)

	p.logger.Info("Status polling started",
		slog.Int("job", p.job),
		slog.Duration("interval", p.timing.PollInterval),
	)
}

func (p *Poller) tick() {
	if p.state != PollPolling {
		return
	}
	if p.inflight {
		p.logger.Debug("Skipping status tick, previous query still pending")
		return
	}

	p.inflight = true
	p.queries++
	job := p.job

	var status *JobStatus
	var err error
	p.sched.Go(func() {
		status, err = p.api.Status(p.ctx)
	}, func() {
		p.handle(job, status, err)
	})
}

func (p *Poller) handle(job int, status *JobStatus, err error) {
	if job != p.job {
		return
	}
	p.inflight = false

	if p.state != PollPolling {
		p.logger.Debug("Ignoring status response after terminal state")
		return
	}

	if err != nil {
		p.logger.Warn("Failed to check download status",
			slog.String("error", err.Error()),
		)
		return
	}

	switch status.Status {
	case StatusCompleted:
		p.finish()
		p.progress = 100
		p.presenter.UpdateProgress(100, completedMessage)

		var result JobResult
		if status.Data != nil {
			result = *status.Data
		}
		p.sched.After(p.timing.CompleteDelay, func() {
			if job != p.job {
				return
			}
			p.presenter.HideProgress()
			p.presenter.ShowResult(NewResultView(result))
		})

	case StatusError:
		p.finish()
		p.progress = 0
		p.presenter.UpdateProgress(0, status.Message)
		p.presenter.Alert(AlertDanger, status.Message)
		p.sched.After(p.timing.ErrorHideDelay, func() {
			if job != p.job {
				return
			}
			p.presenter.HideProgress()
		})

	case StatusRunning:
		p.progress = min(p.progress+progressStep, progressCeiling)
		p.presenter.UpdateProgress(p.progress, status.Message)

	default:
		p.logger.Debug("Ignoring unrecognised job status",
			slog.String("status", string(status.Status)),
		)
	}
}

func (p *Poller) finish() {
	p.stopTimer()
	p.state = PollTerminal
	p.presenter.SetSubmitEnabled(true)

	p.logger.Info("Status polling finished",
		slog.Int("job", p.job),
	)
}

func (p *Poller) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
