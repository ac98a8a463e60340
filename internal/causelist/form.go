package causelist

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

// Options configures a Form.
type Options struct {
	Logger *slog.Logger
	Timing Timing
}

// Form ties the hierarchy selector, job submitter and status poller to one
// presenter and scheduler.
type Form struct {
	selector  *Selector
	submitter *Submitter
	poller    *Poller
	date      string
}

// NewForm wires a Form. All of its methods must be called from sched's loop.
func NewForm(ctx context.Context, api API, sched eventloop.Scheduler, presenter Presenter, opts Options) *Form {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	poller := NewPoller(ctx, api, sched, presenter, logger.With(slog.String("component", "poller")), opts.Timing)
	return &Form{
		selector:  NewSelector(ctx, api, sched, presenter, logger.With(slog.String("component", "selector"))),
		submitter: NewSubmitter(ctx, api, sched, presenter, poller, logger.With(slog.String("component", "submitter"))),
		poller:    poller,
	}
}

// Init renders the empty form and loads the states.
func (f *Form) Init() {
	f.selector.Init()
}

// Select records a choice at level.
func (f *Form) Select(level Level, value string) {
	f.selector.Select(level, value)
}

// SetDate records the DD-MM-YYYY date text.
func (f *Form) SetDate(date string) {
	f.date = date
}

// Date returns the current date text.
func (f *Form) Date() string {
	return f.date
}

// Request builds the JobRequest from the current selections.
func (f *Form) Request() JobRequest {
	return JobRequest{
		State:        f.selector.Value(LevelState),
		District:     f.selector.Value(LevelDistrict),
		CourtComplex: f.selector.Value(LevelCourtComplex),
		CourtName:    f.selector.Value(LevelCourt),
		Date:         f.date,
	}
}

// Submit validates the current selections and starts a job.
func (f *Form) Submit() error {
	return f.submitter.Submit(f.Request())
}

// Busy reports whether a job is starting or being polled.
func (f *Form) Busy() bool {
	return f.submitter.Busy()
}

func (f *Form) Selector() *Selector { return f.selector }

func (f *Form) Poller() *Poller { return f.poller }
