package cli

import (
	"errors"
	"log/slog"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

type fetchOutcome struct {
	view causelist.ResultView
	err  error
}

// logPresenter reports form activity as log records and signals the fetch
// command when loading settles or the job finishes. Its fields are only
// touched on the event loop.
type logPresenter struct {
	log *slog.Logger

	fields  [4]causelist.Field
	loading int
	idle    chan struct{}

	// failure holds the last danger alert raised since clearFailure.
	failure   string
	submitted bool
	done      chan fetchOutcome
}

func newLogPresenter(log *slog.Logger) *logPresenter {
	return &logPresenter{
		log:  log,
		idle: make(chan struct{}, 1),
		done: make(chan fetchOutcome, 1),
	}
}

func (p *logPresenter) clearFailure() {
	p.failure = ""
	select {
	case <-p.idle:
	default:
	}
}

func (p *logPresenter) ShowLoading(message string) {
	p.loading++
	p.log.Info(message)
}

func (p *logPresenter) HideLoading() {
	if p.loading > 0 {
		p.loading--
	}
	if p.loading == 0 {
		select {
		case p.idle <- struct{}{}:
		default:
		}
	}
}

func (p *logPresenter) RenderField(level causelist.Level, field causelist.Field) {
	p.fields[level] = field
	if !field.Disabled {
		p.log.Debug("Options loaded",
			slog.String("level", level.String()),
			slog.Int("count", len(field.Names())),
		)
	}
}

func (p *logPresenter) SetSubmitEnabled(bool) {}

func (p *logPresenter) ShowProgress() {}

func (p *logPresenter) UpdateProgress(percent int, message string) {
	p.log.Info("Progress",
		slog.Int("percent", percent),
		slog.String("message", message),
	)
}

func (p *logPresenter) HideProgress() {}

func (p *logPresenter) ShowResult(view causelist.ResultView) {
	p.log.Info(view.Title,
		slog.String("message", view.Message),
		slog.String("download_url", view.DownloadURL),
	)
	p.finish(fetchOutcome{view: view})
}

func (p *logPresenter) Alert(level causelist.AlertLevel, message string) {
	if level == causelist.AlertWarning {
		p.log.Warn(message)
		return
	}

	p.log.Error(message)
	p.failure = message
	if p.submitted {
		p.finish(fetchOutcome{err: errors.New(message)})
	}
}

func (p *logPresenter) finish(out fetchOutcome) {
	select {
	case p.done <- out:
	default:
	}
}
