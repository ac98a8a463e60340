package causelist

import (
	"time"

	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

// AlertLevel is the severity of a user-facing alert.
type AlertLevel string

const (
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

// Option is one entry of a selection field.
type Option struct {
	Value string
	Label string
}

// Field is the rendered state of one hierarchy level.
type Field struct {
	Options  []Option
	Value    string
	Disabled bool
}

// HasValue reports whether v is one of the field's option values.
func (f Field) HasValue(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Names returns the labels of options carrying a non-empty value.
func (f Field) Names() []string {
	names := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		if o.Value != "" {
			names = append(names, o.Label)
		}
	}
	return names
}

// ResultView is the content of the results panel.
type ResultView struct {
	Success     bool
	Title       string
	Message     string
	DownloadURL string
}

// NewResultView maps a job result onto exactly one of the success or failure
// variants. The download link is only set on success.
func NewResultView(r JobResult) ResultView {
	if r.Success {
		msg := r.Message
		if msg == "" {
			msg = "Cause list PDF downloaded successfully"
		}
		return ResultView{
			Success:     true,
			Title:       "Download Successful",
			Message:     msg,
			DownloadURL: r.DownloadURL,
		}
	}

	msg := r.Error
	if msg == "" {
		msg = "Failed to download PDF"
	}
	return ResultView{
		Title:   "Download Failed",
		Message: msg,
	}
}

// Presenter renders selector and poller state. All methods are called from
// the scheduler's loop.
type Presenter interface {
	ShowLoading(message string)
	HideLoading()
	RenderField(level Level, field Field)
	SetSubmitEnabled(enabled bool)
	ShowProgress()
	UpdateProgress(percent int, message string)
	HideProgress()
	ShowResult(view ResultView)
	Alert(level AlertLevel, message string)
}

// DefaultAlertTTL is how long an alert stays visible unless dismissed.
const DefaultAlertTTL = 5 * time.Second

// Alert is one transient notice on an AlertBoard.
type Alert struct {
	ID      int
	Level   AlertLevel
	Message string
}

// AlertBoard keeps the visible alerts for a presenter and removes each one
// after its TTL.
type AlertBoard struct {
	sched    eventloop.Scheduler
	ttl      time.Duration
	nextID   int
	alerts   []Alert
	onChange func()
}

// NewAlertBoard creates an AlertBoard. onChange may be nil.
func NewAlertBoard(sched eventloop.Scheduler, ttl time.Duration, onChange func()) *AlertBoard {
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	return &AlertBoard{sched: sched, ttl: ttl, onChange: onChange}
}

// Add shows an alert and schedules its removal.
func (b *AlertBoard) Add(level AlertLevel, message string) int {
	b.nextID++
	id := b.nextID
	// Newest first, matching insertion directly above the form.
	b.alerts = append([]Alert{{ID: id, Level: level, Message: message}}, b.alerts...)
	b.sched.After(b.ttl, func() { b.Dismiss(id) })
	b.changed()
	return id
}

// Dismiss removes an alert. Unknown ids are ignored.
func (b *AlertBoard) Dismiss(id int) {
	for i, a := range b.alerts {
		if a.ID == id {
			b.alerts = append(b.alerts[:i], b.alerts[i+1:]...)
			b.changed()
			return
		}
	}
}

// Active returns the visible alerts, newest first.
func (b *AlertBoard) Active() []Alert {
	out := make([]Alert, len(b.alerts))
	copy(out, b.alerts)
	return out
}

func (b *AlertBoard) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}
