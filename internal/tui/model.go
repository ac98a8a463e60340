// Package tui renders the cause-list form in a terminal with bubbletea.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

// callbackMsg carries a scheduler callback onto the bubbletea update loop.
type callbackMsg func()

type focusTarget int

const (
	focusState focusTarget = iota
	focusDistrict
	focusComplex
	focusCourt
	focusDate
	focusSubmit
	focusCount
)

// Options configures the terminal form.
type Options struct {
	Logger   *slog.Logger
	Timing   causelist.Timing
	AlertTTL time.Duration
	// BaseURL is prefixed to relative download links in the result panel.
	BaseURL string
}

// Model is the bubbletea model and the causelist.Presenter of the form.
type Model struct {
	form   *causelist.Form
	alerts *causelist.AlertBoard
	opts   Options

	fields [4]causelist.Field
	cursor [4]int
	focus  focusTarget

	date    textinput.Model
	spinner spinner.Model
	bar     progress.Model

	loading      string
	loadingDepth int

	submitEnabled   bool
	progressVisible bool
	percent         int
	progressMessage string
	result          *causelist.ResultView

	width   int
	pending []tea.Cmd
}

var _ causelist.Presenter = (*Model)(nil)

// New creates a Model whose form runs on sched.
func New(ctx context.Context, api causelist.API, sched eventloop.Scheduler, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	date := textinput.New()
	date.Placeholder = "DD-MM-YYYY"
	date.CharLimit = len(causelist.DateLayout)
	date.Width = 12

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := &Model{
		opts:          opts,
		date:          date,
		spinner:       sp,
		bar:           progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		submitEnabled: true,
	}
	m.alerts = causelist.NewAlertBoard(sched, opts.AlertTTL, nil)
	m.form = causelist.NewForm(ctx, api, sched, m, causelist.Options{
		Logger: opts.Logger,
		Timing: opts.Timing,
	})
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return callbackMsg(m.form.Init) },
		textinput.Blink,
	)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callbackMsg:
		msg()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clampInt(msg.Width-20, 20, 60)
	case spinner.TickMsg:
		if m.loadingDepth > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.pending = append(m.pending, cmd)
		}
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			m.pending = append(m.pending, cmd)
		}
	default:
		if m.focus == focusDate {
			var cmd tea.Cmd
			m.date, cmd = m.date.Update(msg)
			m.pending = append(m.pending, cmd)
		}
	}
	return m, m.flush()
}

func (m *Model) flush() tea.Cmd {
	if len(m.pending) == 0 {
		return nil
	}
	cmds := m.pending
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "ctrl+c", "esc":
		return tea.Quit
	}

	// The loading indicator is modal.
	if m.loadingDepth > 0 {
		return nil
	}

	switch key {
	case "tab", "down":
		m.moveFocus(1)
		return nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return nil
	}

	if m.focus == focusDate {
		if key == "enter" {
			m.submit()
			return nil
		}
		var cmd tea.Cmd
		m.date, cmd = m.date.Update(msg)
		m.form.SetDate(strings.TrimSpace(m.date.Value()))
		return cmd
	}

	switch key {
	case "x":
		if active := m.alerts.Active(); len(active) > 0 {
			m.alerts.Dismiss(active[0].ID)
		}
	case "left", "h":
		m.cycle(-1)
	case "right", "l", " ":
		m.cycle(1)
	case "enter":
		if m.focus == focusSubmit {
			m.submit()
			return nil
		}
		m.commitSelection()
	}
	return nil
}

func (m *Model) moveFocus(delta int) {
	m.focus = focusTarget((int(m.focus) + delta + int(focusCount)) % int(focusCount))
	if m.focus == focusDate {
		m.date.Focus()
	} else {
		m.date.Blur()
	}
}

func (m *Model) focusedLevel() (causelist.Level, bool) {
	if m.focus > focusCourt {
		return 0, false
	}
	return causelist.Level(m.focus), true
}

func (m *Model) cycle(delta int) {
	level, ok := m.focusedLevel()
	if !ok {
		return
	}
	f := m.fields[level]
	if f.Disabled || len(f.Options) == 0 {
		return
	}
	n := len(f.Options)
	m.cursor[level] = (m.cursor[level] + delta + n) % n
}

// commitSelection applies the highlighted option of the focused field when it
// differs from the current value.
func (m *Model) commitSelection() {
	level, ok := m.focusedLevel()
	if !ok {
		return
	}
	f := m.fields[level]
	if f.Disabled || m.cursor[level] >= len(f.Options) {
		return
	}
	value := f.Options[m.cursor[level]].Value
	if value == f.Value {
		return
	}
	m.form.Select(level, value)
}

func (m *Model) submit() {
	if !m.submitEnabled {
		return
	}
	m.form.SetDate(strings.TrimSpace(m.date.Value()))
	m.result = nil
	if err := m.form.Submit(); err != nil {
		m.opts.Logger.Debug("Submission rejected", slog.String("error", err.Error()))
	}
}

// Form exposes the underlying form.
func (m *Model) Form() *causelist.Form {
	return m.form
}
