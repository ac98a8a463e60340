package tui

import (
	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

func (m *Model) ShowLoading(message string) {
	m.loading = message
	m.loadingDepth++
	if m.loadingDepth == 1 {
		m.pending = append(m.pending, m.spinner.Tick)
	}
}

func (m *Model) HideLoading() {
	if m.loadingDepth > 0 {
		m.loadingDepth--
	}
	if m.loadingDepth == 0 {
		m.loading = ""
	}
}

func (m *Model) RenderField(level causelist.Level, field causelist.Field) {
	m.fields[level] = field
	m.cursor[level] = 0
	for i, o := range field.Options {
		if o.Value == field.Value {
			m.cursor[level] = i
			break
		}
	}
}

func (m *Model) SetSubmitEnabled(enabled bool) {
	m.submitEnabled = enabled
}

func (m *Model) ShowProgress() {
	m.progressVisible = true
	m.result = nil
}

func (m *Model) UpdateProgress(percent int, message string) {
	m.percent = percent
	m.progressMessage = message
}

func (m *Model) HideProgress() {
	m.progressVisible = false
}

func (m *Model) ShowResult(view causelist.ResultView) {
	m.result = &view
}

func (m *Model) Alert(level causelist.AlertLevel, message string) {
	m.alerts.Add(level, message)
}
