package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Width(20)
)

var fieldLabels = [4]string{"State", "District", "Court Complex", "Court"}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{
		titleStyle.Render("eCourts Cause List Downloader"),
	}

	if alerts := m.viewAlerts(); alerts != "" {
		sections = append(sections, alerts)
	}

	sections = append(sections, panelStyle.Render(m.viewForm()))

	if m.progressVisible {
		sections = append(sections, panelStyle.Render(m.viewProgress()))
	}
	if m.result != nil {
		sections = append(sections, panelStyle.Render(m.viewResult()))
	}
	if m.loadingDepth > 0 {
		sections = append(sections, m.spinner.View()+" "+m.loading)
	}

	sections = append(sections, mutedStyle.Render(
		"tab/up/down: move | left/right: choose | enter: apply/submit | x: dismiss alert | esc: quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) viewAlerts() string {
	active := m.alerts.Active()
	if len(active) == 0 {
		return ""
	}
	lines := make([]string, 0, len(active))
	for _, a := range active {
		style := warningStyle
		if a.Level == causelist.AlertDanger {
			style = errorStyle
		}
		lines = append(lines, style.Render("! "+a.Message))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewForm() string {
	lines := make([]string, 0, 6)
	for _, level := range causelist.Levels {
		lines = append(lines, labelStyle.Render(fieldLabels[level]+":")+m.viewField(level))
	}

	dateLine := labelStyle.Render("Date (DD-MM-YYYY):") + m.date.View()
	lines = append(lines, dateLine)

	button := "[ Download Cause List ]"
	switch {
	case !m.submitEnabled:
		button = mutedStyle.Render(button)
	case m.focus == focusSubmit:
		button = focusStyle.Render(button)
	}
	lines = append(lines, "", button)

	return strings.Join(lines, "\n")
}

func (m *Model) viewField(level causelist.Level) string {
	f := m.fields[level]
	label := ""
	if i := m.cursor[level]; i < len(f.Options) {
		label = f.Options[i].Label
	}

	if f.Disabled {
		return mutedStyle.Render(label)
	}

	text := "< " + label + " >"
	if i := m.cursor[level]; i < len(f.Options) && f.Options[i].Value != f.Value {
		text += mutedStyle.Render(" (enter to apply)")
	}
	if m.focus == focusTarget(level) {
		return focusStyle.Render(text)
	}
	return text
}

func (m *Model) viewProgress() string {
	return fmt.Sprintf("%s\n%s %d%%",
		m.progressMessage,
		m.bar.ViewAs(float64(m.percent)/100),
		m.percent,
	)
}

func (m *Model) viewResult() string {
	r := m.result
	if !r.Success {
		return errorStyle.Render(r.Title) + "\n" + r.Message
	}

	out := okStyle.Render(r.Title) + "\n" + r.Message
	if r.DownloadURL != "" {
		out += "\n" + accentStyle.Render(m.downloadLink(r.DownloadURL))
	}
	return out
}

func (m *Model) downloadLink(ref string) string {
	if strings.HasPrefix(ref, "/") && m.opts.BaseURL != "" {
		return strings.TrimRight(m.opts.BaseURL, "/") + ref
	}
	return ref
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
