package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

// Run shows the form until the user quits. The bubbletea update loop is the
// only goroutine that touches form state.
func Run(ctx context.Context, api causelist.API, opts Options) error {
	var p *tea.Program
	loop := eventloop.NewPosting(func(fn func()) {
		p.Send(callbackMsg(fn))
	})
	defer loop.Close()

	m := New(ctx, api, loop, opts)
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("tui requires an interactive terminal (TTY)")
		}
		return fmt.Errorf("failed to run terminal form: %w", err)
	}
	return nil
}
