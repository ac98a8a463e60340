package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Request a cause list without the interactive form",
	Long: `Runs the same workflow as the interactive form: each level is loaded and the
given value must be one of its options, then the job is started and polled
until it finishes. Exits non-zero when the job fails.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

type fetchParams struct {
	State    string
	District string
	Complex  string
	Court    string
	Date     string
	Download bool
	Output   string
}

var fetchFlags fetchParams

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFlags.State, "state", "", "state name")
	fetchCmd.Flags().StringVar(&fetchFlags.District, "district", "", "district name")
	fetchCmd.Flags().StringVar(&fetchFlags.Complex, "complex", "", "court complex name")
	fetchCmd.Flags().StringVar(&fetchFlags.Court, "court", "", "court name (default \"All Courts\")")
	fetchCmd.Flags().StringVar(&fetchFlags.Date, "date", "", "cause list date, DD-MM-YYYY")
	fetchCmd.Flags().BoolVar(&fetchFlags.Download, "download", false, "save the generated PDF locally")
	fetchCmd.Flags().StringVarP(&fetchFlags.Output, "output", "o", ".", "directory for --download")
}

// downloader fetches a produced file by its download link.
type downloader interface {
	Download(ctx context.Context, ref string, w io.Writer) (int64, error)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	log, err := newLogger("stderr")
	if err != nil {
		return err
	}
	defer log.Close()

	client := newClient(log.Logger)
	view, err := fetch(cmd.Context(), client, log.Logger, timing(), fetchFlags)
	if err != nil {
		return err
	}

	if fetchFlags.Download {
		file, err := save(cmd.Context(), client, view.DownloadURL, fetchFlags.Output)
		if err != nil {
			return err
		}
		log.Info("Saved cause list", slog.String("path", file))
		fmt.Fprintln(cmd.OutOrStdout(), file)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), view.DownloadURL)
	return nil
}

// fetchSession drives a Form from outside its event loop.
type fetchSession struct {
	loop      *eventloop.Loop
	presenter *logPresenter
	form      *causelist.Form
}

// do runs fn on the loop and waits for it.
func (s *fetchSession) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	s.loop.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// step runs action, waits for any fetch it triggered, then checks that want is
// an option of level.
func (s *fetchSession) step(ctx context.Context, action func(), level causelist.Level, want string) error {
	busy := false
	err := s.do(ctx, func() {
		s.presenter.clearFailure()
		action()
		busy = s.presenter.loading > 0
	})
	if err != nil {
		return err
	}

	if busy {
		select {
		case <-s.presenter.idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var field causelist.Field
	var failure string
	if err := s.do(ctx, func() {
		field = s.presenter.fields[level]
		failure = s.presenter.failure
	}); err != nil {
		return err
	}

	if failure != "" {
		return errors.New(failure)
	}
	if want != "" && !field.HasValue(want) {
		return fmt.Errorf("%s %q not found, available: %s", level, want, strings.Join(field.Names(), ", "))
	}
	return nil
}

// fetch selects the hierarchy, submits the job and waits for its result.
func fetch(ctx context.Context, api causelist.API, log *slog.Logger, t causelist.Timing, p fetchParams) (causelist.ResultView, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := eventloop.New(0)
	go func() { _ = loop.Run(runCtx) }()

	presenter := newLogPresenter(log)
	form := causelist.NewForm(runCtx, api, loop, presenter, causelist.Options{Logger: log, Timing: t})
	s := &fetchSession{loop: loop, presenter: presenter, form: form}

	steps := []struct {
		action func()
		level  causelist.Level
		want   string
	}{
		{form.Init, causelist.LevelState, p.State},
		{func() { form.Select(causelist.LevelState, p.State) }, causelist.LevelDistrict, p.District},
		{func() { form.Select(causelist.LevelDistrict, p.District) }, causelist.LevelCourtComplex, p.Complex},
		{func() { form.Select(causelist.LevelCourtComplex, p.Complex) }, causelist.LevelCourt, p.Court},
	}
	for _, st := range steps {
		if err := s.step(ctx, st.action, st.level, st.want); err != nil {
			return causelist.ResultView{}, err
		}
	}

	var submitErr error
	if err := s.do(ctx, func() {
		if p.Court != "" {
			form.Select(causelist.LevelCourt, p.Court)
		}
		form.SetDate(p.Date)
		submitErr = form.Submit()
		presenter.submitted = submitErr == nil
	}); err != nil {
		return causelist.ResultView{}, err
	}
	if submitErr != nil {
		return causelist.ResultView{}, fmt.Errorf("invalid request: %w", submitErr)
	}

	select {
	case out := <-presenter.done:
		if out.err != nil {
			return causelist.ResultView{}, out.err
		}
		if !out.view.Success {
			return out.view, fmt.Errorf("%s: %s", out.view.Title, out.view.Message)
		}
		return out.view, nil
	case <-ctx.Done():
		return causelist.ResultView{}, ctx.Err()
	}
}

// save downloads ref into dir, naming the file after the link's last segment.
func save(ctx context.Context, dl downloader, ref, dir string) (string, error) {
	if ref == "" {
		return "", errors.New("result has no download link")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid download link: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("download link %q has no file name", ref)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	target := filepath.Join(dir, name)

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := dl.Download(ctx, ref, f); err != nil {
		f.Close()
		os.Remove(target)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return target, nil
}
