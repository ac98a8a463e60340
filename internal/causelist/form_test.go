package causelist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/ecourts-causelist/internal/eventloop"
)

func TestForm_EndToEnd(t *testing.T) {
	api := newFakeAPI()
	api.on(LevelState, nil, "Delhi")
	api.on(LevelDistrict, []string{"Delhi"}, "North", "South")
	api.on(LevelCourtComplex, []string{"Delhi", "North"}, "Tis Hazari")
	api.on(LevelCourt, []string{"Delhi", "North", "Tis Hazari"}, "Court 1")
	api.queue(
		running("Opening eCourts..."),
		running("Selecting court..."),
		running("Generating PDF..."),
		completed(JobResult{
			Success:     true,
			Message:     "Cause list downloaded successfully for Tis Hazari",
			Filename:    "causelist_Delhi_North_Tis Hazari_05_03_2025.pdf",
			DownloadURL: "/download/causelist_Delhi_North_Tis Hazari_05_03_2025.pdf",
		}),
	)

	sched := eventloop.NewManual()
	presenter := newRecordingPresenter()
	form := NewForm(context.Background(), api, sched, presenter, Options{Logger: discardLogger()})

	form.Init()
	sched.Drain()

	form.Select(LevelState, "Delhi")
	sched.Drain()
	assert.Equal(t, []string{"North", "South"}, presenter.fields[LevelDistrict].Names())

	form.Select(LevelDistrict, "North")
	sched.Drain()
	assert.Equal(t, []string{"Tis Hazari"}, presenter.fields[LevelCourtComplex].Names())

	form.Select(LevelCourtComplex, "Tis Hazari")
	sched.Drain()
	assert.Equal(t, []string{AllCourts, "Court 1"}, presenter.fields[LevelCourt].Names())

	form.SetDate("05-03-2025")
	require.NoError(t, form.Submit())
	sched.Drain()
	require.Len(t, api.startCalls, 1)
	assert.Equal(t, JobRequest{
		State:        "Delhi",
		District:     "North",
		CourtComplex: "Tis Hazari",
		CourtName:    AllCourts,
		Date:         "05-03-2025",
	}, api.startCalls[0])
	assert.True(t, form.Busy())

	sched.Advance(3 * time.Second)
	assert.Equal(t, []int{0, 10, 20, 30}, presenter.percents)

	sched.Advance(2 * time.Second)
	assert.Equal(t, []int{0, 10, 20, 30, 100}, presenter.percents)
	require.Len(t, presenter.results, 1)
	result := presenter.results[0]
	assert.True(t, result.Success)
	assert.Equal(t, "Cause list downloaded successfully for Tis Hazari", result.Message)
	assert.Equal(t, "/download/causelist_Delhi_North_Tis Hazari_05_03_2025.pdf", result.DownloadURL)
	assert.False(t, form.Busy())
	assert.True(t, presenter.submitEnabled)
	assert.Empty(t, presenter.alerts)
}

func TestForm_RequestUsesSelectedCourt(t *testing.T) {
	api := newFakeAPI()
	api.on(LevelState, nil, "Delhi")
	api.on(LevelDistrict, []string{"Delhi"}, "North")
	api.on(LevelCourtComplex, []string{"Delhi", "North"}, "Tis Hazari")
	api.on(LevelCourt, []string{"Delhi", "North", "Tis Hazari"}, "Court 1")

	sched := eventloop.NewManual()
	form := NewForm(context.Background(), api, sched, newRecordingPresenter(), Options{Logger: discardLogger()})
	form.Init()
	sched.Drain()
	for _, step := range []struct {
		level Level
		value string
	}{
		{LevelState, "Delhi"},
		{LevelDistrict, "North"},
		{LevelCourtComplex, "Tis Hazari"},
		{LevelCourt, "Court 1"},
	} {
		form.Select(step.level, step.value)
		sched.Drain()
	}
	form.SetDate("01-01-2000")

	assert.Equal(t, JobRequest{
		State:        "Delhi",
		District:     "North",
		CourtComplex: "Tis Hazari",
		CourtName:    "Court 1",
		Date:         "01-01-2000",
	}, form.Request())
	assert.Equal(t, "01-01-2000", form.Date())
}

func TestAlertBoard(t *testing.T) {
	sched := eventloop.NewManual()
	changes := 0
	board := NewAlertBoard(sched, 0, func() { changes++ })

	first := board.Add(AlertWarning, "first")
	sched.Advance(2 * time.Second)
	board.Add(AlertDanger, "second")

	active := board.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "second", active[0].Message)
	assert.Equal(t, "first", active[1].Message)

	sched.Advance(3 * time.Second)
	active = board.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)

	board.Dismiss(first)
	board.Dismiss(active[0].ID)
	assert.Empty(t, board.Active())

	sched.Advance(10 * time.Second)
	assert.Empty(t, board.Active())
	assert.Equal(t, 4, changes)
}

func TestNewResultView(t *testing.T) {
	tests := []struct {
		name   string
		result JobResult
		want   ResultView
	}{
		{
			name:   "success with message",
			result: JobResult{Success: true, Message: "ok", DownloadURL: "/download/x.pdf"},
			want:   ResultView{Success: true, Title: "Download Successful", Message: "ok", DownloadURL: "/download/x.pdf"},
		},
		{
			name:   "success fallback",
			result: JobResult{Success: true},
			want:   ResultView{Success: true, Title: "Download Successful", Message: "Cause list PDF downloaded successfully"},
		},
		{
			name:   "failure hides link",
			result: JobResult{Error: "boom", DownloadURL: "/download/x.pdf"},
			want:   ResultView{Title: "Download Failed", Message: "boom"},
		},
		{
			name:   "failure fallback",
			result: JobResult{},
			want:   ResultView{Title: "Download Failed", Message: "Failed to download PDF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewResultView(tt.result))
		})
	}
}
