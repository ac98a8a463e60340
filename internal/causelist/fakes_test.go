package causelist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var errNetwork = errors.New("connection refused")

type statusReply struct {
	status *JobStatus
	err    error
}

type fakeAPI struct {
	hierarchy    map[string][]string
	hierarchyErr map[string]error
	startErr     error
	replies      []statusReply

	hierarchyCalls []string
	startCalls     []JobRequest
	statusCalls    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		hierarchy:    map[string][]string{},
		hierarchyErr: map[string]error{},
	}
}

func hierarchyKey(level Level, parents []string) string {
	return level.String() + ":" + strings.Join(parents, "/")
}

func (f *fakeAPI) on(level Level, parents []string, names ...string) {
	f.hierarchy[hierarchyKey(level, parents)] = names
}

func (f *fakeAPI) fail(level Level, parents []string, err error) {
	f.hierarchyErr[hierarchyKey(level, parents)] = err
}

func (f *fakeAPI) Hierarchy(_ context.Context, level Level, parents []string) ([]string, error) {
	key := hierarchyKey(level, parents)
	f.hierarchyCalls = append(f.hierarchyCalls, key)
	if err, ok := f.hierarchyErr[key]; ok {
		return nil, err
	}
	names, ok := f.hierarchy[key]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", key)
	}
	return names, nil
}

func (f *fakeAPI) StartJob(_ context.Context, req JobRequest) error {
	f.startCalls = append(f.startCalls, req)
	return f.startErr
}

func (f *fakeAPI) Status(_ context.Context) (*JobStatus, error) {
	f.statusCalls++
	if len(f.replies) == 0 {
		return &JobStatus{Status: StatusRunning, Message: "Working..."}, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.status, r.err
}

func (f *fakeAPI) queue(replies ...statusReply) {
	f.replies = append(f.replies, replies...)
}

func running(msg string) statusReply {
	return statusReply{status: &JobStatus{Status: StatusRunning, Message: msg}}
}

func completed(result JobResult) statusReply {
	return statusReply{status: &JobStatus{Status: StatusCompleted, Message: "done", Data: &result}}
}

func failed(msg string) statusReply {
	return statusReply{status: &JobStatus{Status: StatusError, Message: msg}}
}

func (f *fakeAPI) networkCalls() int {
	return len(f.hierarchyCalls) + len(f.startCalls) + f.statusCalls
}

type alertRecord struct {
	level   AlertLevel
	message string
}

type recordingPresenter struct {
	fields        [4]Field
	loading       []string
	loadingDepth  int
	submitEnabled bool

	progressVisible bool
	percents        []int
	progressMessage string

	results []ResultView
	alerts  []alertRecord
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{submitEnabled: true}
}

func (p *recordingPresenter) ShowLoading(message string) {
	p.loading = append(p.loading, message)
	p.loadingDepth++
}

func (p *recordingPresenter) HideLoading() {
	p.loadingDepth--
}

func (p *recordingPresenter) RenderField(level Level, field Field) {
	p.fields[level] = field
}

func (p *recordingPresenter) SetSubmitEnabled(enabled bool) {
	p.submitEnabled = enabled
}

func (p *recordingPresenter) ShowProgress() {
	p.progressVisible = true
}

func (p *recordingPresenter) UpdateProgress(percent int, message string) {
	p.percents = append(p.percents, percent)
	p.progressMessage = message
}

func (p *recordingPresenter) HideProgress() {
	p.progressVisible = false
}

func (p *recordingPresenter) ShowResult(view ResultView) {
	p.results = append(p.results, view)
}

func (p *recordingPresenter) Alert(level AlertLevel, message string) {
	p.alerts = append(p.alerts, alertRecord{level: level, message: message})
}

func (p *recordingPresenter) lastAlert() alertRecord {
	if len(p.alerts) == 0 {
		return alertRecord{}
	}
	return p.alerts[len(p.alerts)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
