package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
	"github.com/cuongbtq/ecourts-causelist/internal/worker/domain"
)

const testJobID = "7b0c1f6e-3a52-4a8e-9c1d-2f5d8e6a4b10"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJob() *domain.Job {
	return &domain.Job{
		JobID:        testJobID,
		State:        "Delhi",
		District:     "North",
		CourtComplex: "Tis Hazari",
		CourtName:    causelist.AllCourts,
		CauseDate:    "05-03-2025",
	}
}

type fakeStore struct {
	mu          sync.Mutex
	claimErr    error
	completeErr error
	failErr     error
	claimed     []string
	steps       []string
	completed   map[string]causelist.JobResult
	failed      map[string]string

	staleSweeps     []time.Duration
	unclaimedSweeps []time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		completed: map[string]causelist.JobResult{},
		failed:    map[string]string{},
	}
}

func (s *fakeStore) ClaimJob(_ context.Context, jobID, _ string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	s.claimed = append(s.claimed, jobID)
	job := testJob()
	job.JobID = jobID
	return job, nil
}

func (s *fakeStore) UpdateStep(_ context.Context, _, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
	return nil
}

func (s *fakeStore) UpdateJobHeartbeat(context.Context, string) error { return nil }

func (s *fakeStore) CompleteJob(_ context.Context, jobID string, result causelist.JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completed[jobID] = result
	return nil
}

func (s *fakeStore) FailJob(_ context.Context, jobID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.failed[jobID] = message
	return nil
}

func (s *fakeStore) FailStaleJobs(_ context.Context, staleAfter time.Duration, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleSweeps = append(s.staleSweeps, staleAfter)
	return 0, nil
}

func (s *fakeStore) FailUnclaimedJobs(_ context.Context, pendingAfter time.Duration, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unclaimedSweeps = append(s.unclaimedSweeps, pendingAfter)
	return 0, nil
}

type renderFunc func(ctx context.Context, job *domain.Job) (string, error)

func (f renderFunc) Render(ctx context.Context, job *domain.Job) (string, error) {
	return f(ctx, job)
}

type fakeQueue struct {
	mu         sync.Mutex
	deliveries chan amqp.Delivery
	acked      []uint64
	nacked     map[uint64]bool
}

func newFakeQueue(bodies ...string) *fakeQueue {
	q := &fakeQueue{
		deliveries: make(chan amqp.Delivery, len(bodies)),
		nacked:     map[uint64]bool{},
	}
	for i, body := range bodies {
		q.deliveries <- amqp.Delivery{Body: []byte(body), DeliveryTag: uint64(i + 1)}
	}
	close(q.deliveries)
	return q
}

func (q *fakeQueue) Consume(string) (<-chan amqp.Delivery, error) {
	return q.deliveries, nil
}

func (q *fakeQueue) Ack(tag uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, tag)
	return nil
}

func (q *fakeQueue) Nack(tag uint64, requeue bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nacked[tag] = requeue
	return nil
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		job  *domain.Job
		want string
	}{
		{
			name: "plain",
			job:  testJob(),
			want: "causelist_Delhi_North_Tis Hazari_05_03_2025.pdf",
		},
		{
			name: "separators replaced",
			job: &domain.Job{
				State:        "Delhi",
				District:     "New/Delhi",
				CourtComplex: `Patiala\House`,
				CauseDate:    "01-01-2025",
			},
			want: "causelist_Delhi_New-Delhi_Patiala-House_01_01_2025.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.job))
		})
	}
}

func TestRenderer_Render(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	r := NewRenderer(dir)
	r.now = func() time.Time { return time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC) }

	name, err := r.Render(context.Background(), testJob())
	require.NoError(t, err)
	assert.Equal(t, FileName(testJob()), name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed into place")
}

func TestRenderer_RenderCanceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRenderer(dir).Render(ctx, testJob())
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "valid", body: `{"job_id":"` + testJobID + `"}`, want: testJobID},
		{name: "not json", body: `job`, wantErr: true},
		{name: "missing id", body: `{}`, wantErr: true},
		{name: "not a uuid", body: `{"job_id":"42"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMessage([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldRequeueJob(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "retryable", err: domain.NewRetryableError(errors.New("db down")), want: true},
		{name: "already claimed", err: domain.ErrJobAlreadyClaimed, want: false},
		{name: "invalid payload", err: domain.ErrInvalidPayload, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRequeueJob(tt.err))
		})
	}
}

func TestWorker_ProcessJob(t *testing.T) {
	tests := []struct {
		name        string
		claimErr    error
		render      renderFunc
		timeout     time.Duration
		wantErr     error
		wantRequeue bool
		wantResult  *causelist.JobResult
		wantFailure string
	}{
		{
			name: "success",
			render: func(_ context.Context, job *domain.Job) (string, error) {
				return "causelist_Delhi_North_Tis Hazari_05_03_2025.pdf", nil
			},
			wantResult: &causelist.JobResult{
				Success:     true,
				Message:     "Cause list downloaded successfully for Tis Hazari",
				Filename:    "causelist_Delhi_North_Tis Hazari_05_03_2025.pdf",
				DownloadURL: "/download/causelist_Delhi_North_Tis%20Hazari_05_03_2025.pdf",
			},
		},
		{
			name: "render error",
			render: func(context.Context, *domain.Job) (string, error) {
				return "", errors.New("disk full")
			},
			wantResult: &causelist.JobResult{
				Success: false,
				Error:   "Download failed: disk full",
			},
		},
		{
			name:    "timeout",
			timeout: 20 * time.Millisecond,
			render: func(ctx context.Context, _ *domain.Job) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			wantFailure: "Download failed: job timed out",
		},
		{
			name:     "already claimed",
			claimErr: domain.ErrJobAlreadyClaimed,
			wantErr:  domain.ErrJobAlreadyClaimed,
		},
		{
			name:        "claim error",
			claimErr:    errors.New("connection reset"),
			wantRequeue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.claimErr = tt.claimErr

			w := NewWorker(&Config{
				Logger:     discardLogger(),
				Store:      store,
				Queue:      newFakeQueue(),
				Renderer:   tt.render,
				JobTimeout: tt.timeout,
			})

			err := w.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, shouldRequeueJob(err))
				return
			case tt.wantRequeue:
				require.Error(t, err)
				assert.True(t, shouldRequeueJob(err))
				return
			}

			require.NoError(t, err)
			if tt.wantResult != nil {
				assert.Equal(t, *tt.wantResult, store.completed[testJobID])
				assert.Empty(t, store.failed)
			}
			if tt.wantFailure != "" {
				assert.Equal(t, tt.wantFailure, store.failed[testJobID])
				assert.Empty(t, store.completed)
			}
		})
	}
}

func TestWorker_ProcessJobSteps(t *testing.T) {
	store := newFakeStore()
	w := NewWorker(&Config{
		Logger: discardLogger(),
		Store:  store,
		Queue:  newFakeQueue(),
		Renderer: renderFunc(func(context.Context, *domain.Job) (string, error) {
			return "x.pdf", nil
		}),
	})

	require.NoError(t, w.processJob(context.Background(), &domain.JobMessage{JobID: testJobID}))
	assert.Equal(t, []string{
		domain.StepConnecting,
		domain.StepRendering,
		domain.StepSaving,
	}, store.steps)
}

func TestWorker_Start(t *testing.T) {
	const otherJobID = "0d6f7c2a-51b4-4f0e-8a3b-6c9e2d1f4a77"

	store := newFakeStore()
	queue := newFakeQueue(
		`{"job_id":"`+testJobID+`"}`,
		`not json`,
		`{"job_id":"`+otherJobID+`"}`,
	)
	w := NewWorker(&Config{
		Logger:      discardLogger(),
		Store:       store,
		Queue:       queue,
		Renderer:    NewRenderer(t.TempDir()),
		Concurrency: 2,
		JobTimeout:  5 * time.Second,
	})

	require.NoError(t, w.Start(context.Background()))

	assert.ElementsMatch(t, []uint64{1, 3}, queue.acked)
	assert.Equal(t, map[uint64]bool{2: false}, queue.nacked)
	assert.ElementsMatch(t, []string{testJobID, otherJobID}, store.claimed)
	assert.True(t, store.completed[testJobID].Success)
	assert.True(t, store.completed[otherJobID].Success)
	assert.NotEmpty(t, store.staleSweeps, "stale jobs are swept on start")
}

func TestWorker_ID(t *testing.T) {
	a := NewWorker(&Config{Logger: discardLogger()})
	b := NewWorker(&Config{Logger: discardLogger()})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func okRenderer() renderFunc {
	return func(context.Context, *domain.Job) (string, error) {
		return "x.pdf", nil
	}
}

func TestWorker_ProcessJobResultNotRecorded(t *testing.T) {
	tests := []struct {
		name        string
		failErr     error
		wantErr     bool
		wantFailure string
	}{
		{
			name:        "job failed instead",
			wantFailure: "Download failed: connection reset",
		},
		{
			name:    "failure not recorded either",
			failErr: errors.New("connection reset"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.completeErr = errors.New("connection reset")
			store.failErr = tt.failErr
			w := NewWorker(&Config{
				Logger:   discardLogger(),
				Store:    store,
				Queue:    newFakeQueue(),
				Renderer: okRenderer(),
			})

			err := w.processJob(context.Background(), &domain.JobMessage{JobID: testJobID})

			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, shouldRequeueJob(err))
				assert.Empty(t, store.failed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFailure, store.failed[testJobID])
		})
	}
}

func TestWorker_ClaimAttemptsCapped(t *testing.T) {
	store := newFakeStore()
	store.claimErr = errors.New("connection refused")
	w := NewWorker(&Config{
		Logger:           discardLogger(),
		Store:            store,
		Queue:            newFakeQueue(),
		Renderer:         okRenderer(),
		MaxClaimAttempts: 3,
	})
	msg := &domain.JobMessage{JobID: testJobID}

	for i := 1; i < 3; i++ {
		err := w.processJob(context.Background(), msg)
		assert.True(t, shouldRequeueJob(err), "attempt %d", i)
	}

	err := w.processJob(context.Background(), msg)
	assert.ErrorIs(t, err, domain.ErrMaxRetriesExceeded)
	assert.False(t, shouldRequeueJob(err))

	// The count starts over for a later delivery of the same job.
	assert.True(t, shouldRequeueJob(w.processJob(context.Background(), msg)))

	store.claimErr = nil
	require.NoError(t, w.processJob(context.Background(), msg))
	assert.Empty(t, w.claimFailures.counts)
}

func TestWorker_Sweep(t *testing.T) {
	tests := []struct {
		name          string
		staleAfter    time.Duration
		pending       time.Duration
		wantStale     time.Duration
		wantUnclaimed []time.Duration
	}{
		{
			name:      "defaults to three heartbeats",
			wantStale: 30 * time.Second,
		},
		{
			name:          "configured",
			staleAfter:    time.Minute,
			pending:       15 * time.Minute,
			wantStale:     time.Minute,
			wantUnclaimed: []time.Duration{15 * time.Minute},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			w := NewWorker(&Config{
				Logger:            discardLogger(),
				Store:             store,
				HeartbeatInterval: 10 * time.Second,
				StaleAfter:        tt.staleAfter,
				PendingTimeout:    tt.pending,
			})

			w.sweep(context.Background())

			assert.Equal(t, []time.Duration{tt.wantStale}, store.staleSweeps)
			assert.Equal(t, tt.wantUnclaimed, store.unclaimedSweeps)
		})
	}
}
