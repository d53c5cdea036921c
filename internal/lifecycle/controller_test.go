package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
	"github.com/clipcraft/clipcraft-agent/internal/cloud"
	"github.com/clipcraft/clipcraft-agent/internal/ranking"
)

const (
	testURL      = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	testInterval = 5 * time.Millisecond
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeJobs struct {
	submitCalls atomic.Int32
	statusCalls atomic.Int32
	resultCalls atomic.Int32
	cancelCalls atomic.Int32

	submitFn func(ctx context.Context, req cloud.SubmitRequest) (*cloud.SubmitResponse, error)
	statusFn func(ctx context.Context, jobID string) (*cloud.JobStatus, error)
	resultFn func(ctx context.Context, jobID string) (*cloud.ResultPayload, error)

	mu       sync.Mutex
	statuses []cloud.JobStatus
}

func (f *fakeJobs) SubmitJob(ctx context.Context, req cloud.SubmitRequest) (*cloud.SubmitResponse, error) {
	f.submitCalls.Add(1)
	if f.submitFn != nil {
		return f.submitFn(ctx, req)
	}
	return &cloud.SubmitResponse{Success: true, JobID: "job-1", Status: cloud.StatusQueued, EstimatedTime: 60}, nil
}

func (f *fakeJobs) JobStatus(ctx context.Context, jobID string) (*cloud.JobStatus, error) {
	f.statusCalls.Add(1)
	if f.statusFn != nil {
		return f.statusFn(ctx, jobID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return &cloud.JobStatus{JobID: jobID, Status: cloud.StatusProcessing}, nil
	}
	st := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return &st, nil
}

func (f *fakeJobs) JobResult(ctx context.Context, jobID string) (*cloud.ResultPayload, error) {
	f.resultCalls.Add(1)
	if f.resultFn != nil {
		return f.resultFn(ctx, jobID)
	}
	return fiveClipResult(), nil
}

func (f *fakeJobs) CancelJob(ctx context.Context, jobID string) error {
	f.cancelCalls.Add(1)
	return nil
}

func score(v float64) *float64 { return &v }

func fiveClipResult() *cloud.ResultPayload {
	clip := func(id string, start, end, conf, motion, visual float64, typ string) cloud.ClipPayload {
		return cloud.ClipPayload{
			ClipID: id, Title: "Clip " + id, StartTime: start, EndTime: end, Confidence: conf, Type: typ,
			AIAnalysis: &cloud.AnalysisPayload{MotionScore: score(motion), VisualScore: score(visual)},
		}
	}
	return &cloud.ResultPayload{
		JobID:     "job-1",
		VideoInfo: cloud.VideoInfoPayload{Title: "Keynote", Duration: score(900), Views: score(5000), Uploader: "Conf"},
		Clips: []cloud.ClipPayload{
			clip("B", 0, 30, 0.5, 0.5, 0.5, "Balanced"),
			clip("A", 100, 145, 0.9, 0.8, 0.7, catalog.CategoryHighAction),
			clip("C", 200, 290, 0.3, 0.2, 0.2, "Steady"),
			clip("D", 300, 320, 0.2, 0.1, 0.1, "Steady"),
			clip("E", 400, 500, 0.4, 0.4, 0.4, "High Quality"),
		},
	}
}

func newTestController(f *fakeJobs) *Controller {
	return NewController(f, testInterval, nil, testLogger())
}

func waitTerminal(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := c.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func TestSubmit_InvalidSourceMakesNoCalls(t *testing.T) {
	f := &fakeJobs{}
	c := newTestController(f)

	for _, u := range []string{"", "not a url", "https://vimeo.com/123", "https://www.youtube.com/watch?v=short", "https://www.youtube.com/shorts/dQw4w9WgXcQ"} {
		_, err := c.Submit(context.Background(), u, DefaultOptions())
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "url %q", u)
		assert.Equal(t, KindValidation, verr.Kind())
		assert.ErrorIs(t, err, catalog.ErrInvalidSourceURL)
	}

	assert.Zero(t, f.submitCalls.Load())
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestSubmit_InvalidOptions(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"zero clips", Options{ClipCount: 0, AnalysisMode: ModeFast}, "clip_count"},
		{"too many clips", Options{ClipCount: 11, AnalysisMode: ModeFast}, "clip_count"},
		{"unknown mode", Options{ClipCount: 3, AnalysisMode: "turbo"}, "analysis_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeJobs{}
			_, err := newTestController(f).Submit(context.Background(), testURL, tt.opts)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, f.submitCalls.Load())
		})
	}
}

func TestController_EndToEnd(t *testing.T) {
	f := &fakeJobs{statuses: []cloud.JobStatus{
		{Status: cloud.StatusProcessing, Progress: 0, CurrentStep: "Downloading"},
		{Status: cloud.StatusProcessing, Progress: 40, CurrentStep: "Detecting scenes"},
		{Status: cloud.StatusCompleted, Progress: 100, CurrentStep: "Done"},
	}}
	c := newTestController(f)

	var mu sync.Mutex
	var progress []int
	var states []State
	c.OnChange(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s.State)
		if s.State == StatePolling && s.Job != nil && s.Job.Status != cloud.StatusQueued {
			progress = append(progress, s.Job.Progress)
		}
	})

	id, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	snap := waitTerminal(t, c)
	require.Equal(t, StateCompleted, snap.State)
	assert.True(t, snap.HasResult)
	assert.Empty(t, snap.ErrorMessage)
	assert.Equal(t, 100, snap.Job.Progress)
	assert.Equal(t, int32(1), f.resultCalls.Load(), "completed must trigger exactly one result fetch")

	mu.Lock()
	assert.Equal(t, []int{0, 40, 100}, progress)
	assert.Equal(t, StateSubmitting, states[0])
	assert.Equal(t, StateCompleted, states[len(states)-1])
	mu.Unlock()

	result, ok := c.Result()
	require.True(t, ok)
	require.Len(t, result.Clips, 5)
	assert.Equal(t, "dQw4w9WgXcQ", result.VideoID)
	assert.Equal(t, "Keynote", result.VideoInfo.Title)

	ranked := ranking.Rank(result.Clips)
	assert.Equal(t, "A", ranked[0].Clip.ID)
	assert.Equal(t, 1.0, ranked[0].Score)
	assert.Equal(t, "B", ranked[1].Clip.ID)
	assert.InDelta(t, 0.85, ranked[1].Score, 1e-9)

	time.Sleep(5 * testInterval)
	assert.Equal(t, int32(3), f.statusCalls.Load(), "polling must stop after completion")
}

func TestSubmit_FailureReturnsToIdle(t *testing.T) {
	t.Run("service message", func(t *testing.T) {
		f := &fakeJobs{submitFn: func(context.Context, cloud.SubmitRequest) (*cloud.SubmitResponse, error) {
			return nil, &cloud.APIError{StatusCode: 400, Body: `{"detail":"Invalid YouTube URL format"}`}
		}}
		c := newTestController(f)
		_, err := c.Submit(context.Background(), testURL, DefaultOptions())

		var serr *SubmissionError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "Invalid YouTube URL format", serr.Message)
		snap := c.Snapshot()
		assert.Equal(t, StateIdle, snap.State)
		assert.Equal(t, KindSubmission, snap.ErrorKind)
		assert.Nil(t, snap.Job)
	})

	t.Run("connectivity", func(t *testing.T) {
		f := &fakeJobs{submitFn: func(context.Context, cloud.SubmitRequest) (*cloud.SubmitResponse, error) {
			return nil, fmt.Errorf("http request failed: %w", errors.New("connection refused"))
		}}
		_, err := newTestController(f).Submit(context.Background(), testURL, DefaultOptions())
		var serr *SubmissionError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, msgConnectivity, serr.Message)
	})

	t.Run("rejected", func(t *testing.T) {
		f := &fakeJobs{submitFn: func(context.Context, cloud.SubmitRequest) (*cloud.SubmitResponse, error) {
			return nil, &cloud.RejectedError{Endpoint: cloud.EndpointSubmit, Message: "queue full"}
		}}
		_, err := newTestController(f).Submit(context.Background(), testURL, DefaultOptions())
		var serr *SubmissionError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "queue full", serr.Message)
	})
}

func TestPoll_ServerReportedFailure(t *testing.T) {
	for _, tc := range []struct {
		status, msg, want string
	}{
		{cloud.StatusFailed, "Video unavailable", "Video unavailable"},
		{cloud.StatusFailed, "", msgServerFailure},
		{cloud.StatusCancelled, "", msgServerFailure},
	} {
		f := &fakeJobs{statuses: []cloud.JobStatus{{Status: tc.status, ErrorMessage: tc.msg}}}
		c := newTestController(f)
		_, err := c.Submit(context.Background(), testURL, DefaultOptions())
		require.NoError(t, err)

		snap := waitTerminal(t, c)
		assert.Equal(t, StateFailed, snap.State)
		assert.Equal(t, KindServerFailure, snap.ErrorKind)
		assert.Equal(t, tc.want, snap.ErrorMessage)
		assert.Equal(t, tc.want, snap.Job.ErrorMessage)
		assert.Zero(t, f.resultCalls.Load())
		assert.False(t, snap.HasResult)
	}
}

func TestPoll_TransportErrorIsNotRetried(t *testing.T) {
	f := &fakeJobs{statusFn: func(context.Context, string) (*cloud.JobStatus, error) {
		return nil, errors.New("http request failed: timeout")
	}}
	c := newTestController(f)
	_, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)

	snap := waitTerminal(t, c)
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, KindPollTransport, snap.ErrorKind)

	var perr *PollTransportError
	require.ErrorAs(t, c.Err(), &perr)
	assert.Equal(t, "job-1", perr.JobID)

	time.Sleep(5 * testInterval)
	assert.Equal(t, int32(1), f.statusCalls.Load())
}

func TestResult_RetrievalFailures(t *testing.T) {
	tests := map[string]func(context.Context, string) (*cloud.ResultPayload, error){
		"transport": func(context.Context, string) (*cloud.ResultPayload, error) {
			return nil, errors.New("http request failed: EOF")
		},
		"invalid clip": func(context.Context, string) (*cloud.ResultPayload, error) {
			return &cloud.ResultPayload{Clips: []cloud.ClipPayload{{ClipID: "x", StartTime: 10, EndTime: 1}}}, nil
		},
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			f := &fakeJobs{
				statuses: []cloud.JobStatus{{Status: cloud.StatusCompleted, Progress: 100}},
				resultFn: fn,
			}
			c := newTestController(f)
			_, err := c.Submit(context.Background(), testURL, DefaultOptions())
			require.NoError(t, err)

			snap := waitTerminal(t, c)
			assert.Equal(t, StateFailed, snap.State)
			assert.Equal(t, KindResultRetrieval, snap.ErrorKind)
			assert.False(t, snap.HasResult)
			assert.Equal(t, int32(1), f.resultCalls.Load())
		})
	}
}

func TestReset_DropsLateStatus(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f := &fakeJobs{statusFn: func(context.Context, string) (*cloud.JobStatus, error) {
		once.Do(func() { close(entered) })
		<-release
		return &cloud.JobStatus{Status: cloud.StatusCompleted, Progress: 100}, nil
	}}
	c := newTestController(f)
	_, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)

	<-entered
	c.Reset()
	close(release)

	snap := waitTerminal(t, c)
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Job)
	assert.Zero(t, f.resultCalls.Load())
	assert.Eventually(t, func() bool { return f.cancelCalls.Load() == 1 }, time.Second, time.Millisecond)
}

func TestReset_DropsLateResult(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := &fakeJobs{
		statuses: []cloud.JobStatus{{Status: cloud.StatusCompleted, Progress: 100}},
		resultFn: func(context.Context, string) (*cloud.ResultPayload, error) {
			close(entered)
			<-release
			return fiveClipResult(), nil
		},
	}
	c := newTestController(f)
	_, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)

	<-entered
	c.Reset()
	close(release)

	snap := waitTerminal(t, c)
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.HasResult)
	_, ok := c.Result()
	assert.False(t, ok)
}

func TestReset_DuringSubmit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := &fakeJobs{submitFn: func(context.Context, cloud.SubmitRequest) (*cloud.SubmitResponse, error) {
		close(entered)
		<-release
		return &cloud.SubmitResponse{Success: true, JobID: "job-late"}, nil
	}}
	c := newTestController(f)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), testURL, DefaultOptions())
		errc <- err
	}()

	<-entered
	assert.Equal(t, StateSubmitting, c.Snapshot().State)
	c.Reset()
	close(release)

	err := <-errc
	assert.ErrorIs(t, err, ErrReset)
	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Eventually(t, func() bool { return f.cancelCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(5 * testInterval)
	assert.Zero(t, f.statusCalls.Load())
}

func TestSubmit_WhileActive(t *testing.T) {
	f := &fakeJobs{}
	c := newTestController(f)
	_, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)
	defer c.Reset()

	_, err = c.Submit(context.Background(), testURL, DefaultOptions())
	assert.ErrorIs(t, err, ErrJobActive)
	assert.Equal(t, int32(1), f.submitCalls.Load())
}

func TestSubmit_AfterCompletionReplacesJob(t *testing.T) {
	f := &fakeJobs{statuses: []cloud.JobStatus{{Status: cloud.StatusCompleted, Progress: 100}}}
	c := newTestController(f)
	_, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, StateCompleted, waitTerminal(t, c).State)

	f.submitFn = func(context.Context, cloud.SubmitRequest) (*cloud.SubmitResponse, error) {
		return &cloud.SubmitResponse{Success: true, JobID: "job-2"}, nil
	}
	id, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "job-2", id)

	snap := c.Snapshot()
	assert.Equal(t, StatePolling, snap.State)
	assert.False(t, snap.HasResult, "previous result must be discarded")
	c.Reset()
}

func TestReset_IdleIsSafe(t *testing.T) {
	f := &fakeJobs{}
	c := newTestController(f)
	assert.NotPanics(t, func() {
		c.Reset()
		c.Reset()
	})
	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Zero(t, f.cancelCalls.Load())
}

func TestPoll_NeverOverlaps(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	f := &fakeJobs{}
	f.statusFn = func(context.Context, string) (*cloud.JobStatus, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(6 * testInterval)
		if f.statusCalls.Load() >= 4 {
			return &cloud.JobStatus{Status: cloud.StatusCompleted, Progress: 100}, nil
		}
		return &cloud.JobStatus{Status: cloud.StatusProcessing, Progress: 50}, nil
	}
	c := newTestController(f)
	_, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)

	snap := waitTerminal(t, c)
	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, int32(1), maxInFlight.Load(), "status polls must not overlap")
	assert.Equal(t, int32(4), f.statusCalls.Load())
}

func TestOnChange_StaleSnapshotNotDeliveredAfterReset(t *testing.T) {
	f := &fakeJobs{statuses: []cloud.JobStatus{{Status: cloud.StatusProcessing, Progress: 40}}}
	c := newTestController(f)

	held := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	c.beforeNotify = func(s Snapshot) {
		if s.State == StatePolling && s.Job != nil && s.Job.Progress == 40 {
			once.Do(func() {
				close(held)
				<-release
			})
		}
	}

	var mu sync.Mutex
	var states []State
	c.OnChange(func(s Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	_, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)

	<-held
	c.Reset()
	close(release)
	waitTerminal(t, c)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.Equal(t, StateIdle, states[len(states)-1], "observer saw %v", states)
}

func TestSubmit_EstimatedRemainingWaitsForFirstPoll(t *testing.T) {
	remaining := 12.5
	f := &fakeJobs{statuses: []cloud.JobStatus{
		{Status: cloud.StatusProcessing, Progress: 10, EstimatedRemaining: &remaining},
		{Status: cloud.StatusCompleted, Progress: 100},
	}}
	c := NewController(f, time.Hour, nil, testLogger())

	_, err := c.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)
	defer c.Reset()

	snap := c.Snapshot()
	require.NotNil(t, snap.Job)
	assert.Nil(t, snap.Job.EstimatedRemaining, "submit's total estimate is not a remaining time")

	c2 := newTestController(&fakeJobs{statuses: []cloud.JobStatus{
		{Status: cloud.StatusProcessing, Progress: 10, EstimatedRemaining: &remaining},
	}})
	_, err = c2.Submit(context.Background(), testURL, DefaultOptions())
	require.NoError(t, err)
	defer c2.Reset()
	assert.Eventually(t, func() bool {
		j := c2.Snapshot().Job
		return j != nil && j.EstimatedRemaining != nil && *j.EstimatedRemaining == 12.5
	}, time.Second, time.Millisecond)
}
