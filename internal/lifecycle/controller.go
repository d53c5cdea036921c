// Package lifecycle drives one processing job at a time through submission,
// status polling and result retrieval.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
	"github.com/clipcraft/clipcraft-agent/internal/cloud"
	"github.com/clipcraft/clipcraft-agent/internal/logging"
	"github.com/clipcraft/clipcraft-agent/internal/metrics"
)

const (
	DefaultPollInterval = 2 * time.Second

	cancelTimeout = 10 * time.Second
)

// Controller owns the state machine idle → submitting → polling →
// completed | failed. Every Submit and Reset bumps a generation counter and
// responses belonging to an older generation are discarded.
type Controller struct {
	client       cloud.JobService
	metrics      *metrics.Metrics
	logger       *slog.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	gen      uint64
	state    State
	job      *Job
	result   *catalog.Result
	err      error
	cancel   context.CancelFunc
	done     chan struct{}
	onChange func(Snapshot)
	seq      uint64

	// notifyMu orders observer calls; delivered is the seq of the last
	// snapshot handed out.
	notifyMu  sync.Mutex
	delivered uint64

	beforeNotify func(Snapshot)
}

func NewController(client cloud.JobService, pollInterval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Controller {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Controller{
		client:       client,
		metrics:      m,
		logger:       logging.WithComponent(logger, "lifecycle"),
		pollInterval: pollInterval,
		state:        StateIdle,
	}
}

// OnChange registers fn to receive a snapshot after every state change. fn
// runs on the goroutine that made the change and must not block or call
// Submit or Reset. Snapshots reach fn in state-change order; one overtaken by
// a newer change is skipped.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Submit validates the request, submits it and starts polling. It returns
// the server-assigned job id.
func (c *Controller) Submit(ctx context.Context, sourceURL string, opts Options) (string, error) {
	videoID, err := catalog.ParseSourceURL(sourceURL)
	if err != nil {
		return "", &ValidationError{Field: "source_url", Message: "must be a valid YouTube URL", Err: err}
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.state.Active() {
		c.mu.Unlock()
		return "", ErrJobActive
	}
	c.stopLocked()
	c.gen++
	gen := c.gen
	c.state = StateSubmitting
	c.job, c.result, c.err = nil, nil, nil
	c.notifyUnlock()

	resp, err := c.client.SubmitJob(ctx, cloud.SubmitRequest{
		SourceURL:     sourceURL,
		ClipCount:     opts.ClipCount,
		UseAIAnalysis: opts.UseAIAnalysis,
		AnalysisMode:  opts.AnalysisMode,
	})

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.metrics.JobSubmitted(metrics.OutcomeDropped)
		if err == nil {
			c.logger.Info("dropping job submitted before reset", "job_id", resp.JobID)
			go c.cancelRemote(resp.JobID)
		}
		return "", &SubmissionError{Message: "submission was cancelled", Err: ErrReset}
	}

	if err != nil {
		subErr := &SubmissionError{Message: serviceMessage(err, msgConnectivity), Err: err}
		c.state = StateIdle
		c.err = subErr
		c.notifyUnlock()
		c.metrics.JobSubmitted(metrics.OutcomeFailure)
		c.logger.Warn("job submission failed", "video_id", videoID, "error", err)
		return "", subErr
	}

	// estimated_time is the total estimate; remaining time arrives with the
	// first status poll.
	c.job = &Job{
		ID:          resp.JobID,
		VideoID:     videoID,
		Status:      resp.Status,
		CurrentStep: resp.Message,
		Features:    resp.AIFeatures,
	}
	c.state = StatePolling

	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	go c.pollLoop(pollCtx, cancel, done, gen, resp.JobID, videoID)
	c.notifyUnlock()

	c.metrics.JobSubmitted(metrics.OutcomeSuccess)
	logging.WithJobID(c.logger, resp.JobID).Info("polling job", "video_id", videoID, "interval", c.pollInterval)
	return resp.JobID, nil
}

// Reset cancels any polling, discards the job and result and returns to
// idle. A job still running on the service is cancelled best-effort.
func (c *Controller) Reset() {
	c.mu.Lock()
	var remote string
	if c.state == StatePolling && c.job != nil {
		remote = c.job.ID
	}
	c.stopLocked()
	c.gen++
	c.state = StateIdle
	c.job, c.result, c.err = nil, nil, nil
	c.notifyUnlock()

	if remote != "" {
		go c.cancelRemote(remote)
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Result returns the result of the completed job.
func (c *Controller) Result() (*catalog.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.result != nil
}

// Err returns the error behind the failed state, or the last submission
// failure while idle.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Wait blocks until the current poll loop exits or ctx is done.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
	return c.Snapshot(), nil
}

func (c *Controller) pollLoop(ctx context.Context, cancel context.CancelFunc, done chan struct{}, gen uint64, jobID, videoID string) {
	defer close(done)
	defer cancel()

	logger := logging.WithJobID(c.logger, jobID)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("poll loop stopped")
			return
		case <-ticker.C:
			if c.pollOnce(ctx, gen, jobID, videoID, logger) {
				return
			}
		}
	}
}

// pollOnce runs one status round-trip and reports whether polling is over.
func (c *Controller) pollOnce(ctx context.Context, gen uint64, jobID, videoID string, logger *slog.Logger) bool {
	st, err := c.client.JobStatus(ctx, jobID)

	c.mu.Lock()
	if !c.currentLocked(gen) {
		c.mu.Unlock()
		c.metrics.Poll(metrics.OutcomeDropped)
		return true
	}

	if err != nil {
		c.failLocked(&PollTransportError{JobID: jobID, Err: err})
		c.notifyUnlock()
		c.metrics.Poll(metrics.OutcomeFailure)
		logger.Warn("status poll failed", "error", err)
		return true
	}
	c.metrics.Poll(metrics.OutcomeSuccess)

	c.job.Status = st.Status
	c.job.Progress = st.Progress
	c.job.CurrentStep = st.CurrentStep
	c.job.EstimatedRemaining = st.EstimatedRemaining
	if st.AIFeaturesEnabled != nil {
		c.job.Features = st.AIFeaturesEnabled
	}

	switch st.Status {
	case cloud.StatusCompleted:
		c.notifyUnlock()
		c.fetchResult(ctx, gen, jobID, videoID, logger)
		return true

	case cloud.StatusFailed, cloud.StatusCancelled:
		msg := st.ErrorMessage
		if msg == "" {
			msg = msgServerFailure
		}
		c.failLocked(&ServerReportedFailure{JobID: jobID, Status: st.Status, Message: msg})
		c.notifyUnlock()
		logger.Warn("job failed on server", "status", st.Status, "error_message", msg)
		return true
	}

	c.notifyUnlock()
	logger.Debug("job progress", "status", st.Status, "progress", st.Progress, "step", st.CurrentStep)
	return false
}

func (c *Controller) fetchResult(ctx context.Context, gen uint64, jobID, videoID string, logger *slog.Logger) {
	var result *catalog.Result
	payload, err := c.client.JobResult(ctx, jobID)
	if err == nil {
		result, err = payload.ToResult(videoID)
	}

	c.mu.Lock()
	if !c.currentLocked(gen) {
		c.mu.Unlock()
		logger.Debug("dropping result fetched after reset")
		return
	}
	if err != nil {
		c.failLocked(&ResultRetrievalError{JobID: jobID, Err: err})
		c.notifyUnlock()
		logger.Warn("result retrieval failed", "error", err)
		return
	}

	c.result = result
	c.state = StateCompleted
	c.metrics.JobTerminal(string(StateCompleted))
	c.notifyUnlock()
	logger.Info("job completed", "clip_count", len(result.Clips), "title", result.VideoInfo.Title)
}

func (c *Controller) cancelRemote(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if err := c.client.CancelJob(ctx, jobID); err != nil {
		var apiErr *cloud.APIError
		if errors.As(err, &apiErr) {
			logging.WithJobID(c.logger, jobID).Debug("remote cancel rejected", "status", apiErr.StatusCode, "detail", apiErr.Detail())
			return
		}
		logging.WithJobID(c.logger, jobID).Warn("remote cancel failed", "error", err)
	}
}

func (c *Controller) currentLocked(gen uint64) bool {
	return gen == c.gen && c.state == StatePolling
}

func (c *Controller) failLocked(err Kinded) {
	c.state = StateFailed
	c.err = err
	if c.job != nil {
		c.job.ErrorMessage = err.Error()
	}
	c.metrics.JobTerminal(string(StateFailed))
}

func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     c.state,
		Job:       c.job.clone(),
		HasResult: c.result != nil,
	}
	if c.err != nil {
		s.ErrorMessage = c.err.Error()
		var k Kinded
		if errors.As(c.err, &k) {
			s.ErrorKind = k.Kind()
		}
	}
	return s
}

// notifyUnlock releases c.mu and hands the observer a snapshot taken under
// the lock, unless a later snapshot was already delivered.
func (c *Controller) notifyUnlock() {
	c.seq++
	seq := c.seq
	snap := c.snapshotLocked()
	fn := c.onChange
	hook := c.beforeNotify
	c.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	if fn == nil {
		return
	}

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if seq <= c.delivered {
		return
	}
	c.delivered = seq
	fn(snap)
}
