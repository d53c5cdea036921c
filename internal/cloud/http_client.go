package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
)

const (
	// RequestIDHeader correlates agent logs with service logs.
	RequestIDHeader = "X-Clipcraft-Request-Id"

	maxErrorBodyBytes = 4096
	maxResponseBytes  = 8 << 20
)

// Endpoint names used in errors, logs and metrics.
const (
	EndpointSubmit      = "submit"
	EndpointStatus      = "status"
	EndpointResult      = "result"
	EndpointCancel      = "cancel"
	EndpointHealth      = "health"
	EndpointExportClip  = "export_clip"
	EndpointExportBatch = "export_batch"
	EndpointTimestamps  = "timestamps"
)

// RequestObserver is notified after every round-trip. code is 0 when the
// request failed before a response arrived.
type RequestObserver interface {
	ObserveRequest(endpoint string, code int, elapsed time.Duration)
}

// HTTPClient talks to the ClipCraft processing service over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	observer   RequestObserver
}

// NewHTTPClient builds a client for baseURL. timeout bounds every request,
// and a timeout surfaces as a transport error.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *HTTPClient) SetObserver(o RequestObserver) {
	c.observer = o
}

func (c *HTTPClient) SubmitJob(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	q := url.Values{}
	q.Set("youtube_url", req.SourceURL)
	q.Set("clip_count", strconv.Itoa(req.ClipCount))
	q.Set("use_ai_analysis", strconv.FormatBool(req.UseAIAnalysis))
	q.Set("analysis_mode", req.AnalysisMode)

	var resp SubmitResponse
	if err := c.do(ctx, EndpointSubmit, http.MethodPost, "/api/process-video", q, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.JobID == "" {
		return nil, &RejectedError{Endpoint: EndpointSubmit, Message: resp.Message}
	}

	c.logger.Info("job submitted",
		"job_id", resp.JobID,
		"status", resp.Status,
		"estimated_time", resp.EstimatedTime,
	)
	return &resp, nil
}

func (c *HTTPClient) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var resp JobStatus
	if err := c.do(ctx, EndpointStatus, http.MethodGet, "/api/status/"+url.PathEscape(jobID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) JobResult(ctx context.Context, jobID string) (*ResultPayload, error) {
	var resp ResultPayload
	if err := c.do(ctx, EndpointResult, http.MethodGet, "/api/result/"+url.PathEscape(jobID), nil, nil, &resp); err != nil {
		return nil, err
	}
	c.logger.Info("job result fetched", "job_id", jobID, "clip_count", len(resp.Clips))
	return &resp, nil
}

func (c *HTTPClient) CancelJob(ctx context.Context, jobID string) error {
	return c.do(ctx, EndpointCancel, http.MethodDelete, "/api/job/"+url.PathEscape(jobID), nil, nil, nil)
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, EndpointHealth, http.MethodGet, "/api/health", nil, nil, nil)
}

func (c *HTTPClient) ExportClip(ctx context.Context, req ClipExportRequest) (*ClipExportResponse, error) {
	if req.Format == "" {
		req.Format = DefaultExportFormat
	}
	var resp ClipExportResponse
	if err := c.do(ctx, EndpointExportClip, http.MethodPost, "/api/download-clip", nil, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.YouTubeURL == "" {
		return nil, &RejectedError{Endpoint: EndpointExportClip}
	}
	return &resp, nil
}

func (c *HTTPClient) ExportBatch(ctx context.Context, req BatchExportRequest) (*BatchExportResponse, error) {
	if req.Format == "" {
		req.Format = DefaultExportFormat
	}
	var resp BatchExportResponse
	if err := c.do(ctx, EndpointExportBatch, http.MethodPost, "/api/download-batch", nil, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &RejectedError{Endpoint: EndpointExportBatch}
	}
	return &resp, nil
}

func (c *HTTPClient) FormatTimestamps(ctx context.Context, videoID string, clips []catalog.Clip) (string, error) {
	q := url.Values{}
	q.Set("video_id", videoID)

	var resp TimestampsResponse
	if err := c.do(ctx, EndpointTimestamps, http.MethodPost, "/api/copy-timestamps", q, ClipsToPayload(clips), &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.TimestampText == "" {
		return "", &RejectedError{Endpoint: EndpointTimestamps}
	}
	return resp.TimestampText, nil
}

// do performs one JSON round-trip. in is encoded as the request body when
// non-nil and out is decoded from a 2xx response when non-nil.
func (c *HTTPClient) do(ctx context.Context, endpoint, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		c.logger.Debug("service request failed", "endpoint", endpoint, "request_id", requestID, "error", err)
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Warn("service returned error",
			"endpoint", endpoint,
			"request_id", requestID,
			"status", resp.StatusCode,
		)
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *HTTPClient) observe(endpoint string, code int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, code, elapsed)
	}
}
