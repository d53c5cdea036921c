package cloud

// Job statuses reported by GET /api/status/{job_id}.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// DefaultExportFormat is the container the service suggests for exports.
const DefaultExportFormat = "mp4"

// SubmitRequest carries the query parameters of POST /api/process-video.
type SubmitRequest struct {
	SourceURL     string
	ClipCount     int
	UseAIAnalysis bool
	AnalysisMode  string
}

// SubmitResponse is the response from POST /api/process-video.
type SubmitResponse struct {
	Success        bool     `json:"success"`
	JobID          string   `json:"job_id"`
	Message        string   `json:"message"`
	Status         string   `json:"status"`
	EstimatedTime  float64  `json:"estimated_time"`
	AIFeatures     []string `json:"ai_features"`
	ProcessingMode string   `json:"processing_mode,omitempty"`
}

// JobStatus is the response from GET /api/status/{job_id}.
type JobStatus struct {
	JobID              string   `json:"job_id"`
	Status             string   `json:"status"`
	Progress           int      `json:"progress"`
	CurrentStep        string   `json:"current_step"`
	EstimatedRemaining *float64 `json:"estimated_remaining,omitempty"`
	AIFeaturesEnabled  []string `json:"ai_features_enabled,omitempty"`
	ErrorMessage       string   `json:"error_message,omitempty"`
}

// Terminal reports whether the status ends polling.
func (s *JobStatus) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ResultPayload is the response from GET /api/result/{job_id}. Only the
// fields the agent consumes are decoded.
type ResultPayload struct {
	JobID     string           `json:"job_id"`
	VideoInfo VideoInfoPayload `json:"video_info"`
	Clips     []ClipPayload    `json:"clips"`
}

// VideoInfoPayload is the raw video_info block. Older service builds send
// view_count and channel instead of views and uploader.
type VideoInfoPayload struct {
	Title     string   `json:"title"`
	Duration  *float64 `json:"duration,omitempty"`
	Views     *float64 `json:"views,omitempty"`
	ViewCount *float64 `json:"view_count,omitempty"`
	Uploader  string   `json:"uploader,omitempty"`
	Channel   string   `json:"channel,omitempty"`
}

// ClipPayload is one clip as the service serializes it. The same shape is
// sent back on the export endpoints.
type ClipPayload struct {
	ClipID     string           `json:"clip_id"`
	Title      string           `json:"title"`
	StartTime  float64          `json:"start_time"`
	EndTime    float64          `json:"end_time"`
	Duration   float64          `json:"duration"`
	Confidence float64          `json:"confidence"`
	Type       string           `json:"type,omitempty"`
	AIAnalysis *AnalysisPayload `json:"ai_analysis,omitempty"`
}

// AnalysisPayload holds the numeric signals of ai_analysis. The service also
// puts descriptive strings in that object; those are ignored.
type AnalysisPayload struct {
	MotionScore *float64 `json:"motion_score,omitempty"`
	VisualScore *float64 `json:"visual_score,omitempty"`
}

// ClipExportRequest is the request body for POST /api/download-clip.
type ClipExportRequest struct {
	VideoID   string  `json:"video_id"`
	ClipID    string  `json:"clip_id"`
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Format    string  `json:"format"`
}

// ClipExportResponse is the response from POST /api/download-clip.
type ClipExportResponse struct {
	Success           bool              `json:"success"`
	ClipID            string            `json:"clip_id"`
	YouTubeURL        string            `json:"youtube_url"`
	SuggestedFilename string            `json:"suggested_filename"`
	Instructions      map[string]string `json:"instructions"`
}

// BatchExportRequest is the request body for POST /api/download-batch.
type BatchExportRequest struct {
	VideoID string        `json:"video_id"`
	Clips   []ClipPayload `json:"clips"`
	Format  string        `json:"format"`
}

// BatchExportItem is one clip link in a batch export response.
type BatchExportItem struct {
	ClipID     string  `json:"clip_id"`
	Title      string  `json:"title"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	YouTubeURL string  `json:"youtube_url"`
}

// BatchExportResponse is the response from POST /api/download-batch.
type BatchExportResponse struct {
	Success      bool              `json:"success"`
	BatchID      string            `json:"batch_id"`
	TotalClips   int               `json:"total_clips"`
	Clips        []BatchExportItem `json:"clips"`
	DownloadTips []string          `json:"download_tips"`
}

// TimestampsResponse is the response from POST /api/copy-timestamps.
type TimestampsResponse struct {
	Success       bool   `json:"success"`
	TotalClips    int    `json:"total_clips"`
	TimestampText string `json:"timestamp_text"`
}
