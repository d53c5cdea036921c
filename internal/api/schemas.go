package api

import (
	"github.com/clipcraft/clipcraft-agent/internal/catalog"
	"github.com/clipcraft/clipcraft-agent/internal/lifecycle"
	"github.com/clipcraft/clipcraft-agent/internal/ranking"
)

type HealthResponse struct {
	Status   string          `json:"status"`
	Version  string          `json:"version"`
	UptimeS  int64           `json:"uptime_s"`
	JobState lifecycle.State `json:"job_state"`
}

// SubmitJobRequest is the body of POST /job. Omitted options take the
// service defaults.
type SubmitJobRequest struct {
	SourceURL     string `json:"source_url" validate:"required"`
	ClipCount     *int   `json:"clip_count,omitempty"`
	UseAIAnalysis *bool  `json:"use_ai_analysis,omitempty"`
	AnalysisMode  string `json:"analysis_mode,omitempty"`
}

// Options merges the request over lifecycle.DefaultOptions.
func (r SubmitJobRequest) Options() lifecycle.Options {
	opts := lifecycle.DefaultOptions()
	if r.ClipCount != nil {
		opts.ClipCount = *r.ClipCount
	}
	if r.UseAIAnalysis != nil {
		opts.UseAIAnalysis = *r.UseAIAnalysis
	}
	if r.AnalysisMode != "" {
		opts.AnalysisMode = r.AnalysisMode
	}
	return opts
}

type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

// ClipResponse is a clip with its derived ranking fields.
type ClipResponse struct {
	catalog.Clip
	URL            string  `json:"url"`
	ViralPotential float64 `json:"viral_potential"`
	Notable        bool    `json:"notable"`
}

type ResultResponse struct {
	VideoID   string            `json:"video_id"`
	VideoURL  string            `json:"video_url"`
	VideoInfo catalog.VideoInfo `json:"video_info"`
	Clips     []ClipResponse    `json:"clips"`
}

type RecommendationsResponse struct {
	ShortForm         []ClipResponse `json:"short_form"`
	HighestEngagement []ClipResponse `json:"highest_engagement"`
}

// ClipSelection picks clips for an export. Empty means every clip.
type ClipSelection struct {
	ClipIDs []string `json:"clip_ids,omitempty" validate:"omitempty,dive,required"`
}

type EDLExportRequest struct {
	ClipSelection
	ProjectName string  `json:"project_name" validate:"max=200"`
	FrameRate   float64 `json:"frame_rate" validate:"omitempty,gt=0,lte=120"`
	OutputDir   string  `json:"output_dir" validate:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ClipToResponse(videoID string, s ranking.ScoredClip) ClipResponse {
	return ClipResponse{
		Clip:           s.Clip,
		URL:            catalog.ClipURL(videoID, s.Clip.StartTime),
		ViralPotential: s.Score,
		Notable:        s.Notable,
	}
}

func ClipsToResponse(videoID string, scored []ranking.ScoredClip) []ClipResponse {
	out := make([]ClipResponse, len(scored))
	for i, s := range scored {
		out[i] = ClipToResponse(videoID, s)
	}
	return out
}

func ResultToResponse(r *catalog.Result) ResultResponse {
	return ResultResponse{
		VideoID:   r.VideoID,
		VideoURL:  catalog.WatchURL(r.VideoID),
		VideoInfo: r.VideoInfo,
		Clips:     ClipsToResponse(r.VideoID, ranking.Score(r.Clips)),
	}
}
