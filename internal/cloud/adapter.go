package cloud

import (
	"fmt"
	"math"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
)

const (
	unknownTitle    = "Unknown Video"
	unknownUploader = "Unknown"
)

// VideoInfoFromPayload builds VideoInfo from the raw video_info block.
//
// Precedence: views, then view_count; uploader, then channel. An empty title
// becomes "Unknown Video" and an empty uploader "Unknown". Negative or
// missing numbers become zero.
func VideoInfoFromPayload(p VideoInfoPayload) catalog.VideoInfo {
	info := catalog.VideoInfo{
		Title:    p.Title,
		Uploader: p.Uploader,
	}
	if info.Title == "" {
		info.Title = unknownTitle
	}
	if info.Uploader == "" {
		info.Uploader = p.Channel
	}
	if info.Uploader == "" {
		info.Uploader = unknownUploader
	}

	if p.Duration != nil && *p.Duration > 0 {
		info.Duration = *p.Duration
	}

	views := p.Views
	if views == nil {
		views = p.ViewCount
	}
	if views != nil && *views > 0 {
		info.Views = int64(math.Round(*views))
	}
	return info
}

// ClipFromPayload converts a wire clip into a catalog clip. Duration is
// always recomputed from the bounds.
func ClipFromPayload(p ClipPayload) catalog.Clip {
	c := catalog.Clip{
		ID:         p.ClipID,
		Title:      p.Title,
		StartTime:  p.StartTime,
		EndTime:    p.EndTime,
		Duration:   p.EndTime - p.StartTime,
		Confidence: p.Confidence,
		Category:   p.Type,
	}
	if p.AIAnalysis != nil && (p.AIAnalysis.MotionScore != nil || p.AIAnalysis.VisualScore != nil) {
		c.Analysis = &catalog.Analysis{
			Motion: p.AIAnalysis.MotionScore,
			Visual: p.AIAnalysis.VisualScore,
		}
	}
	return c
}

// ClipToPayload is the inverse of ClipFromPayload, used for export requests.
func ClipToPayload(c catalog.Clip) ClipPayload {
	p := ClipPayload{
		ClipID:     c.ID,
		Title:      c.Title,
		StartTime:  c.StartTime,
		EndTime:    c.EndTime,
		Duration:   c.Duration,
		Confidence: c.Confidence,
		Type:       c.Category,
	}
	if c.Analysis != nil {
		p.AIAnalysis = &AnalysisPayload{MotionScore: c.Analysis.Motion, VisualScore: c.Analysis.Visual}
	}
	return p
}

// ClipsToPayload converts a clip slice for an export request.
func ClipsToPayload(clips []catalog.Clip) []ClipPayload {
	out := make([]ClipPayload, len(clips))
	for i, c := range clips {
		out[i] = ClipToPayload(c)
	}
	return out
}

// ToResult adapts the payload into a validated catalog.Result for videoID.
// Clip order is preserved.
func (p *ResultPayload) ToResult(videoID string) (*catalog.Result, error) {
	clips := make([]catalog.Clip, len(p.Clips))
	for i, raw := range p.Clips {
		clips[i] = ClipFromPayload(raw)
	}
	if err := catalog.ValidateClips(clips); err != nil {
		return nil, fmt.Errorf("invalid result payload: %w", err)
	}
	return &catalog.Result{
		VideoID:   videoID,
		VideoInfo: VideoInfoFromPayload(p.VideoInfo),
		Clips:     clips,
	}, nil
}
