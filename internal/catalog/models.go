// Package catalog holds the clip catalog produced by a completed processing
// job: the source video's metadata and the candidate clips cut from it.
package catalog

import (
	"fmt"
)

// CategoryHighAction is the category label the scoring engine rewards.
const CategoryHighAction = "High Action"

// VideoInfo describes the source video of a completed job.
type VideoInfo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Views    int64   `json:"views"`
	Uploader string  `json:"uploader"`
}

// Analysis carries the optional per-clip signals reported by the server.
// A nil field means the server did not report that signal.
type Analysis struct {
	Motion *float64 `json:"motion,omitempty"`
	Visual *float64 `json:"visual,omitempty"`
}

// Clip is one candidate excerpt of the source video. Clips are value objects
// and are never mutated after they leave the endpoint client.
type Clip struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StartTime  float64   `json:"start_time"`
	EndTime    float64   `json:"end_time"`
	Duration   float64   `json:"duration"`
	Confidence float64   `json:"confidence"`
	Category   string    `json:"category"`
	Analysis   *Analysis `json:"analysis,omitempty"`
}

// Validate checks the timing and confidence invariants of a clip.
func (c Clip) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("clip id is required")
	}
	if c.StartTime < 0 {
		return fmt.Errorf("clip %s: start_time must not be negative", c.ID)
	}
	if c.StartTime >= c.EndTime {
		return fmt.Errorf("clip %s: start_time must be less than end_time", c.ID)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("clip %s: confidence %.3f outside [0,1]", c.ID, c.Confidence)
	}
	return nil
}

// Result is the terminal payload of a completed job.
type Result struct {
	VideoID   string    `json:"video_id"`
	VideoInfo VideoInfo `json:"video_info"`
	Clips     []Clip    `json:"clips"`
}

// ClipByID returns the clip with the given id, or false when absent.
func (r *Result) ClipByID(id string) (Clip, bool) {
	if r == nil {
		return Clip{}, false
	}
	for _, c := range r.Clips {
		if c.ID == id {
			return c, true
		}
	}
	return Clip{}, false
}

// ValidateClips checks every clip and rejects duplicate ids.
func ValidateClips(clips []Clip) error {
	seen := make(map[string]bool, len(clips))
	for _, c := range clips {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate clip id %s", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
