package export

// Operation names used in errors, logs and metrics.
const (
	OpClip       = "clip"
	OpBatch      = "batch"
	OpTimestamps = "timestamps"
	OpEDL        = "edl"
)

// Where timestamp text came from.
const (
	SourceService = "service"
	SourceLocal   = "local"
)

// ClipExport is the outcome of a single-clip export.
type ClipExport struct {
	ClipID            string            `json:"clip_id"`
	URL               string            `json:"url"`
	SuggestedFilename string            `json:"suggested_filename"`
	Instructions      map[string]string `json:"instructions,omitempty"`
	Opened            bool              `json:"opened"`
}

// Link is one clip link handed out by a batch export.
type Link struct {
	ClipID string `json:"clip_id"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url"`
}

// BatchExport is the outcome of a batch export. Links open in the
// background, one per stagger interval.
type BatchExport struct {
	Links []Link   `json:"links"`
	Tips  []string `json:"tips,omitempty"`
}

// TimestampExport is the outcome of a timestamp export.
type TimestampExport struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Copied bool   `json:"copied"`
}

// EDLRequest describes an EDL file to write.
type EDLRequest struct {
	ProjectName string  `json:"project_name"`
	FrameRate   float64 `json:"frame_rate" validate:"omitempty,gt=0,lte=120"`
	OutputDir   string  `json:"output_dir" validate:"required"`
}

// EDLExport is the outcome of an EDL export.
type EDLExport struct {
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
}

// Status reports every in-progress flag of the orchestrator.
type Status struct {
	Exporting            []string `json:"exporting"`
	BatchInProgress      bool     `json:"batch_in_progress"`
	TimestampsInProgress bool     `json:"timestamps_in_progress"`
}
