package cloud

import (
	"context"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
)

// JobService drives a processing job on the remote service.
type JobService interface {
	SubmitJob(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
	JobStatus(ctx context.Context, jobID string) (*JobStatus, error)
	JobResult(ctx context.Context, jobID string) (*ResultPayload, error)
	CancelJob(ctx context.Context, jobID string) error
}

// ExportService asks the remote service for export links and text.
type ExportService interface {
	ExportClip(ctx context.Context, req ClipExportRequest) (*ClipExportResponse, error)
	ExportBatch(ctx context.Context, req BatchExportRequest) (*BatchExportResponse, error)
	FormatTimestamps(ctx context.Context, videoID string, clips []catalog.Clip) (string, error)
}

type Client interface {
	JobService
	ExportService
	Health(ctx context.Context) error
}
