// Package export turns a ranked clip set into outbound side effects: opened
// links, clipboard text and EDL timelines. A failing item never aborts the
// rest of its batch.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
	"github.com/clipcraft/clipcraft-agent/internal/cloud"
	"github.com/clipcraft/clipcraft-agent/internal/desktop"
	"github.com/clipcraft/clipcraft-agent/internal/logging"
	"github.com/clipcraft/clipcraft-agent/internal/metrics"
)

const (
	DefaultStagger = time.Second

	defaultProjectName = "clipcraft_export"
)

// Orchestrator owns three independent pieces of export state: the set of
// clips currently exporting, the batch flag and the timestamps flag.
type Orchestrator struct {
	service   cloud.ExportService
	opener    desktop.Opener
	clipboard desktop.Clipboard
	metrics   *metrics.Metrics
	logger    *slog.Logger
	stagger   time.Duration
	sleep     func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	exporting map[string]struct{}

	batchInProgress      atomic.Bool
	timestampsInProgress atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(service cloud.ExportService, opener desktop.Opener, clipboard desktop.Clipboard, stagger time.Duration, m *metrics.Metrics, logger *slog.Logger) *Orchestrator {
	if stagger < 0 {
		stagger = DefaultStagger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		service:   service,
		opener:    opener,
		clipboard: clipboard,
		metrics:   m,
		logger:    logging.WithComponent(logger, "export"),
		stagger:   stagger,
		sleep:     sleepContext,
		exporting: make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ExportClip asks the service for the clip's export descriptor and opens
// its link.
func (o *Orchestrator) ExportClip(ctx context.Context, videoID string, clip catalog.Clip) (*ClipExport, error) {
	if !o.markExporting(clip.ID) {
		return nil, &InProgressError{Op: OpClip, ClipID: clip.ID}
	}
	defer o.unmarkExporting(clip.ID)

	logger := logging.WithClipID(o.logger, clip.ID)

	resp, err := o.service.ExportClip(ctx, cloud.ClipExportRequest{
		VideoID:   videoID,
		ClipID:    clip.ID,
		Title:     clip.Title,
		StartTime: clip.StartTime,
		EndTime:   clip.EndTime,
		Format:    cloud.DefaultExportFormat,
	})
	if err != nil {
		o.metrics.Export(OpClip, metrics.OutcomeFailure)
		logger.Warn("clip export failed", "error", err)
		return nil, &ExportError{Op: OpClip, ClipID: clip.ID, Message: exportMessage(err), Err: err}
	}

	out := &ClipExport{
		ClipID:            clip.ID,
		URL:               resp.YouTubeURL,
		SuggestedFilename: resp.SuggestedFilename,
		Instructions:      resp.Instructions,
	}
	if out.SuggestedFilename == "" {
		out.SuggestedFilename = SuggestedFilename(clip.Title, clip.ID, cloud.DefaultExportFormat)
	}

	if err := o.opener.OpenURL(out.URL); err != nil {
		logger.Warn("failed to open clip link", "url", out.URL, "error", err)
	} else {
		out.Opened = true
		o.metrics.LinkOpened()
	}

	o.metrics.Export(OpClip, metrics.OutcomeSuccess)
	logger.Info("clip exported", "url", out.URL, "opened", out.Opened)
	return out, nil
}

// ExportBatch makes one round-trip for every clip and, on success, opens
// link i after i stagger intervals in the background. On failure nothing is
// opened.
func (o *Orchestrator) ExportBatch(ctx context.Context, videoID string, clips []catalog.Clip) (*BatchExport, error) {
	if len(clips) == 0 {
		return nil, &ExportError{Op: OpBatch, Message: "no clips to export"}
	}
	if !o.batchInProgress.CompareAndSwap(false, true) {
		return nil, &InProgressError{Op: OpBatch}
	}

	resp, err := o.service.ExportBatch(ctx, cloud.BatchExportRequest{
		VideoID: videoID,
		Clips:   cloud.ClipsToPayload(clips),
		Format:  cloud.DefaultExportFormat,
	})
	if err != nil {
		o.batchInProgress.Store(false)
		o.metrics.Export(OpBatch, metrics.OutcomeFailure)
		o.logger.Warn("batch export failed", "clip_count", len(clips), "error", err)
		return nil, &ExportError{Op: OpBatch, Message: exportMessage(err), Err: err}
	}

	out := &BatchExport{Tips: resp.DownloadTips}
	for _, item := range resp.Clips {
		if item.YouTubeURL == "" {
			o.logger.Warn("batch item without link", "clip_id", item.ClipID)
			continue
		}
		out.Links = append(out.Links, Link{ClipID: item.ClipID, Title: item.Title, URL: item.YouTubeURL})
	}

	o.metrics.Export(OpBatch, metrics.OutcomeSuccess)
	o.logger.Info("batch exported", "link_count", len(out.Links), "stagger", o.stagger)

	links := slices.Clone(out.Links)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.batchInProgress.Store(false)
		o.openStaggered(links)
	}()
	return out, nil
}

func (o *Orchestrator) openStaggered(links []Link) {
	for i, link := range links {
		if i > 0 {
			if err := o.sleep(o.ctx, o.stagger); err != nil {
				o.logger.Info("batch link opening stopped", "remaining", len(links)-i)
				return
			}
		}
		if err := o.opener.OpenURL(link.URL); err != nil {
			logging.WithClipID(o.logger, link.ClipID).Warn("failed to open batch link", "url", link.URL, "error", err)
			continue
		}
		o.metrics.LinkOpened()
	}
}

// ExportTimestamps puts the shareable clip list on the clipboard. The text
// comes from the service when it answers and is built locally otherwise.
// When the clipboard write fails the returned *ClipboardError carries the
// full text.
func (o *Orchestrator) ExportTimestamps(ctx context.Context, videoID string, clips []catalog.Clip) (*TimestampExport, error) {
	if !o.timestampsInProgress.CompareAndSwap(false, true) {
		return nil, &InProgressError{Op: OpTimestamps}
	}
	defer o.timestampsInProgress.Store(false)

	out := &TimestampExport{Source: SourceService}
	text, err := o.service.FormatTimestamps(ctx, videoID, clips)
	if err != nil {
		o.logger.Warn("service timestamp formatting failed, formatting locally", "error", err)
		text = FormatTimestamps(videoID, clips)
		out.Source = SourceLocal
	}
	out.Text = text

	if err := o.clipboard.WriteText(text); err != nil {
		o.metrics.Export(OpTimestamps, metrics.OutcomeFailure)
		o.logger.Warn("clipboard write failed", "source", out.Source, "error", err)
		return nil, &ClipboardError{Text: text, Source: out.Source, Err: err}
	}

	out.Copied = true
	o.metrics.Export(OpTimestamps, metrics.OutcomeSuccess)
	o.logger.Info("timestamps copied", "source", out.Source, "clip_count", len(clips))
	return out, nil
}

// ExportEDL writes clips, in order, as an EDL whose media references are the
// canonical clip links.
func (o *Orchestrator) ExportEDL(videoID string, clips []catalog.Clip, req EDLRequest) (*EDLExport, error) {
	if len(clips) == 0 {
		return nil, &ExportError{Op: OpEDL, Message: "no clips to export"}
	}
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return nil, &ExportError{Op: OpEDL, Message: err.Error(), Err: err}
	}

	project := SanitizeName(req.ProjectName, maxFilenameRunes)
	if project == "" {
		project = defaultProjectName
	}

	events := make([]TimelineEvent, len(clips))
	for i, c := range clips {
		name := SanitizeName(c.Title, maxClipNameRunes)
		if name == "" {
			name = c.ID
		}
		events[i] = TimelineEvent{
			Name:      name,
			SourceURL: catalog.ClipURL(videoID, c.StartTime),
			Start:     c.StartTime,
			End:       c.EndTime,
		}
	}

	path := filepath.Join(req.OutputDir, project+".edl")
	if err := os.WriteFile(path, []byte(GenerateEDL(events, project, req.FrameRate)), 0o644); err != nil {
		o.metrics.Export(OpEDL, metrics.OutcomeFailure)
		return nil, &ExportError{Op: OpEDL, Message: "failed to write export file", Err: err}
	}

	o.metrics.Export(OpEDL, metrics.OutcomeSuccess)
	o.logger.Info("edl written", "path", path, "clip_count", len(events))
	return &EDLExport{OutputPath: path, ClipCount: len(events)}, nil
}

// Status returns a copy of the in-progress state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	ids := make([]string, 0, len(o.exporting))
	for id := range o.exporting {
		ids = append(ids, id)
	}
	o.mu.Unlock()
	slices.Sort(ids)

	return Status{
		Exporting:            ids,
		BatchInProgress:      o.batchInProgress.Load(),
		TimestampsInProgress: o.timestampsInProgress.Load(),
	}
}

// IsExporting reports whether clipID has an export in flight.
func (o *Orchestrator) IsExporting(clipID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.exporting[clipID]
	return ok
}

// Wait blocks until scheduled link openings finish.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close abandons pending link openings and waits for them to stop.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// markExporting adds clipID to the exporting set and reports whether it was
// absent.
func (o *Orchestrator) markExporting(clipID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.exporting[clipID]; ok {
		return false
	}
	o.exporting[clipID] = struct{}{}
	return true
}

func (o *Orchestrator) unmarkExporting(clipID string) {
	o.mu.Lock()
	delete(o.exporting, clipID)
	o.mu.Unlock()
}

func exportMessage(err error) string {
	var apiErr *cloud.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail()
	}
	var rejected *cloud.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Error()
	}
	return fmt.Sprintf("could not reach the processing service: %v", err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
