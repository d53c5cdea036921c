package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
	"github.com/clipcraft/clipcraft-agent/internal/export"
	"github.com/clipcraft/clipcraft-agent/internal/lifecycle"
	"github.com/clipcraft/clipcraft-agent/internal/ranking"
)

var processOpts struct {
	clips  int
	mode   string
	noAI   bool
	copy   bool
	open   bool
	edlDir string
}

var processCmd = &cobra.Command{
	Use:   "process <video-url>",
	Short: "Process one video and print its ranked clips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	defaults := lifecycle.DefaultOptions()
	flags := processCmd.Flags()
	flags.IntVar(&processOpts.clips, "clips", defaults.ClipCount, "Number of clips to generate (1-10)")
	flags.StringVar(&processOpts.mode, "mode", defaults.AnalysisMode, "Analysis mode: fast, balanced or detailed")
	flags.BoolVar(&processOpts.noAI, "no-ai", false, "Disable AI analysis")
	flags.BoolVar(&processOpts.copy, "copy", false, "Copy the clip timestamps to the clipboard")
	flags.BoolVar(&processOpts.open, "open", false, "Open every clip link in the browser")
	flags.StringVar(&processOpts.edlDir, "edl-dir", "", "Write an EDL timeline of the clips to this directory")
}

func runProcess(ctx context.Context, out io.Writer, sourceURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.orchestrator.Close()

	var (
		mu       sync.Mutex
		lastStep string
	)
	a.controller.OnChange(func(s lifecycle.Snapshot) {
		if s.Job == nil || s.State != lifecycle.StatePolling {
			return
		}
		line := fmt.Sprintf("[%3d%%] %s", s.Job.Progress, s.Job.CurrentStep)
		mu.Lock()
		defer mu.Unlock()
		if line != lastStep {
			lastStep = line
			fmt.Fprintln(out, line)
		}
	})

	jobID, err := a.controller.Submit(ctx, sourceURL, lifecycle.Options{
		ClipCount:     processOpts.clips,
		UseAIAnalysis: !processOpts.noAI,
		AnalysisMode:  processOpts.mode,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Submitted job %s\n", jobID)

	snap, err := a.controller.Wait(ctx)
	if err != nil {
		a.controller.Reset()
		return fmt.Errorf("job %s abandoned: %w", jobID, err)
	}
	if snap.State != lifecycle.StateCompleted {
		if jobErr := a.controller.Err(); jobErr != nil {
			return jobErr
		}
		return fmt.Errorf("job %s ended in state %s", jobID, snap.State)
	}

	result, _ := a.controller.Result()
	printResult(out, result)

	if processOpts.copy {
		ts, err := a.orchestrator.ExportTimestamps(ctx, result.VideoID, result.Clips)
		var clipErr *export.ClipboardError
		switch {
		case errors.As(err, &clipErr):
			fmt.Fprintln(out, "\nClipboard unavailable, copy the timestamps below:")
			fmt.Fprintln(out, clipErr.Text)
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "\nTimestamps copied to clipboard (%s)\n", ts.Source)
		}
	}

	if processOpts.edlDir != "" {
		edl, err := a.orchestrator.ExportEDL(result.VideoID, result.Clips, export.EDLRequest{
			ProjectName: result.VideoInfo.Title,
			OutputDir:   processOpts.edlDir,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nWrote %s (%d clips)\n", edl.OutputPath, edl.ClipCount)
	}

	if processOpts.open {
		batch, err := a.orchestrator.ExportBatch(ctx, result.VideoID, result.Clips)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nOpening %d clip links\n", len(batch.Links))
		for _, tip := range batch.Tips {
			fmt.Fprintf(out, "  - %s\n", tip)
		}
		go func() {
			<-ctx.Done()
			a.orchestrator.Close()
		}()
		a.orchestrator.Wait()
	}
	return nil
}

func printResult(out io.Writer, result *catalog.Result) {
	info := result.VideoInfo
	fmt.Fprintf(out, "\n%s by %s (%s, %d views)\n", info.Title, info.Uploader, catalog.FormatClock(info.Duration), info.Views)

	fmt.Fprintln(out, "\nClips by viral potential:")
	for i, s := range ranking.Rank(result.Clips) {
		marker := " "
		if s.Notable {
			marker = "*"
		}
		fmt.Fprintf(out, "%s%2d. %-40s %s-%s  %.2f  %s\n", marker, i+1, s.Clip.Title,
			catalog.FormatClock(s.Clip.StartTime), catalog.FormatClock(s.Clip.EndTime), s.Score,
			catalog.ClipURL(result.VideoID, s.Clip.StartTime))
	}

	recs := ranking.Recommend(result.Clips)
	printRecommendation(out, "Best for short-form", recs.ShortForm)
	printRecommendation(out, "Highest engagement", recs.HighestEngagement)
}

func printRecommendation(out io.Writer, label string, clips []ranking.ScoredClip) {
	fmt.Fprintf(out, "\n%s:\n", label)
	if len(clips) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	for _, s := range clips {
		fmt.Fprintf(out, "  %s (%.0fs, %.2f)\n", s.Clip.Title, s.Clip.Duration, s.Score)
	}
}
