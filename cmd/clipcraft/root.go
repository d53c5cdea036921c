package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/clipcraft/clipcraft-agent/internal/cloud"
	"github.com/clipcraft/clipcraft-agent/internal/config"
	"github.com/clipcraft/clipcraft-agent/internal/desktop"
	"github.com/clipcraft/clipcraft-agent/internal/export"
	"github.com/clipcraft/clipcraft-agent/internal/lifecycle"
	"github.com/clipcraft/clipcraft-agent/internal/logging"
	"github.com/clipcraft/clipcraft-agent/internal/metrics"
)

var (
	envFile string
)

var rootCmd = &cobra.Command{
	Use:           "clipcraft",
	Short:         "Turn long videos into ranked short clips",
	Version:       fmt.Sprintf("%s (commit %s, built %s)", config.Version, config.GitCommit, config.BuildTime),
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processCmd)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file seeding the environment")
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg          *config.EnvConfig
	logger       *slog.Logger
	metrics      *metrics.Metrics
	client       *cloud.HTTPClient
	controller   *lifecycle.Controller
	orchestrator *export.Orchestrator
}

func newApp(logOut io.Writer) (*app, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLoggerTo(logOut, cfg.LogLevel())
	m := metrics.New()

	client := cloud.NewHTTPClient(cfg.ServiceURL(), cfg.RequestTimeout(), logger)
	client.SetObserver(m)

	opener, clipboard := desktop.New(cfg.Headless(), logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
		client:       client,
		controller:   lifecycle.NewController(client, cfg.PollInterval(), m, logger),
		orchestrator: export.NewOrchestrator(client, opener, clipboard, cfg.BatchStagger(), m, logger),
	}, nil
}
