package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipcraft/clipcraft-agent/internal/api"
	"github.com/clipcraft/clipcraft-agent/internal/config"
	"github.com/clipcraft/clipcraft-agent/internal/logging"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local ClipCraft API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	startTime := time.Now()

	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	logger := a.logger
	logger.Info("starting clipcraft agent", "version", config.Version, "service_url", a.cfg.ServiceURL())

	token := a.cfg.APIToken()
	if token == "" {
		token, err = generateToken()
		if err != nil {
			return fmt.Errorf("failed to generate auth token: %w", err)
		}
		fmt.Println()
		fmt.Println("╔═══════════════════════════════════════════════════════════════════════════════╗")
		fmt.Printf("║  API URL:    http://127.0.0.1:%-48d ║\n", a.cfg.Port())
		fmt.Printf("║  Auth Token: %-65s ║\n", token)
		fmt.Println("╚═══════════════════════════════════════════════════════════════════════════════╝")
		fmt.Println()
	}
	logger.Info("local API token ready", "token", logging.SanitizeToken(token))

	healthCtx, healthCancel := context.WithTimeout(context.Background(), a.cfg.RequestTimeout())
	if err := a.client.Health(healthCtx); err != nil {
		logger.Warn("processing service not reachable yet", "url", a.cfg.ServiceURL(), "error", err)
	}
	healthCancel()

	apiServer := api.NewServer(api.ServerConfig{
		Port:       a.cfg.Port(),
		Token:      token,
		Version:    config.Version,
		Controller: a.controller,
		Exporter:   a.orchestrator,
		Metrics:    a.metrics,
		Logger:     logger,
		StartTime:  startTime,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	a.controller.Reset()
	a.orchestrator.Close()

	logger.Info("shutdown complete")
	return nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
