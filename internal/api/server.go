package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
	"github.com/clipcraft/clipcraft-agent/internal/export"
	"github.com/clipcraft/clipcraft-agent/internal/lifecycle"
	"github.com/clipcraft/clipcraft-agent/internal/metrics"
)

// JobController is the lifecycle surface the API drives.
type JobController interface {
	Submit(ctx context.Context, sourceURL string, opts lifecycle.Options) (string, error)
	Reset()
	Snapshot() lifecycle.Snapshot
	Result() (*catalog.Result, bool)
}

// Exporter is the export surface the API drives.
type Exporter interface {
	ExportClip(ctx context.Context, videoID string, clip catalog.Clip) (*export.ClipExport, error)
	ExportBatch(ctx context.Context, videoID string, clips []catalog.Clip) (*export.BatchExport, error)
	ExportTimestamps(ctx context.Context, videoID string, clips []catalog.Clip) (*export.TimestampExport, error)
	ExportEDL(videoID string, clips []catalog.Clip, req export.EDLRequest) (*export.EDLExport, error)
	Status() export.Status
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Token      string
	Version    string
	Controller JobController
	Exporter   Exporter
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	StartTime  time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
