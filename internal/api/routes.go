package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
	"github.com/clipcraft/clipcraft-agent/internal/export"
	"github.com/clipcraft/clipcraft-agent/internal/lifecycle"
	"github.com/clipcraft/clipcraft-agent/internal/ranking"
)

const (
	codeBadRequest   = "BAD_REQUEST"
	codeNoResult     = "NO_RESULT"
	codeClipNotFound = "CLIP_NOT_FOUND"
	codeInternal     = "INTERNAL_ERROR"

	maxBodyBytes = 1 << 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cfg.Metrics.NewMiddleware().Handler)

	r.Get("/health", healthHandler(cfg))
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Token, cfg.Logger))

		r.Post("/job", submitJobHandler(cfg))
		r.Get("/job", getJobHandler(cfg))
		r.Delete("/job", resetJobHandler(cfg))
		r.Get("/result", resultHandler(cfg))
		r.Get("/recommendations", recommendationsHandler(cfg))

		r.Route("/exports", func(r chi.Router) {
			r.Get("/status", exportStatusHandler(cfg))
			r.Post("/clips/{id}", exportClipHandler(cfg))
			r.Post("/batch", exportBatchHandler(cfg))
			r.Post("/timestamps", exportTimestampsHandler(cfg))
			r.Post("/edl", exportEDLHandler(cfg))
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			JobState: cfg.Controller.Snapshot().State,
		})
	}
}

func submitJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitJobRequest
		if !decodeBody(w, r, &req) {
			return
		}

		// The poll loop outlives this request, so the controller detaches it.
		jobID, err := cfg.Controller.Submit(r.Context(), req.SourceURL, req.Options())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, SubmitJobResponse{JobID: jobID})
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Controller.Snapshot())
	}
}

func resetJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Controller.Reset()
		w.WriteHeader(http.StatusNoContent)
	}
}

func resultHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := requireResult(w, cfg)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, ResultToResponse(result))
	}
}

func recommendationsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := requireResult(w, cfg)
		if !ok {
			return
		}
		recs := ranking.Recommend(result.Clips)
		WriteJSON(w, http.StatusOK, RecommendationsResponse{
			ShortForm:         ClipsToResponse(result.VideoID, recs.ShortForm),
			HighestEngagement: ClipsToResponse(result.VideoID, recs.HighestEngagement),
		})
	}
}

func exportStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Exporter.Status())
	}
}

func exportClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := requireResult(w, cfg)
		if !ok {
			return
		}

		id := chi.URLParam(r, "id")
		clip, found := result.ClipByID(id)
		if !found {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("clip %s not found", id), codeClipNotFound)
			return
		}

		out, err := cfg.Exporter.ExportClip(r.Context(), result.VideoID, clip)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, out)
	}
}

func exportBatchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, clips, ok := selectClips(w, r, cfg)
		if !ok {
			return
		}

		out, err := cfg.Exporter.ExportBatch(r.Context(), result.VideoID, clips)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, out)
	}
}

func exportTimestampsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, clips, ok := selectClips(w, r, cfg)
		if !ok {
			return
		}

		out, err := cfg.Exporter.ExportTimestamps(r.Context(), result.VideoID, clips)
		var clipErr *export.ClipboardError
		if errors.As(err, &clipErr) {
			// The text still reaches the caller, who can copy it by hand.
			WriteJSON(w, http.StatusOK, export.TimestampExport{Text: clipErr.Text, Source: clipErr.Source})
			return
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, out)
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EDLExportRequest
		if !decodeBody(w, r, &req) {
			return
		}
		result, ok := requireResult(w, cfg)
		if !ok {
			return
		}
		clips, ok := pickClips(w, result, req.ClipIDs)
		if !ok {
			return
		}

		out, err := cfg.Exporter.ExportEDL(result.VideoID, clips, export.EDLRequest{
			ProjectName: req.ProjectName,
			FrameRate:   req.FrameRate,
			OutputDir:   req.OutputDir,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, out)
	}
}

func requireResult(w http.ResponseWriter, cfg ServerConfig) (*catalog.Result, bool) {
	result, ok := cfg.Controller.Result()
	if !ok || result == nil {
		WriteError(w, http.StatusConflict, "no completed job result", codeNoResult)
		return nil, false
	}
	return result, true
}

// selectClips reads an optional ClipSelection body. An empty body, chunked
// or not, selects every clip of the current result.
func selectClips(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (*catalog.Result, []catalog.Clip, bool) {
	var sel ClipSelection
	if !decodeOptionalBody(w, r, &sel) {
		return nil, nil, false
	}
	result, ok := requireResult(w, cfg)
	if !ok {
		return nil, nil, false
	}
	clips, ok := pickClips(w, result, sel.ClipIDs)
	if !ok {
		return nil, nil, false
	}
	return result, clips, true
}

func pickClips(w http.ResponseWriter, result *catalog.Result, ids []string) ([]catalog.Clip, bool) {
	if len(ids) == 0 {
		return result.Clips, true
	}
	clips := make([]catalog.Clip, 0, len(ids))
	for _, id := range ids {
		clip, found := result.ClipByID(id)
		if !found {
			WriteError(w, http.StatusNotFound, fmt.Sprintf("clip %s not found", id), codeClipNotFound)
			return nil, false
		}
		clips = append(clips, clip)
	}
	return clips, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, false)
}

// decodeOptionalBody is decodeBody for bodies that may be empty, whatever
// the Content-Length says.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	if r.Body == nil || r.Body == http.NoBody {
		if allowEmpty {
			return true
		}
		WriteError(w, http.StatusBadRequest, "invalid request body", codeBadRequest)
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		WriteError(w, http.StatusBadRequest, "invalid request body", codeBadRequest)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()), lifecycle.KindValidation)
			return false
		}
		WriteError(w, http.StatusBadRequest, err.Error(), lifecycle.KindValidation)
		return false
	}
	return true
}

// writeServiceError maps controller and orchestrator errors onto HTTP
// statuses. The body code is the error kind.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *lifecycle.ValidationError
		activeErr     *lifecycle.ActiveJobError
		submitErr     *lifecycle.SubmissionError
		inProgressErr *export.InProgressError
		exportErr     *export.ExportError
	)

	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, validationErr.Error(), validationErr.Kind())
	case errors.As(err, &activeErr):
		WriteError(w, http.StatusConflict, activeErr.Error(), activeErr.Kind())
	case errors.As(err, &submitErr):
		WriteError(w, http.StatusBadGateway, submitErr.Message, submitErr.Kind())
	case errors.As(err, &inProgressErr):
		WriteError(w, http.StatusConflict, inProgressErr.Error(), inProgressErr.Kind())
	case errors.As(err, &exportErr):
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, export.ErrInvalidOutputDir), exportErr.Err == nil:
			status = http.StatusBadRequest
		case exportErr.Op == export.OpEDL:
			status = http.StatusInternalServerError
		}
		WriteError(w, status, exportErr.Message, exportErr.Kind())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), codeInternal)
	}
}
