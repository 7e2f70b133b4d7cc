package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/platform/httpserver"
	"github.com/foldline-labs/foldline-go/internal/platform/objectstore"
	"github.com/foldline-labs/foldline-go/internal/repo"
	"github.com/foldline-labs/foldline-go/internal/service/predictions"
)

type predictionAPI struct {
	logger   *slog.Logger
	svc      *predictions.Service
	db       *sql.DB
	store    *minio.Client
	storeCfg objectstore.Config
}

func newPredictionAPI(logger *slog.Logger, svc *predictions.Service, db *sql.DB, store *minio.Client, storeCfg objectstore.Config) *predictionAPI {
	return &predictionAPI{
		logger:   logger,
		svc:      svc,
		db:       db,
		store:    store,
		storeCfg: storeCfg,
	}
}

func (api *predictionAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /predictions", api.handleCreatePrediction)
	mux.HandleFunc("GET /predictions", api.handleListPredictions)
	mux.HandleFunc("GET /predictions/{run_id}", api.handleGetPrediction)
	mux.HandleFunc("GET /predictions/{run_id}/steps", api.handleGetPredictionSteps)
	mux.HandleFunc("GET /predictions/{run_id}/structure", api.handleGetPredictionStructure)

	mux.HandleFunc("GET /healthz", httpserver.Healthz(serviceName))
	mux.HandleFunc("GET /readyz", httpserver.Readyz(serviceName, api.readinessChecks()...))
}

func (api *predictionAPI) readinessChecks() []httpserver.ReadinessCheck {
	checks := make([]httpserver.ReadinessCheck, 0, 2)
	if api.db != nil {
		checks = append(checks, httpserver.ReadinessCheck{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				return api.db.PingContext(pingCtx)
			},
		})
	}
	if api.store != nil {
		checks = append(checks, httpserver.ReadinessCheck{
			Name: "objectstore",
			Check: func(ctx context.Context) error {
				checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				return objectstore.CheckBucket(checkCtx, api.store, api.storeCfg)
			},
		})
	}
	return checks
}

type createPredictionRequest struct {
	Sequence string `json:"sequence"`
}

func (api *predictionAPI) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}
	var req createPredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json", "request body must be a JSON object")
		return
	}

	report, err := api.svc.Predict(r.Context(), req.Sequence)
	if err != nil {
		api.writePredictError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, report)
}

func (api *predictionAPI) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		api.writeError(w, r, http.StatusBadRequest, string(domain.KindValidation), err.Error())
	case domain.KindConfiguration:
		api.logger.Error("prediction misconfigured", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, string(domain.KindConfiguration), "pipeline configuration is invalid")
	default:
		api.logger.Error("prediction failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "prediction failed")
	}
}

func (api *predictionAPI) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			api.writeError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	records, err := api.svc.List(r.Context(), filter)
	if err != nil {
		api.logger.Error("list predictions failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list predictions")
		return
	}

	items := make([]map[string]any, 0, len(records))
	for _, record := range records {
		items = append(items, runSummary(record))
	}
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{"predictions": items})
}

func (api *predictionAPI) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))

	record, err := api.svc.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "not_found", "prediction not found")
			return
		}
		api.logger.Error("get prediction failed", "run_id", runID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load prediction")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(record.Report)
}

func (api *predictionAPI) handleGetPredictionSteps(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))

	if _, err := api.svc.Get(r.Context(), runID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "not_found", "prediction not found")
			return
		}
		api.logger.Error("get prediction failed", "run_id", runID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load prediction")
		return
	}

	records, err := api.svc.StepAttempts(r.Context(), runID)
	if err != nil {
		api.logger.Error("list step attempts failed", "run_id", runID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load step attempts")
		return
	}

	attempts := make([]map[string]any, 0, len(records))
	for _, record := range records {
		attempts = append(attempts, map[string]any{
			"step_name":     record.StepName,
			"handler":       record.Handler,
			"attempt":       record.Attempt,
			"status":        record.Status,
			"error_kind":    record.ErrorKind,
			"error_message": record.ErrorMessage,
			"elapsed_ms":    record.ElapsedMs,
			"recorded_at":   record.RecordedAt,
		})
	}
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"run_id":   runID,
		"attempts": attempts,
	})
}

func (api *predictionAPI) handleGetPredictionStructure(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))

	record, err := api.svc.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "not_found", "prediction not found")
			return
		}
		api.logger.Error("get prediction failed", "run_id", runID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load prediction")
		return
	}
	if record.ArtifactKey == "" {
		api.writeError(w, r, http.StatusNotFound, "not_found", "no structure stored for this prediction")
		return
	}

	if presign, _ := strconv.ParseBool(r.URL.Query().Get("presign")); presign {
		url, err := api.svc.StructureURL(r.Context(), runID, 10*time.Minute)
		if err != nil {
			api.logger.Error("presign structure failed", "run_id", runID, "error", err)
			api.writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to presign structure")
			return
		}
		httpserver.WriteJSON(w, http.StatusOK, map[string]any{"run_id": runID, "url": url})
		return
	}

	reader, err := api.svc.Structure(r.Context(), runID)
	if err != nil {
		api.logger.Error("fetch structure failed", "run_id", runID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to fetch structure")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "chemical/x-pdb")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func runSummary(record repo.PredictionRunRecord) map[string]any {
	return map[string]any{
		"run_id":          record.RunID,
		"fingerprint":     record.Fingerprint,
		"sequence_length": record.SequenceLength,
		"status":          record.Status,
		"partial":         record.Partial,
		"artifact_key":    record.ArtifactKey,
		"started_at":      record.StartedAt,
		"ended_at":        record.EndedAt,
	}
}

func (api *predictionAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := httpserver.RequestIDFromContext(r.Context())
	httpserver.WriteJSON(w, status, map[string]any{
		"error":      code,
		"message":    message,
		"request_id": requestID,
	})
}
