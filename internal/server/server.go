// Package server exposes the projection engine over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/business-forecast/internal/engine"
	"github.com/iwvelando/business-forecast/internal/workspace"
	"github.com/iwvelando/business-forecast/pkg/constants"
	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/scenario"
	"github.com/iwvelando/business-forecast/pkg/version"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const defaultRequestTimeout = 10 * time.Second

// Options tunes the handler.
type Options struct {
	MaxBodySize    int64
	RequestTimeout time.Duration
	Version        string
}

type handler struct {
	logger      *zap.Logger
	svc         *engine.Service
	cache       *workspace.Cache
	maxBodySize int64
	timeout     time.Duration
	version     string
}

type projectionRequest struct {
	ScenarioKey string             `json:"scenarioKey"`
	Overrides   map[string]float64 `json:"overrides,omitempty"`
}

type saveRequest struct {
	ScenarioKey string `json:"scenarioKey"`
	Label       string `json:"label"`
	Summary     string `json:"summary,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Kind  string `json:"kind"`
}

// NewHandler constructs the HTTP handler that serves the projection API.
func NewHandler(logger *zap.Logger, svc *engine.Service, cache *workspace.Cache, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = workspace.New()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		svc:         svc,
		cache:       cache,
		maxBodySize: opts.MaxBodySize,
		timeout:     opts.RequestTimeout,
		version:     trimmedVersion,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scenarios", h.handleScenarios)
	mux.HandleFunc("POST /api/projection", h.handleCompute)
	mux.HandleFunc("GET /api/projection/{key}", h.handleDisplay)
	mux.HandleFunc("GET /api/versions", h.handleListVersions)
	mux.HandleFunc("POST /api/versions", h.handleSaveVersion)
	mux.HandleFunc("DELETE /api/versions/{id}", h.handleDeleteVersion)
	mux.HandleFunc("POST /api/versions/{id}/reload", h.handleReloadVersion)
	mux.HandleFunc("GET /api/versions/{id}/replay", h.handleReplayVersion)
	mux.HandleFunc("GET /api/version", h.handleVersion)
	return mux
}

func (h *handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleScenarios(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	scenarios, err := h.svc.ListScenarios(ctx)
	if err != nil {
		h.respondErr(w, err, "server.handleScenarios")
		return
	}

	if r.URL.Query().Get("format") == "yaml" {
		data, err := yaml.Marshal(map[string][]scenario.Config{"scenarios": scenarios})
		if err != nil {
			h.respondErr(w, fmt.Errorf("failed to encode scenarios: %w", err), "server.handleScenarios")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": scenarios})
}

func (h *handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req projectionRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondErr(w, err, "server.handleCompute")
		return
	}
	if req.ScenarioKey == "" {
		req.ScenarioKey = constants.DefaultScenarioKey
	}
	overrides, err := drivers.ParseOverrides(req.Overrides)
	if err != nil {
		h.respondErr(w, err, "server.handleCompute")
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	c, err := h.svc.ComputeProjection(ctx, req.ScenarioKey, overrides)
	if err != nil {
		h.respondErr(w, err, "server.handleCompute")
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Put(c))
}

func (h *handler) handleDisplay(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if entry, ok := h.cache.Display(key); ok {
		h.writeJSON(w, http.StatusOK, entry)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()
	c, err := h.svc.ComputeProjection(ctx, key, drivers.Overrides{})
	if err != nil {
		h.respondErr(w, err, "server.handleDisplay")
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Put(c))
}

func (h *handler) handleListVersions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	snapshots, err := h.svc.ListVersions(ctx)
	if err != nil {
		h.respondErr(w, err, "server.handleListVersions")
		return
	}
	if snapshots == nil {
		snapshots = []version.Snapshot{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"versions": snapshots})
}

// handleSaveVersion persists whatever is displayed for the scenario key,
// computing it first when nothing is.
func (h *handler) handleSaveVersion(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondErr(w, err, "server.handleSaveVersion")
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	entry, ok := h.cache.Display(req.ScenarioKey)
	if !ok {
		c, err := h.svc.ComputeProjection(ctx, req.ScenarioKey, drivers.Overrides{})
		if err != nil {
			h.respondErr(w, err, "server.handleSaveVersion")
			return
		}
		entry = h.cache.Put(c)
	}

	snap, err := h.svc.SaveComputation(ctx, entry.Computation, req.Label, req.Summary, req.CreatedBy)
	if err != nil {
		h.respondErr(w, err, "server.handleSaveVersion")
		return
	}
	h.writeJSON(w, http.StatusCreated, snap)
}

func (h *handler) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx, cancel := h.context(r)
	defer cancel()

	if err := h.svc.DeleteVersion(ctx, id); err != nil {
		h.respondErr(w, err, "server.handleDeleteVersion")
		return
	}
	h.cache.InvalidateVersion(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleReloadVersion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	snap, err := h.svc.GetVersion(ctx, r.PathValue("id"))
	if err != nil {
		h.respondErr(w, err, "server.handleReloadVersion")
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Reload(snap))
}

func (h *handler) handleReplayVersion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	snap, err := h.svc.GetVersion(ctx, r.PathValue("id"))
	if err != nil {
		h.respondErr(w, err, "server.handleReplayVersion")
		return
	}
	report, err := h.svc.Replay(ctx, snap)
	if err != nil {
		h.respondErr(w, err, "server.handleReplayVersion")
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

var errMalformedBody = errors.New("malformed request body")

func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return maxBytesErr
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// classify maps an error family to an HTTP status and a stable kind string.
func classify(err error) (int, string) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, "malformed"
	case errors.Is(err, engine.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "invalid_input"
	case errors.Is(err, engine.ErrScenarioNotFound):
		return http.StatusNotFound, "scenario_not_found"
	case errors.Is(err, version.ErrNotFound):
		return http.StatusNotFound, "version_not_found"
	case engine.IsRetryable(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "store_unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

func (h *handler) respondErr(w http.ResponseWriter, err error, op string) {
	status, kind := classify(err)
	resp := errorResponse{Error: err.Error(), Kind: kind}
	var fieldErr *drivers.ValidationError
	if errors.As(err, &fieldErr) {
		resp.Field = fieldErr.Field
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.Error(err),
		)
	} else {
		h.logger.Debug("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	h.writeJSON(w, status, resp)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
		http.Error(w, `{"error":"failed to encode response","kind":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
