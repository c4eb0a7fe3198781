package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"dblsync/internal/httpx"
)

type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

type HTTPHandler struct {
	svc      *Service
	dataDir  string
	defaults Options
	runs     RunLister

	// Only one sync may touch the data directory at a time.
	busy sync.Mutex
}

// NewHTTPHandler serves sync jobs for dataDir. defaults supplies the options a
// request body does not set. runs may be nil.
func NewHTTPHandler(svc *Service, dataDir string, defaults Options, runs RunLister) *HTTPHandler {
	return &HTTPHandler{svc: svc, dataDir: dataDir, defaults: defaults, runs: runs}
}

type syncRequest struct {
	Language      string   `json:"language" validate:"omitempty,langtag"`
	SkipLanguages []string `json:"skip_languages" validate:"omitempty,dive,langtag"`
	NoArchives    bool     `json:"no_archives"`
	Concurrency   int      `json:"concurrency" validate:"gte=0,lte=64"`
}

// Sync handles POST /internal/jobs/sync
// @Summary Synchronize the local library mirror
// @Description Refresh the entry snapshot and download missing archives
// @Tags internal
// @Accept json
// @Produce json
// @Param X-Internal-Secret header string true "Internal secret for authentication"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /internal/jobs/sync [post]
func (h *HTTPHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
			return
		}
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid sync request", details)
		return
	}

	if !h.busy.TryLock() {
		httpx.JSONError(w, r, http.StatusConflict, "SYNC_RUNNING", "a sync is already running", nil)
		return
	}
	defer h.busy.Unlock()

	opts := h.defaults
	opts.TargetDir = h.dataDir
	opts.Language = req.Language
	opts.NoArchives = req.NoArchives
	if req.SkipLanguages != nil {
		opts.SkipLanguages = req.SkipLanguages
	}
	if req.Concurrency > 0 {
		opts.Concurrency = req.Concurrency
	}

	// A sync cannot be cancelled mid-batch, so a client hanging up does not stop it.
	run, err := h.svc.Run(context.WithoutCancel(r.Context()), opts)
	if errors.Is(err, ErrCatalogUnavailable) {
		httpx.JSONError(w, r, http.StatusBadGateway, "CATALOG_UNAVAILABLE", err.Error(), nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "SYNC_FAILED", err.Error(), nil)
		return
	}

	httpx.JSONSuccess(w, r, run, nil)
}

// Runs handles GET /internal/jobs/runs
func (h *HTTPHandler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		httpx.JSONError(w, r, http.StatusNotImplemented, "NO_DATABASE", "run history requires a database", nil)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 100", nil)
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list runs", nil)
		return
	}
	httpx.JSONSuccess(w, r, runs, map[string]any{"limit": limit})
}
