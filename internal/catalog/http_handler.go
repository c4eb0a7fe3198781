package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"dblsync/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// List handles GET /v1/entries
// @Summary List library entries
// @Description List entries of the last synchronized catalog snapshot
// @Tags catalog
// @Accept json
// @Produce json
// @Param lang query string false "Filter by effective language code"
// @Param type query string false "Filter by entry type"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/entries [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	q := ListQuery{
		Language:  query.Get("lang"),
		EntryType: query.Get("type"),
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}

	records, total, err := h.svc.List(r.Context(), q)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, records, map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}

// GetByKey handles GET /v1/entries/{key}
// @Summary Get entry by key
// @Description Retrieve one entry by its <language>_<id> key
// @Tags catalog
// @Accept json
// @Produce json
// @Param key path string true "Entry key"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/entries/{key} [get]
func (h *HTTPHandler) GetByKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "key is required", nil)
		return
	}

	rec, err := h.svc.GetByKey(r.Context(), key)
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Entry not found in catalog", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, rec, nil)
}
