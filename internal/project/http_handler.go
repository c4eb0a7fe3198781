package project

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"dblsync/internal/exceptions"
	"dblsync/internal/httpx"

	"github.com/charmbracelet/log"
)

type HTTPHandler struct {
	dataDir string
	tables  exceptions.Tables
	logger  *log.Logger
}

func NewHTTPHandler(dataDir string, tables exceptions.Tables, logger *log.Logger) *HTTPHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &HTTPHandler{dataDir: dataDir, tables: tables, logger: logger}
}

type projectView struct {
	exceptions.Project
	Name       string `json:"name"`
	Tag        string `json:"tag"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// List handles GET /v1/projects
// @Summary List downloaded archives
// @Tags projects
// @Produce json
// @Param lang query string false "Filter by language code"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/projects [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	dirEntries, err := os.ReadDir(h.dataDir)
	if err != nil {
		h.logger.Error("failed to read data directory", "dir", h.dataDir, "err", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	paths := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.Type().IsRegular() {
			paths = append(paths, filepath.Join(h.dataDir, de.Name()))
		}
	}
	sort.Strings(paths)

	views := []projectView{}
	for p := range exceptions.Projects(paths, r.URL.Query().Get("lang")) {
		reason, _ := h.tables.Skip(p.Path)
		views = append(views, projectView{
			Project:    p,
			Name:       filepath.Base(p.Path),
			Tag:        h.tables.Tag(p),
			SkipReason: reason,
		})
	}

	httpx.JSONSuccess(w, r, views, map[string]any{"total": len(views)})
}

// Text handles GET /v1/projects/{name}/text
// @Summary Stream the body text of an archive
// @Description One text fragment per line. name is the archive name without .zip.
// @Tags projects
// @Produce plain
// @Param name path string true "Archive name, e.g. acr_2880c78491b2f8ce"
// @Param continuation query bool false "Include continuation paragraphs"
// @Success 200 {string} string
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /v1/projects/{name}/text [get]
func (h *HTTPHandler) Text(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name") + ".zip"
	if !filepath.IsLocal(name) || filepath.Base(name) != name {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid project name", nil)
		return
	}
	if _, _, ok := exceptions.ParseName(name); !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid project name", nil)
		return
	}

	var opts []Option
	if r.URL.Query().Get("continuation") == "true" {
		opts = append(opts, WithContinuation())
	}
	opts = append(opts, WithLogger(h.logger))

	reader, err := Open(filepath.Join(h.dataDir, name), opts...)
	if errors.Is(err, os.ErrNotExist) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "project not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, "UNREADABLE_PROJECT", err.Error(), nil)
		return
	}
	defer reader.Close()

	// Fail before the first byte is written when the archive has no stylesheet.
	if err := reader.ReadStylesheet(); err != nil {
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, "UNREADABLE_PROJECT", err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	sink := NewLineSink(w)
	err = reader.Process(sink)
	if ferr := sink.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		// Headers are gone; all that is left is to log and cut the body short.
		h.logger.Error("text extraction failed", "project", name, "err", fmt.Errorf("after %d lines: %w", sink.Lines, err))
	}
}
