// Package api serves the JSON mirror of the read paths under /api.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"schoolbook/internal/domain"
	"schoolbook/internal/middleware"
	"schoolbook/internal/service/query"
)

// Handler holds the dependencies of the JSON endpoints.
type Handler struct {
	Query   *query.Service
	Dataset string
	Health  func(ctx context.Context) error
	Logger  *slog.Logger
}

func NewHandler(querySvc *query.Service, dataset string, health func(ctx context.Context) error, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Query: querySvc, Dataset: dataset, Health: health, Logger: logger}
}

// MountRoutes attaches the JSON API under /api plus the root health probe.
// CORS applies to the /api group only.
func MountRoutes(r chi.Router, h *Handler, allowedOrigins []string) {
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderRequestID},
			ExposedHeaders: []string{middleware.HeaderRequestID},
			MaxAge:         300,
		}))
		r.Get("/records", h.Records)
		r.Get("/loads", h.Loads)
		r.Get("/status", h.Status)
	})
	r.Get("/healthz", h.Healthz)
}

// Records returns the dataset rows as column-keyed maps, narrowed by ?name=
// and paginated in memory over the scan.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("name")

	rs, err := h.Query.Records(r.Context(), h.Dataset, query.Filter{Name: term})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page := pageFromParams(r)
	offset := page.Offset()
	window := rs.Slice(offset, page.Limit())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dataset":         h.Dataset,
		"columns":         window.Columns,
		"records":         window.Maps(),
		"row_count":       window.RowCount,
		"total_count":     rs.RowCount,
		"next_page_token": domain.NextPageToken(offset, page.Limit(), int64(rs.RowCount)),
	})
}

// Loads returns the ledger history, newest first, with optional dataset and
// status filters.
func (h *Handler) Loads(w http.ResponseWriter, r *http.Request) {
	filter := domain.LoadRunFilter{Page: pageFromParams(r)}
	if v := r.URL.Query().Get("dataset"); v != "" {
		filter.Dataset = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if v != domain.LoadSucceeded && v != domain.LoadFailed {
			h.writeError(w, r, domain.ErrValidation("status must be %q or %q", domain.LoadSucceeded, domain.LoadFailed))
			return
		}
		filter.Status = &v
	}

	runs, total, err := h.Query.Runs(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]map[string]interface{}, 0, len(runs))
	for i := range runs {
		items = append(items, loadRunToAPI(runs[i]))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"loads":           items,
		"total_count":     total,
		"next_page_token": domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total),
	})
}

// Status returns the serving-side view of one dataset: current table shape
// plus the most recent load run.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	dataset := h.Dataset
	if v := r.URL.Query().Get("dataset"); v != "" {
		dataset = v
	}

	st, err := h.Query.Status(r.Context(), dataset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	payload := map[string]interface{}{
		"dataset":   st.Dataset,
		"row_count": st.RowCount,
		"columns":   st.Columns,
	}
	if st.LastRun != nil {
		payload["last_load"] = loadRunToAPI(*st.LastRun)
	}
	writeJSON(w, http.StatusOK, payload)
}

// Healthz is the liveness probe. It pings the backing stores when a health
// func is wired.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			h.Logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		// Don't leak internals; the log line keeps the detail.
		h.Logger.Error("request failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
		},
	})
}

func loadRunToAPI(run domain.LoadRun) map[string]interface{} {
	out := map[string]interface{}{
		"id":           run.ID,
		"dataset":      run.Dataset,
		"source_path":  run.SourcePath,
		"row_count":    run.RowCount,
		"column_count": run.ColumnCount,
		"status":       run.Status,
		"started_at":   run.StartedAt,
		"finished_at":  run.FinishedAt,
	}
	if run.Error != nil {
		out["error_message"] = *run.Error
	}
	return out
}

// pageFromParams extracts a PageRequest from the optional max_results and
// page_token query params. Unparseable values fall back to the defaults.
func pageFromParams(r *http.Request) domain.PageRequest {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			p.MaxResults = parsed
		}
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
