package ui

import (
	"net/http"
	"strconv"

	"schoolbook/internal/domain"
	"schoolbook/internal/service/query"

	gomponents "maragu.dev/gomponents"
)

// Handler serves the server-rendered HTML pages for one dataset.
type Handler struct {
	Query   *query.Service
	Dataset string
}

func NewHandler(querySvc *query.Service, dataset string) *Handler {
	return &Handler{Query: querySvc, Dataset: dataset}
}

func pageFromRequest(r *http.Request, defaultPageSize int) domain.PageRequest {
	maxResults := defaultPageSize
	if maxResults <= 0 {
		maxResults = 25
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxResults = parsed
		}
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 200 {
		maxResults = 200
	}
	return domain.PageRequest{
		MaxResults: maxResults,
		PageToken:  r.URL.Query().Get("page_token"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
