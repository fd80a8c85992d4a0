package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"schoolbook/internal/domain"
	"schoolbook/internal/service/query"
)

// Records serves the dataset table, narrowed by the ?name= search term when
// one is submitted.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("name")

	rs, err := h.Query.Records(r.Context(), h.Dataset, query.Filter{Name: term})
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	// The quick filter narrows on the same column the server search uses;
	// when that column is absent it falls back to the whole row.
	nameIdx := columnIndex(rs.Columns, h.Query.NameColumn(h.Dataset))
	rows := make([]recordRowData, 0, len(rs.Rows))
	for i := range rs.Rows {
		cells := make([]string, len(rs.Rows[i]))
		for j, v := range rs.Rows[i] {
			cells[j] = cellString(v)
		}
		filter := strings.Join(cells, " ")
		if nameIdx >= 0 && nameIdx < len(cells) {
			filter = cells[nameIdx]
		}
		rows = append(rows, recordRowData{Filter: filter, Cells: cells})
	}

	renderHTML(w, http.StatusOK, recordsPage(recordsPageData{
		Dataset: h.Dataset,
		Term:    term,
		Columns: rs.Columns,
		Rows:    rows,
	}))
}

// Loads serves the load-run history from the ledger, newest first.
func (h *Handler) Loads(w http.ResponseWriter, r *http.Request) {
	pageReq := pageFromRequest(r, 30)
	runs, total, err := h.Query.Runs(r.Context(), domain.LoadRunFilter{Page: pageReq})
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	rows := make([]loadRowData, 0, len(runs))
	for i := range runs {
		run := runs[i]
		rows = append(rows, loadRowData{
			Dataset:  run.Dataset,
			Status:   run.Status,
			Rows:     strconv.FormatInt(run.RowCount, 10),
			Columns:  strconv.Itoa(run.ColumnCount),
			Source:   run.SourcePath,
			Started:  formatTime(run.StartedAt),
			Duration: formatDuration(run.StartedAt, run.FinishedAt),
			Error:    strOrDash(run.Error),
		})
	}

	renderHTML(w, http.StatusOK, loadsPage(rows, pageReq, total))
}

func (h *Handler) renderServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &notFound):
		status, title, message = http.StatusNotFound, "Not Found", notFound.Error()
	case errors.As(err, &validation):
		status, title, message = http.StatusBadRequest, "Invalid Request", validation.Error()
	case errors.As(err, &conflict):
		status, title, message = http.StatusConflict, "Conflict", conflict.Error()
	}

	renderHTML(w, status, errorPage(title, message))
}

// cellString renders one scanned value the way it should appear in a table
// cell. Strings pass through untouched.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

func strOrDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
