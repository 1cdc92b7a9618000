package handlers

import (
	"net/http"

	"crimetrack/core/store"
)

type ReportsHandler struct {
	reports store.ReportsStore
}

func NewReportsHandler(reports store.ReportsStore) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

func (h *ReportsHandler) CaseSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.CaseSummary(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows})
}

func (h *ReportsHandler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.StatusCounts(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows})
}
