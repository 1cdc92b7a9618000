package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"crimetrack/core/store"
)

type LogsHandler struct {
	audits store.AuditStore
}

func NewLogsHandler(audits store.AuditStore) *LogsHandler {
	return &LogsHandler{audits: audits}
}

func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseAuditFilter(r)
	items, err := h.audits.List(r.Context(), filter)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func parseAuditFilter(r *http.Request) store.AuditFilter {
	q := r.URL.Query()
	filter := store.AuditFilter{
		Action:     strings.TrimSpace(q.Get("action")),
		EntityType: strings.TrimSpace(q.Get("entity_type")),
		Limit:      parseIntDefault(q.Get("limit"), 0),
	}
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.UserID = id
		}
	}
	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				filter.Since = t.UTC()
				break
			}
		}
	}
	return filter
}
