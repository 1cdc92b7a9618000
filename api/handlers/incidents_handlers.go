package handlers

import (
	"net/http"
	"strings"

	"crimetrack/core/cases"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

type IncidentsHandler struct {
	store  store.IncidentsStore
	users  store.UsersStore
	svc    *cases.Service
	logger *utils.Logger
}

func NewIncidentsHandler(is store.IncidentsStore, users store.UsersStore, svc *cases.Service, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{store: is, users: users, svc: svc, logger: logger}
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.IncidentFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 0),
		Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := store.IncidentStatus(strings.ToLower(raw))
		if !status.Valid() {
			writeErr(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	items, err := h.store.List(r.Context(), filter)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createIncidentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Submit      bool   `json:"submit"`
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req createIncidentRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeErr(w, http.StatusBadRequest, "title required")
		return
	}
	inc := &store.Incident{
		Title:       req.Title,
		Description: req.Description,
		Status:      store.IncidentDraft,
	}
	if req.Submit {
		inc.Status = store.IncidentSubmitted
	}
	if sess != nil {
		uid := sess.UserID
		inc.ReportedBy = &uid
	}
	if _, err := h.store.Create(r.Context(), inc); err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusCreated, inc)
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	inc, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	if inc == nil {
		writeErr(w, http.StatusNotFound, "incident not found")
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

type escalateRequest struct {
	LeadInvestigatorUserID int64 `json:"lead_investigator_user_id"`
}

func (h *IncidentsHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req escalateRequest
	if err := readJSON(r, &req); err != nil || req.LeadInvestigatorUserID <= 0 {
		writeErr(w, http.StatusBadRequest, "lead_investigator_user_id required")
		return
	}
	c, err := h.svc.EscalateIncident(r.Context(), id, req.LeadInvestigatorUserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
