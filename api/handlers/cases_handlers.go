package handlers

import (
	"net/http"
	"strings"

	"crimetrack/core/cases"
	"crimetrack/core/rbac"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

type CasesHandler struct {
	cases    store.CasesStore
	people   store.PeopleStore
	evidence store.EvidenceStore
	users    store.UsersStore
	policy   *rbac.Policy
	svc      *cases.Service
	logger   *utils.Logger
}

func NewCasesHandler(cs store.CasesStore, people store.PeopleStore, evidence store.EvidenceStore, users store.UsersStore, policy *rbac.Policy, svc *cases.Service, logger *utils.Logger) *CasesHandler {
	return &CasesHandler{cases: cs, people: people, evidence: evidence, users: users, policy: policy, svc: svc, logger: logger}
}

func (h *CasesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.CaseFilter{
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 0),
		Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := store.CaseStatus(strings.ToLower(raw))
		if !status.Valid() {
			writeErr(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	items, err := h.cases.List(r.Context(), filter)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// loadCase fetches the case from the path id, writing the error response
// itself when the id is bad or the case is missing.
func (h *CasesHandler) loadCase(w http.ResponseWriter, r *http.Request) (*store.Case, bool) {
	id, ok := urlParamID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	c, err := h.cases.Get(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return nil, false
	}
	if c == nil {
		writeErr(w, http.StatusNotFound, "case not found")
		return nil, false
	}
	return c, true
}

// checkMutate applies the object-level rule on top of the route guard:
// investigators may only touch cases they lead or are assigned to.
func (h *CasesHandler) checkMutate(w http.ResponseWriter, r *http.Request, c *store.Case) bool {
	sess := sessionFrom(r)
	if sess == nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	user, err := h.users.GetByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	ok, err := h.policy.CanMutateCase(r.Context(), user, c, h.cases)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return false
	}
	if !ok {
		writeErr(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

type updateCaseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *CasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	if !h.checkMutate(w, r, c) {
		return
	}
	var req updateCaseRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeErr(w, http.StatusBadRequest, "title required")
		return
	}
	updated, err := h.cases.UpdateDetails(r.Context(), c.ID, req.Title, req.Description)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	if updated == nil {
		writeErr(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type changeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *CasesHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	if !h.checkMutate(w, r, c) {
		return
	}
	var req changeStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid payload")
		return
	}
	status := store.CaseStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status == "" {
		writeErr(w, http.StatusBadRequest, "status required")
		return
	}
	if !status.Valid() {
		writeErr(w, http.StatusBadRequest, "unknown status "+string(status))
		return
	}
	sess := sessionFrom(r)
	updated, err := h.svc.ChangeCaseStatus(r.Context(), c.ID, sess.UserID, status, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type closeCaseRequest struct {
	Reason string `json:"reason"`
}

func (h *CasesHandler) Close(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	if !h.checkMutate(w, r, c) {
		return
	}
	var req closeCaseRequest
	_ = readJSON(r, &req)
	sess := sessionFrom(r)
	updated, err := h.svc.CloseCase(r.Context(), c.ID, sess.UserID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CasesHandler) History(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	items, err := h.cases.ListHistory(r.Context(), c.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type addPersonRequest struct {
	PersonID int64  `json:"person_id"`
	Role     string `json:"role"`
}

func (h *CasesHandler) AddPerson(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	if !h.checkMutate(w, r, c) {
		return
	}
	var req addPersonRequest
	if err := readJSON(r, &req); err != nil || req.PersonID <= 0 {
		writeErr(w, http.StatusBadRequest, "person_id required")
		return
	}
	role := store.CasePersonRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		writeErr(w, http.StatusBadRequest, "invalid role")
		return
	}
	sess := sessionFrom(r)
	link, err := h.svc.AddCasePerson(r.Context(), c.ID, req.PersonID, role, sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *CasesHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	items, err := h.people.ListByCase(r.Context(), c.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type addEvidenceRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (h *CasesHandler) AddEvidence(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	if !h.checkMutate(w, r, c) {
		return
	}
	var req addEvidenceRequest
	if err := readJSON(r, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		writeErr(w, http.StatusBadRequest, "code required")
		return
	}
	sess := sessionFrom(r)
	ev, err := h.svc.AddEvidence(r.Context(), c.ID, req.Code, req.Description, sess.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *CasesHandler) GetEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	ev, err := h.evidence.Get(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	if ev == nil {
		writeErr(w, http.StatusNotFound, "evidence not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *CasesHandler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCase(w, r)
	if !ok {
		return
	}
	items, err := h.evidence.ListByCase(r.Context(), c.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
