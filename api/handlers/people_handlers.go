package handlers

import (
	"net/http"
	"strings"
	"time"

	"crimetrack/core/store"
)

type PeopleHandler struct {
	people store.PeopleStore
}

func NewPeopleHandler(people store.PeopleStore) *PeopleHandler {
	return &PeopleHandler{people: people}
}

func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.people.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createPersonRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
}

func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		writeErr(w, http.StatusBadRequest, "first_name and last_name required")
		return
	}
	p := &store.Person{FirstName: req.FirstName, LastName: req.LastName}
	if raw := strings.TrimSpace(req.DateOfBirth); raw != "" {
		dob, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
			return
		}
		p.DateOfBirth = &dob
	}
	if _, err := h.people.Create(r.Context(), p); err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r, "id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.people.Get(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	if p == nil {
		writeErr(w, http.StatusNotFound, "person not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
