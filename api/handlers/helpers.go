package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"crimetrack/core/auth"
	"crimetrack/core/cases"
	"crimetrack/core/store"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func urlParamID(r *http.Request, key string) (int64, bool) {
	raw := urlParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return def
}

func sessionFrom(r *http.Request) *store.SessionRecord {
	val := r.Context().Value(auth.SessionContextKey)
	if val == nil {
		return nil
	}
	rec, _ := val.(*store.SessionRecord)
	return rec
}

// writeServiceError maps lifecycle-service failures onto HTTP statuses:
// missing records to 404, rejected transitions to 400 with the offending
// pair and the legal next states, uniqueness conflicts to 409.
func writeServiceError(w http.ResponseWriter, err error) {
	var invalid *cases.InvalidTransitionError
	switch {
	case cases.IsNotFound(err):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"detail":  invalid.Error(),
			"allowed": cases.AllowedTransitions(invalid.From),
		})
	case errors.Is(err, store.ErrConflict):
		writeErr(w, http.StatusConflict, "conflict")
	default:
		writeErr(w, http.StatusInternalServerError, "server error")
	}
}
