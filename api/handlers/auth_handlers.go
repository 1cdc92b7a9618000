package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"crimetrack/config"
	"crimetrack/core/auth"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

type AuthHandler struct {
	cfg    *config.AppConfig
	users  store.UsersStore
	sm     *auth.SessionManager
	audits store.AuditStore
	logger *utils.Logger
}

func NewAuthHandler(cfg *config.AppConfig, users store.UsersStore, sm *auth.SessionManager, audits store.AuditStore, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users, sm: sm, audits: audits, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid payload")
		return
	}
	username := strings.TrimSpace(req.Username)
	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil || !user.Active || !auth.VerifyPassword(req.Password, h.cfg.Pepper, user.Salt, user.PasswordHash) {
		if h.logger != nil {
			h.logger.Printf("AUTH fail for %q", username)
		}
		writeErr(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	sess, err := h.sm.Create(r.Context(), user)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	_, _ = h.audits.Append(r.Context(), &store.AuditRecord{
		UserID:     &user.ID,
		Action:     "login",
		EntityType: "user",
		EntityID:   strconv.FormatInt(user.ID, 10),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "crimetrack_session",
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"csrf_token": sess.CSRFToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess != nil {
		_ = h.sm.Delete(r.Context(), sess.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "crimetrack_session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess == nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
